package registry

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// Channel is one live duplex connection to a user. Send failures are
// terminal for the channel; there is no retry on a long-lived socket.
type Channel interface {
	Send(message []byte) error
	Close() error
}

// Registry tracks at most one live channel per user. A new connection for a
// user atomically replaces (and closes) any previous one, so a reconnecting
// client can never race itself into two live channels.
type Registry struct {
	mu    sync.Mutex
	conns map[int64]Channel
}

func New() *Registry {
	return &Registry{conns: make(map[int64]Channel)}
}

// Connect registers ch as the user's live channel, closing any prior one.
func (r *Registry) Connect(userID int64, ch Channel) {
	r.mu.Lock()
	old := r.conns[userID]
	r.conns[userID] = ch
	r.mu.Unlock()

	if old != nil && old != ch {
		logrus.Debugf("[REGISTRY] Replacing live channel for user %d", userID)
		_ = old.Close()
	}
}

// Disconnect removes ch if it is still the user's current channel. A stale
// disconnect from an already-replaced connection is a no-op, not an error.
func (r *Registry) Disconnect(userID int64, ch Channel) {
	r.mu.Lock()
	if current, ok := r.conns[userID]; ok && current == ch {
		delete(r.conns, userID)
	}
	r.mu.Unlock()
}

// SendToUser delivers payload to the user's channel, best effort. A failed
// write means a dead peer: the channel is dropped, never retried.
func (r *Registry) SendToUser(userID int64, payload any) {
	r.mu.Lock()
	ch, ok := r.conns[userID]
	r.mu.Unlock()
	if !ok {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).Error("[REGISTRY] Marshal failed")
		return
	}

	if err := ch.Send(data); err != nil {
		logrus.WithError(err).Warnf("[REGISTRY] Dropping dead channel for user %d", userID)
		r.drop(userID, ch)
	}
}

// Broadcast delivers payload to every registered user.
func (r *Registry) Broadcast(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).Error("[REGISTRY] Marshal failed")
		return
	}

	r.mu.Lock()
	snapshot := make(map[int64]Channel, len(r.conns))
	for userID, ch := range r.conns {
		snapshot[userID] = ch
	}
	r.mu.Unlock()

	for userID, ch := range snapshot {
		if err := ch.Send(data); err != nil {
			logrus.WithError(err).Warnf("[REGISTRY] Dropping dead channel for user %d", userID)
			r.drop(userID, ch)
		}
	}
}

// HasConnections reports whether any user has a live channel. The sync
// scheduler uses this to skip work with zero listeners.
func (r *Registry) HasConnections() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns) > 0
}

// Count returns the number of live channels.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// drop removes the channel only if it is still current; a replacement that
// happened between the failed send and this call wins.
func (r *Registry) drop(userID int64, ch Channel) {
	r.mu.Lock()
	if current, ok := r.conns[userID]; ok && current == ch {
		delete(r.conns, userID)
	}
	r.mu.Unlock()
	_ = ch.Close()
}
