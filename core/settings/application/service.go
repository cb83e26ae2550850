package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/washday/washday/core/settings/domain"
	"github.com/washday/washday/core/settings/infrastructure"
)

type SettingsService struct {
	repo domain.ISettingsRepository
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{
		repo: infrastructure.NewSettingsGormRepository(db),
	}
}

// DynamicSettings holds the database-stored overrides; a nil field means
// "no override, use the env value".
type DynamicSettings struct {
	SyncIntervalSeconds *int
	PushEnabled         *bool
	DefaultCycleMinutes *int
	Announcement        string
}

func (s *SettingsService) GetDynamicSettings(ctx context.Context) (*DynamicSettings, error) {
	if err := s.repo.InitSchema(ctx); err != nil {
		return nil, err
	}

	ds := &DynamicSettings{}

	if val, _ := s.repo.Get(ctx, domain.KeySyncIntervalSeconds); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			ds.SyncIntervalSeconds = &n
		}
	}
	if val, _ := s.repo.Get(ctx, domain.KeyPushEnabled); val != "" {
		vLower := strings.ToLower(val)
		isOn := vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
		ds.PushEnabled = &isOn
	}
	if val, _ := s.repo.Get(ctx, domain.KeyDefaultCycleMinutes); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			ds.DefaultCycleMinutes = &n
		}
	}
	if val, _ := s.repo.Get(ctx, domain.KeyAnnouncement); val != "" {
		ds.Announcement = val
	}
	return ds, nil
}

func (s *SettingsService) SetSyncInterval(ctx context.Context, seconds int) error {
	if seconds < 1 {
		seconds = 1
	}
	return s.repo.Set(ctx, domain.KeySyncIntervalSeconds, fmt.Sprintf("%d", seconds))
}

func (s *SettingsService) SetPushEnabled(ctx context.Context, enabled bool) error {
	val := "0"
	if enabled {
		val = "1"
	}
	return s.repo.Set(ctx, domain.KeyPushEnabled, val)
}

func (s *SettingsService) SetDefaultCycleMinutes(ctx context.Context, minutes int) error {
	if minutes < 1 {
		minutes = 1
	}
	return s.repo.Set(ctx, domain.KeyDefaultCycleMinutes, fmt.Sprintf("%d", minutes))
}

func (s *SettingsService) SetAnnouncement(ctx context.Context, text string) error {
	return s.repo.Set(ctx, domain.KeyAnnouncement, strings.TrimSpace(text))
}
