package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// FCMSender delivers multicast pushes through the Firebase Admin SDK
// (FCM v1 API).
type FCMSender struct {
	client *messaging.Client
}

// NewFCMSender initializes the Firebase app. With an empty credentials file
// the SDK falls back to application default credentials.
func NewFCMSender(ctx context.Context, credentialsFile string) (*FCMSender, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fcm client: %w", err)
	}

	logrus.Info("[PUSH] FCM sender initialized")
	return &FCMSender{client: client}, nil
}

func (s *FCMSender) SendMulticast(ctx context.Context, tokens []string, notification Notification, data map[string]string) (*BatchResult, error) {
	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Body,
		},
		Data: data,
	}

	response, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		SuccessCount: response.SuccessCount,
		FailureCount: response.FailureCount,
	}
	for i, r := range response.Responses {
		if !r.Success && r.Error != nil {
			result.Errors = append(result.Errors, TokenError{
				Token:  truncateToken(tokens[i]),
				Reason: r.Error.Error(),
			})
		}
	}
	return result, nil
}
