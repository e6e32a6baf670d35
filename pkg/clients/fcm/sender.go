// Package fcm sends push notifications through Firebase Cloud Messaging.
package fcm

import (
	"context"
	"errors"
	"fmt"

	fcmapi "google.golang.org/api/fcm/v1"
	"google.golang.org/api/option"

	"github.com/mamadbah2/rental/internal/config"
	"github.com/mamadbah2/rental/internal/domain/models"
)

const messagingScope = "https://www.googleapis.com/auth/firebase.messaging"

// Sender delivers a notification to one device token.
type Sender struct {
	service *fcmapi.Service
	parent  string
}

// NewSender builds a sender authenticated with the service account file from cfg.
func NewSender(ctx context.Context, cfg config.FirebaseConfig) (*Sender, error) {
	return NewSenderWithOptions(ctx, cfg.ProjectID,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(messagingScope))
}

// NewSenderWithOptions builds a sender with explicit client options.
func NewSenderWithOptions(ctx context.Context, projectID string, opts ...option.ClientOption) (*Sender, error) {
	if projectID == "" {
		return nil, errors.New("firebase project id must not be empty")
	}

	service, err := fcmapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fcm client: %w", err)
	}

	return &Sender{service: service, parent: "projects/" + projectID}, nil
}

// Send pushes n to the device identified by token and returns the message name.
func (s *Sender) Send(ctx context.Context, token string, n models.Notification) (string, error) {
	req := &fcmapi.SendMessageRequest{
		Message: &fcmapi.Message{
			Token: token,
			Notification: &fcmapi.Notification{
				Title: n.Title,
				Body:  n.Body,
			},
			Data: n.Data,
		},
	}

	msg, err := s.service.Projects.Messages.Send(s.parent, req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("send fcm message: %w", err)
	}
	return msg.Name, nil
}
