// Package notify delivers push notifications to users without ever failing the caller.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/metrics"
	"github.com/mamadbah2/rental/internal/repository"
)

const (
	channelPush     = "fcm"
	channelWhatsApp = "whatsapp"

	defaultTimeout   = 10 * time.Second
	broadcastWorkers = 8
)

// Pusher sends to a device token. *fcm.Sender implements it.
type Pusher interface {
	Send(ctx context.Context, token string, n models.Notification) (string, error)
}

// Texter sends a plain text message to a phone number. *whatsapp.APIClient implements it.
type Texter interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// Notifier is what domain services depend on. NotifyUser returns immediately.
type Notifier interface {
	NotifyUser(ctx context.Context, userID string, n models.Notification)
}

// ErrNoChannel is reported when a user has neither a device token nor a phone number.
var ErrNoChannel = errors.New("no notification channel for user")

// BroadcastResult counts per-recipient outcomes of a broadcast.
type BroadcastResult struct {
	SuccessCount int `json:"successCount"`
	FailureCount int `json:"failureCount"`
}

// Service is the notification dispatcher. Push is preferred; WhatsApp is the fallback.
type Service struct {
	users   repository.Users
	push    Pusher
	text    Texter
	metrics *metrics.Metrics
	logger  *zap.Logger
	timeout time.Duration

	wg sync.WaitGroup
}

// Option customises a Service.
type Option func(*Service)

// WithTimeout bounds each asynchronous delivery.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewService wires the dispatcher. push and text may be nil when the channel is not configured.
func NewService(users repository.Users, push Pusher, text Texter, m *metrics.Metrics, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		users:   users,
		push:    push,
		text:    text,
		metrics: metrics.OrNew(m),
		logger:  logger,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send delivers n to a device token. Failures are logged and reported as false.
func (s *Service) Send(ctx context.Context, token string, n models.Notification) bool {
	if s.push == nil || token == "" {
		s.logger.Debug("push skipped", zap.Bool("push_configured", s.push != nil))
		return false
	}
	if _, err := s.push.Send(ctx, token, n); err != nil {
		s.record(channelPush, false)
		s.logger.Warn("push notification failed", zap.String("title", n.Title), zap.Error(err))
		return false
	}
	s.record(channelPush, true)
	return true
}

// NotifyUser delivers n to userID in the background. The request context only
// contributes its values; cancellation of the request does not stop delivery.
func (s *Service) NotifyUser(ctx context.Context, userID string, n models.Notification) {
	if userID == "" {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		deliveryCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		if err := s.deliver(deliveryCtx, userID, n); err != nil {
			s.logger.Warn("notification not delivered",
				zap.String("user_id", userID),
				zap.String("title", n.Title),
				zap.Error(err))
		}
	}()
}

// Broadcast delivers n to every user concurrently and counts the outcomes.
func (s *Service) Broadcast(ctx context.Context, recipients []models.User, n models.Notification) BroadcastResult {
	var (
		mu     sync.Mutex
		result BroadcastResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(broadcastWorkers)
	for _, user := range recipients {
		g.Go(func() error {
			err := s.deliverTo(gctx, user, n)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.FailureCount++
				s.logger.Warn("broadcast delivery failed", zap.String("user_id", user.ID), zap.Error(err))
				return nil
			}
			result.SuccessCount++
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("broadcast completed",
		zap.String("title", n.Title),
		zap.Int("success", result.SuccessCount),
		zap.Int("failure", result.FailureCount))
	return result
}

// Wait blocks until every background delivery has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) deliver(ctx context.Context, userID string, n models.Notification) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.deliverTo(ctx, *user, n)
}

func (s *Service) deliverTo(ctx context.Context, user models.User, n models.Notification) error {
	var pushErr error
	if s.push != nil && user.FCMToken != "" {
		if _, pushErr = s.push.Send(ctx, user.FCMToken, n); pushErr == nil {
			s.record(channelPush, true)
			return nil
		}
		s.record(channelPush, false)
	}

	if s.text != nil && user.Phone != "" {
		if _, err := s.text.SendText(ctx, user.Phone, n.Title+"\n"+n.Body); err != nil {
			s.record(channelWhatsApp, false)
			return errors.Join(pushErr, err)
		}
		s.record(channelWhatsApp, true)
		return nil
	}

	if pushErr != nil {
		return pushErr
	}
	return ErrNoChannel
}

func (s *Service) record(channel string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	s.metrics.Notifications.WithLabelValues(channel, result).Inc()
}
