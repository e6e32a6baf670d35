package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/rental/internal/domain/models"
	"github.com/mamadbah2/rental/internal/metrics"
	"github.com/mamadbah2/rental/internal/repository/memory"
)

type fakePusher struct {
	mu    sync.Mutex
	sent  []string
	fails map[string]bool
}

func (f *fakePusher) Send(_ context.Context, token string, _ models.Notification) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails[token] {
		return "", errors.New("registration-token-not-registered")
	}
	f.sent = append(f.sent, token)
	return "projects/p/messages/1", nil
}

type fakeTexter struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeTexter) SendText(_ context.Context, to, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	return "wamid", nil
}

func seedUsers(t *testing.T, users ...models.User) *memory.Users {
	t.Helper()
	store := memory.NewStore()
	for _, u := range users {
		u := u
		require.NoError(t, store.Users.Create(context.Background(), &u))
	}
	return store.Users.(*memory.Users)
}

func TestNotifyUserPrefersPushThenFallsBackToWhatsApp(t *testing.T) {
	users := seedUsers(t,
		models.User{ID: "t1", FCMToken: "tok-1", Phone: "111"},
		models.User{ID: "t2", FCMToken: "stale", Phone: "222"},
		models.User{ID: "t3", Phone: "333"},
	)
	push := &fakePusher{fails: map[string]bool{"stale": true}}
	text := &fakeTexter{}
	m := metrics.New()
	svc := NewService(users, push, text, m, nil)

	for _, id := range []string{"t1", "t2", "t3"} {
		svc.NotifyUser(context.Background(), id, models.Notification{Title: "Rent", Body: "due"})
	}
	svc.Wait()

	assert.Equal(t, []string{"tok-1"}, push.sent)
	assert.ElementsMatch(t, []string{"222", "333"}, text.sent)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("fcm", "failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Notifications.WithLabelValues("whatsapp", "success")))
}

func TestNotifyUserFailureIsLoggedNotReturned(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	users := seedUsers(t, models.User{ID: "t1", FCMToken: "stale"})
	svc := NewService(users, &fakePusher{fails: map[string]bool{"stale": true}}, nil, nil, zap.New(core))

	svc.NotifyUser(context.Background(), "t1", models.Notification{Title: "Electricity Restored"})
	svc.Wait()

	entries := logs.FilterMessage("notification not delivered").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "t1", entries[0].ContextMap()["user_id"])
}

func TestNotifyUserSurvivesCancelledRequest(t *testing.T) {
	users := seedUsers(t, models.User{ID: "t1", FCMToken: "tok"})
	push := &fakePusher{}
	svc := NewService(users, push, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	svc.NotifyUser(ctx, "t1", models.Notification{Title: "x"})
	cancel()
	svc.Wait()

	assert.Equal(t, []string{"tok"}, push.sent)
}

func TestNotifyUserWithoutChannel(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	users := seedUsers(t, models.User{ID: "t1"})
	svc := NewService(users, nil, nil, nil, zap.New(core))

	svc.NotifyUser(context.Background(), "t1", models.Notification{Title: "x"})
	svc.NotifyUser(context.Background(), "", models.Notification{Title: "ignored"})
	svc.Wait()

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], ErrNoChannel.Error())
}

func TestBroadcastCountsOutcomes(t *testing.T) {
	svc := NewService(nil, &fakePusher{fails: map[string]bool{"bad": true}}, nil, nil, nil)

	result := svc.Broadcast(context.Background(), []models.User{
		{ID: "a", FCMToken: "ok-a"},
		{ID: "b", FCMToken: "bad"},
		{ID: "c", FCMToken: "ok-c"},
		{ID: "d"},
	}, models.Notification{Title: "Water cut", Body: "10am-2pm"})

	assert.Equal(t, BroadcastResult{SuccessCount: 2, FailureCount: 2}, result)
}

func TestSendReportsDelivery(t *testing.T) {
	svc := NewService(nil, &fakePusher{fails: map[string]bool{"bad": true}}, nil, nil, nil)

	assert.True(t, svc.Send(context.Background(), "good", models.Notification{Title: "t"}))
	assert.False(t, svc.Send(context.Background(), "bad", models.Notification{Title: "t"}))
	assert.False(t, svc.Send(context.Background(), "", models.Notification{Title: "t"}))
}
