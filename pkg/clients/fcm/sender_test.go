package fcm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/mamadbah2/rental/internal/domain/models"
)

func TestSendPostsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/projects/rental-app/messages:send", r.URL.Path)

		var body struct {
			Message struct {
				Token        string            `json:"token"`
				Notification map[string]string `json:"notification"`
				Data         map[string]string `json:"data"`
			} `json:"message"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "device-1", body.Message.Token)
		assert.Equal(t, "Electricity Restored", body.Message.Notification["title"])
		assert.Equal(t, "u1", body.Message.Data["unitId"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"projects/rental-app/messages/42"}`))
	}))
	defer srv.Close()

	sender, err := NewSenderWithOptions(context.Background(), "rental-app",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication())
	require.NoError(t, err)

	name, err := sender.Send(context.Background(), "device-1", models.Notification{
		Title: "Electricity Restored",
		Body:  "on",
		Data:  map[string]string{"unitId": "u1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "projects/rental-app/messages/42", name)
}

func TestSendSurfacesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`))
	}))
	defer srv.Close()

	sender, err := NewSenderWithOptions(context.Background(), "rental-app",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication())
	require.NoError(t, err)

	_, err = sender.Send(context.Background(), "stale", models.Notification{Title: "t"})
	assert.ErrorContains(t, err, "send fcm message")
}

func TestNewSenderRequiresProject(t *testing.T) {
	_, err := NewSenderWithOptions(context.Background(), "", option.WithoutAuthentication())
	assert.Error(t, err)
}
