package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPusher struct {
	calls int
}

func (r *recordingPusher) Push(_ context.Context, _ string, _ string, _ *Payload) error {
	r.calls++
	return nil
}

func TestRouterDispatchesByPlatform(t *testing.T) {
	telegram := &recordingPusher{}
	router := NewRouter()
	router.Register("telegram", telegram)

	err := router.Push(context.Background(), "12345", "telegram", &Payload{Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, 1, telegram.calls)
}

func TestRouterUnknownPlatform(t *testing.T) {
	router := NewRouter()
	err := router.Push(context.Background(), "12345", "carrier-pigeon", &Payload{})
	assert.Error(t, err)
}

func TestWebhookPusherPostsPayload(t *testing.T) {
	var received Payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	pusher := NewWebhookPusher(0)
	payload := &Payload{
		Title:          "Sam's birthday is coming up",
		Body:           "3 days away",
		MilestoneName:  "Sam's birthday",
		LeadDays:       3,
		OccurrenceDate: "2025-06-10",
	}
	require.NoError(t, pusher.Push(context.Background(), server.URL, "webhook", payload))
	assert.Equal(t, *payload, received)
}

func TestWebhookPusherNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	pusher := NewWebhookPusher(0)
	err := pusher.Push(context.Background(), server.URL, "webhook", &Payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
