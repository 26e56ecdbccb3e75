package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpoBridgeSend(t *testing.T) {
	var got expoPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b := NewExpoBridge(srv.URL)
	err := b.Send(context.Background(), Push{
		Token:    "ExponentPushToken[abc]",
		Title:    "TrackMate @alice",
		Subtitle: "New announcement for Ridge Loop",
		Body:     "hello",
	})
	require.NoError(t, err)

	assert.Equal(t, "ExponentPushToken[abc]", got.To)
	assert.Equal(t, "default", got.Sound)
	assert.Equal(t, "TrackMate @alice", got.Title)
	assert.Equal(t, "New announcement for Ridge Loop", got.Subtitle)
	assert.Equal(t, "hello", got.Body)
}

func TestExpoBridgeSendGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusBadRequest)
	}))
	defer srv.Close()

	b := NewExpoBridge(srv.URL)
	err := b.Send(context.Background(), Push{Token: "bad", Title: "t", Body: "b"})
	assert.Error(t, err)
}

func TestNewExpoBridgeDefaultEndpoint(t *testing.T) {
	b := NewExpoBridge("")
	assert.Equal(t, DefaultEndpoint, b.endpoint)
}

func TestCleanBody(t *testing.T) {
	assert.Equal(t, "hello", CleanBody("  hello \n"))
	assert.Equal(t, "", CleanBody("   "))

	long := strings.Repeat("x", 300)
	assert.Len(t, CleanBody(long), 200)

	// Cap counts characters, not bytes.
	wide := strings.Repeat("é", 250)
	assert.Equal(t, strings.Repeat("é", 200), CleanBody(wide))
}
