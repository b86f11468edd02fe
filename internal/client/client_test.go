package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrichat/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(&config.ClientConfig{BackendURL: srv.URL, Timeout: 5 * time.Second})
}

func TestLanguages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/languages", r.URL.Path)
		w.Write([]byte(`{"languages":["en","hi","ta"]}`))
	})

	codes, err := c.Languages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "hi", "ta"}, codes)
}

func TestLanguages_EmptyIsFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"languages":[]}`))
	})

	_, err := c.Languages(context.Background())
	assert.True(t, errors.Is(err, ErrRequestFailed))
}

func TestStartSession_SendsTitleAndLanguage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/start", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"title": "My Farm Chat", "language": "hi"}, body)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"session_id":"s1"}`))
	})

	id, err := c.StartSession(context.Background(), "My Farm Chat", "hi")
	require.NoError(t, err)
	assert.Equal(t, "s1", id)
}

func TestHistory_DecodesMessages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/s1", r.URL.Path)
		w.Write([]byte(`{"messages":[
			{"session_id":"s1","role":"user","content":"q","language":"hi","created_at":"2024-06-01T10:00:00Z"},
			{"role":"assistant","content":"a","language":"hi"}
		]}`))
	})

	msgs, err := c.History(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, 2024, msgs[0].CreatedAt.Year())
	assert.Equal(t, "a", msgs[1].Content)
	assert.Equal(t, "s1", msgs[1].SessionID)
}

func TestHistory_MissingMessagesIsEmpty(t *testing.T) {
	for _, body := range []string{`{}`, `{"messages":null}`} {
		t.Run(body, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})

			msgs, err := c.History(context.Background(), "s1")
			require.NoError(t, err)
			assert.NotNil(t, msgs)
			assert.Empty(t, msgs)
		})
	}
}

func TestHistory_MalformedMessagesIsFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"messages":"oops"}`))
	})

	_, err := c.History(context.Background(), "s1")
	assert.True(t, errors.Is(err, ErrRequestFailed))
}

func TestAsk(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "s1", body["session_id"])
		assert.Equal(t, "hi", body["language"])
		assert.Equal(t, "मिट्टी में कौन सी खाद डालें?", body["question"])
		w.Write([]byte(`{"answer":"गोबर की खाद"}`))
	})

	answer, err := c.Ask(context.Background(), "s1", "hi", "मिट्टी में कौन सी खाद डालें?")
	require.NoError(t, err)
	assert.Equal(t, "गोबर की खाद", answer)
}

func TestFailuresCollapse(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"bad request", http.StatusBadRequest, `{"error":{"code":"VALIDATION_ERROR","message":"Validation failed"}}`},
		{"not found", http.StatusNotFound, `{"error":{"code":"NOT_FOUND","message":"Chat session not found"}}`},
		{"bad gateway", http.StatusBadGateway, `not json`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			_, err := c.Ask(context.Background(), "s1", "en", "hello")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrRequestFailed))
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(&config.ClientConfig{BackendURL: url, Timeout: time.Second})
	_, err := c.StartSession(context.Background(), "t", "en")
	assert.True(t, errors.Is(err, ErrRequestFailed))
}

func TestTestURL(t *testing.T) {
	c := New(&config.ClientConfig{BackendURL: "http://localhost:8000"})
	assert.Equal(t, "http://localhost:8000/test", c.TestURL())
}
