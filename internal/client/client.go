// Package client talks to the AgriChat backend over its JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"agrichat/internal/config"
	"agrichat/internal/models"
)

// ErrRequestFailed is returned for every failed call. Transport errors and
// non-2xx statuses are not distinguished.
var ErrRequestFailed = errors.New("request failed")

// maxBody bounds how much of a response is read.
const maxBody = 4 << 20

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(cfg *config.ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    cfg.BackendURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// TestURL is the backend page for checking it by hand.
func (c *Client) TestURL() string { return c.baseURL + "/test" }

// Languages fetches the supported language codes.
func (c *Client) Languages(ctx context.Context) ([]string, error) {
	body, err := c.do(ctx, http.MethodGet, "/languages", nil)
	if err != nil {
		return nil, err
	}

	var codes []string
	gjson.GetBytes(body, "languages").ForEach(func(_, v gjson.Result) bool {
		if v.Type == gjson.String && v.String() != "" {
			codes = append(codes, v.String())
		}
		return true
	})
	if len(codes) == 0 {
		return nil, errors.Wrap(ErrRequestFailed, "GET /languages: no languages in response")
	}
	return codes, nil
}

// StartSession creates a session and returns its id.
func (c *Client) StartSession(ctx context.Context, title, language string) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/chat/start", models.StartChatRequest{Title: title, Language: language})
	if err != nil {
		return "", err
	}

	id := gjson.GetBytes(body, "session_id").String()
	if id == "" {
		return "", errors.Wrap(ErrRequestFailed, "POST /chat/start: no session_id in response")
	}
	return id, nil
}

// History returns the session's messages in server order.
func (c *Client) History(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	body, err := c.do(ctx, http.MethodGet, "/chat/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}

	// A success without a messages array means an empty history.
	messages := gjson.GetBytes(body, "messages")
	if !messages.Exists() || messages.Type == gjson.Null {
		return []models.ChatMessage{}, nil
	}
	if !messages.IsArray() {
		return nil, errors.Wrap(ErrRequestFailed, "GET /chat/{session_id}: malformed messages in response")
	}

	out := make([]models.ChatMessage, 0, len(messages.Array()))
	messages.ForEach(func(_, m gjson.Result) bool {
		msg := models.ChatMessage{
			SessionID: m.Get("session_id").String(),
			Role:      m.Get("role").String(),
			Content:   m.Get("content").String(),
			Language:  m.Get("language").String(),
		}
		if ts := m.Get("created_at"); ts.Exists() {
			msg.CreatedAt = ts.Time()
		}
		if msg.SessionID == "" {
			msg.SessionID = sessionID
		}
		out = append(out, msg)
		return true
	})
	return out, nil
}

// Ask sends a question and returns the answer text.
func (c *Client) Ask(ctx context.Context, sessionID, language, question string) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/chat/ask", models.AskRequest{
		SessionID: sessionID,
		Language:  language,
		Question:  question,
	})
	if err != nil {
		return "", err
	}

	answer := gjson.GetBytes(body, "answer")
	if !answer.Exists() {
		return "", errors.Wrap(ErrRequestFailed, "POST /chat/ask: no answer in response")
	}
	return answer.String(), nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrapf(err, "encode %s %s", method, path)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrapf(ErrRequestFailed, "%s %s: %v", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrRequestFailed, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.Wrapf(ErrRequestFailed, "%s %s: read body: %v", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Wrap(ErrRequestFailed, statusDetail(method, path, resp.StatusCode, body))
	}
	return body, nil
}

func statusDetail(method, path string, status int, body []byte) string {
	detail := fmt.Sprintf("%s %s: status %d", method, path, status)
	if msg := gjson.GetBytes(body, "error.message").String(); msg != "" {
		detail += ": " + msg
	}
	return detail
}
