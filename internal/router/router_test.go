package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agrichat/internal/handlers"
	"agrichat/internal/middleware"
	"agrichat/internal/models"
	"agrichat/internal/repository"
	"agrichat/internal/services"
	"agrichat/internal/websocket"
)

type echoAdvisor struct{}

func (echoAdvisor) Answer(ctx context.Context, req services.AnswerRequest) (string, error) {
	return "answer: " + req.Question, nil
}

func (echoAdvisor) Name() string { return "echo" }

func newTestRouter(t *testing.T, askLimit int) http.Handler {
	t.Helper()
	prompt, err := services.LoadPromptSpec("")
	if err != nil {
		t.Fatalf("failed to load prompt: %v", err)
	}
	store := repository.NewMemoryChatRepo()
	hub := websocket.NewHub(nil, store)
	svc := services.NewChatService(store, echoAdvisor{}, prompt, services.ChatOptions{
		Languages:     []string{"en", "hi", "ta"},
		HistoryWindow: 20,
		Publisher:     hub,
	})
	limiter := middleware.NewRateLimiter(askLimit, time.Minute)
	t.Cleanup(limiter.Stop)

	return New(handlers.NewChatHandler(svc), handlers.NewSystemHandler(svc), limiter, hub, "*")
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_ChatFlow(t *testing.T) {
	h := newTestRouter(t, 30)

	rr := do(t, h, http.MethodGet, "/languages", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("languages: expected 200, got %d", rr.Code)
	}

	rr = do(t, h, http.MethodPost, "/chat/start", map[string]string{"title": "My Farm Chat", "language": "hi"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
	var started models.StartChatResponse
	json.NewDecoder(rr.Body).Decode(&started)

	rr = do(t, h, http.MethodPost, "/chat/ask", map[string]string{"session_id": started.SessionID, "language": "hi", "question": "मिट्टी में कौन सी खाद डालें?"})
	if rr.Code != http.StatusOK {
		t.Fatalf("ask: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var asked models.AskResponse
	json.NewDecoder(rr.Body).Decode(&asked)
	if asked.Answer != "answer: मिट्टी में कौन सी खाद डालें?" {
		t.Fatalf("unexpected answer %q", asked.Answer)
	}

	rr = do(t, h, http.MethodGet, "/chat/"+started.SessionID, nil)
	var history models.HistoryResponse
	json.NewDecoder(rr.Body).Decode(&history)
	if len(history.Messages) != 2 || history.Messages[1].Content != asked.Answer {
		t.Fatalf("unexpected history: %+v", history.Messages)
	}
}

func TestRouter_UnknownSession(t *testing.T) {
	h := newTestRouter(t, 30)

	if rr := do(t, h, http.MethodGet, "/chat/nope", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestRouter_AskIsRateLimited(t *testing.T) {
	h := newTestRouter(t, 1)

	rr := do(t, h, http.MethodPost, "/chat/start", map[string]string{"language": "en"})
	var started models.StartChatResponse
	json.NewDecoder(rr.Body).Decode(&started)

	ask := map[string]string{"session_id": started.SessionID, "question": "hello"}
	if rr := do(t, h, http.MethodPost, "/chat/ask", ask); rr.Code != http.StatusOK {
		t.Fatalf("first ask: expected 200, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/chat/ask", ask); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second ask: expected 429, got %d", rr.Code)
	}
	// History is not limited.
	if rr := do(t, h, http.MethodGet, "/chat/"+started.SessionID, nil); rr.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", rr.Code)
	}
}

func TestRouter_BackendCheck(t *testing.T) {
	h := newTestRouter(t, 30)

	rr := do(t, h, http.MethodGet, "/test", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var st services.Status
	json.NewDecoder(rr.Body).Decode(&st)
	if st.Storage != "memory" || st.LLM != "echo" {
		t.Fatalf("unexpected status: %+v", st)
	}
}
