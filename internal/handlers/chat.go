package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agrichat/internal/models"
)

type chatService interface {
	Languages() []string
	StartSession(ctx context.Context, req models.StartChatRequest) (*models.ChatSession, error)
	History(ctx context.Context, sessionID string) ([]*models.ChatMessage, error)
	Ask(ctx context.Context, req models.AskRequest) (string, error)
}

type ChatHandler struct {
	chatService chatService
}

func NewChatHandler(chatService chatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Languages handles GET /languages
func (h *ChatHandler) Languages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.LanguagesResponse{Languages: h.chatService.Languages()})
}

// Start handles POST /chat/start
func (h *ChatHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req models.StartChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	session, err := h.chatService.StartSession(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.StartChatResponse{SessionID: session.ID})
}

// History handles GET /chat/{session_id}
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	messages, err := h.chatService.History(r.Context(), sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if messages == nil {
		messages = []*models.ChatMessage{}
	}

	writeJSON(w, http.StatusOK, models.HistoryResponse{Messages: messages})
}

// Ask handles POST /chat/ask
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	answer, err := h.chatService.Ask(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.AskResponse{Answer: answer})
}
