package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"agrichat/internal/models"
	"agrichat/internal/repository"
)

const (
	defaultTitle   = "New chat"
	maxTitleRunes  = 120
	maxQuestionLen = 4000
)

// ChatStore is the persistence the chat service needs.
type ChatStore interface {
	CreateSession(ctx context.Context, s *models.ChatSession) error
	GetSession(ctx context.Context, id string) (*models.ChatSession, error)
	AppendMessages(ctx context.Context, msgs ...*models.ChatMessage) error
	ListMessages(ctx context.Context, sessionID string, limit int) ([]*models.ChatMessage, error)
	Ping(ctx context.Context) error
	Driver() string
}

type ChatOptions struct {
	Languages     []string
	HistoryWindow int
	// Cache and Publisher are optional.
	Cache     AnswerCache
	Publisher UpdatePublisher
}

type ChatService struct {
	store         ChatStore
	advisor       Advisor
	prompt        *PromptSpec
	languages     []string
	historyWindow int
	cache         AnswerCache
	publisher     UpdatePublisher
	newID         func() string
}

func NewChatService(store ChatStore, advisor Advisor, prompt *PromptSpec, opts ChatOptions) *ChatService {
	return &ChatService{
		store:         store,
		advisor:       advisor,
		prompt:        prompt,
		languages:     append([]string(nil), opts.Languages...),
		historyWindow: opts.HistoryWindow,
		cache:         opts.Cache,
		publisher:     opts.Publisher,
		newID:         uuid.NewString,
	}
}

// Languages returns the supported language codes in configured order.
func (s *ChatService) Languages() []string {
	return append([]string(nil), s.languages...)
}

func (s *ChatService) supports(code string) bool {
	for _, l := range s.languages {
		if l == code {
			return true
		}
	}
	return false
}

func (s *ChatService) StartSession(ctx context.Context, req models.StartChatRequest) (*models.ChatSession, error) {
	language := strings.ToLower(strings.TrimSpace(req.Language))
	if !s.supports(language) {
		return nil, &ValidationError{Fields: map[string]string{"language": "Unsupported language"}}
	}

	session := &models.ChatSession{
		ID:       s.newID(),
		Title:    normalizeTitle(req.Title),
		Language: language,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	log.Info().Str("session_id", session.ID).Str("language", language).Msg("chat session started")
	return session, nil
}

func normalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return defaultTitle
	}
	if utf8.RuneCountInString(title) > maxTitleRunes {
		title = string([]rune(title)[:maxTitleRunes])
	}
	return title
}

func (s *ChatService) getSession(ctx context.Context, id string) (*models.ChatSession, error) {
	session, err := s.store.GetSession(ctx, id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, &NotFoundError{Message: "Chat session not found"}
	}
	return session, err
}

// History returns every message of the session, oldest first.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]*models.ChatMessage, error) {
	if _, err := s.getSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, sessionID, 0)
}

// Ask answers a question and records the exchange. Nothing is stored when the
// model fails, so history never holds a question without its answer.
func (s *ChatService) Ask(ctx context.Context, req models.AskRequest) (string, error) {
	question := strings.TrimSpace(req.Question)
	fields := map[string]string{}
	if question == "" {
		fields["question"] = "Question is required"
	} else if utf8.RuneCountInString(question) > maxQuestionLen {
		fields["question"] = fmt.Sprintf("Question must be at most %d characters", maxQuestionLen)
	}
	if strings.TrimSpace(req.SessionID) == "" {
		fields["session_id"] = "Session ID is required"
	}
	if len(fields) > 0 {
		return "", &ValidationError{Fields: fields}
	}

	session, err := s.getSession(ctx, req.SessionID)
	if err != nil {
		return "", err
	}

	language := strings.ToLower(strings.TrimSpace(req.Language))
	if language == "" {
		language = session.Language
	}
	if !s.supports(language) {
		return "", &ValidationError{Fields: map[string]string{"language": "Unsupported language"}}
	}

	history, err := s.store.ListMessages(ctx, session.ID, s.historyWindow)
	if err != nil {
		return "", err
	}

	answer, cached := s.cachedAnswer(ctx, history, language, question)
	if !cached {
		answer, err = s.advisor.Answer(ctx, AnswerRequest{
			SystemPrompt: s.prompt.SystemPrompt(language),
			History:      history,
			Question:     question,
		})
		if err != nil {
			var busy *RateLimitError
			if errors.As(err, &busy) {
				log.Warn().Str("session_id", session.ID).Str("advisor", s.advisor.Name()).Msg("advisor busy")
				return "", busy
			}
			log.Error().Err(err).Str("session_id", session.ID).Str("advisor", s.advisor.Name()).Msg("advisor failed")
			return "", &UpstreamError{Message: "Failed to get AI response", Err: err}
		}
		if len(history) == 0 && s.cache != nil {
			if err := s.cache.Set(ctx, language, question, answer); err != nil {
				log.Warn().Err(err).Msg("failed to cache answer")
			}
		}
	}

	userMsg := &models.ChatMessage{SessionID: session.ID, Role: models.RoleUser, Content: question, Language: language}
	assistantMsg := &models.ChatMessage{SessionID: session.ID, Role: models.RoleAssistant, Content: answer, Language: language}
	if err := s.store.AppendMessages(ctx, userMsg, assistantMsg); err != nil {
		return "", err
	}

	s.publish(ctx, userMsg, assistantMsg)
	return answer, nil
}

// cachedAnswer only applies to the first question of a session; later answers depend on history.
func (s *ChatService) cachedAnswer(ctx context.Context, history []*models.ChatMessage, language, question string) (string, bool) {
	if s.cache == nil || len(history) > 0 {
		return "", false
	}
	answer, ok, err := s.cache.Get(ctx, language, question)
	if err != nil {
		log.Warn().Err(err).Msg("answer cache lookup failed")
		return "", false
	}
	return answer, ok
}

func (s *ChatService) publish(ctx context.Context, msgs ...*models.ChatMessage) {
	if s.publisher == nil {
		return
	}
	for _, m := range msgs {
		if err := s.publisher.Publish(ctx, m.SessionID, models.WSMessage{Type: models.WSMessageAppended, Payload: m}); err != nil {
			log.Warn().Err(err).Str("session_id", m.SessionID).Msg("failed to publish chat update")
			return
		}
	}
}

// Status reports what the backend is wired to, for the manual check page.
type Status struct {
	Status    string   `json:"status"`
	Storage   string   `json:"storage"`
	LLM       string   `json:"llm"`
	Languages []string `json:"languages"`
}

func (s *ChatService) Status(ctx context.Context) Status {
	st := Status{
		Status:    "ok",
		Storage:   s.store.Driver(),
		LLM:       s.advisor.Name(),
		Languages: s.Languages(),
	}
	if err := s.store.Ping(ctx); err != nil {
		st.Status = "degraded"
		st.Storage += ": " + err.Error()
	}
	return st
}
