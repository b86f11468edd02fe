// Package chatui is the client-side chat state: setup form, message list and
// composer, independent of how it is drawn.
package chatui

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"agrichat/internal/i18n"
	"agrichat/internal/models"
)

// FallbackLanguages is used when the catalog cannot be fetched.
var FallbackLanguages = []string{"en", "hi"}

type Phase int

const (
	NoSession Phase = iota
	Idle
	AwaitingAnswer
)

func (p Phase) String() string {
	switch p {
	case NoSession:
		return "no_session"
	case Idle:
		return "idle"
	case AwaitingAnswer:
		return "awaiting_answer"
	default:
		return "unknown"
	}
}

type Screen int

const (
	SetupScreen Screen = iota
	ChatScreen
)

// Message is one entry of the displayed list. ID is a local list key only.
type Message struct {
	ID        int
	SessionID string
	Role      string
	Content   string
	Language  string
}

// Backend is the part of the API client the state drives.
type Backend interface {
	Languages(ctx context.Context) ([]string, error)
	StartSession(ctx context.Context, title, language string) (string, error)
	History(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
	Ask(ctx context.Context, sessionID, language, question string) (string, error)
}

// Alerter shows a user-facing failure message.
type Alerter interface {
	Alert(message string)
}

type AlertFunc func(message string)

func (f AlertFunc) Alert(message string) { f(message) }

type Options struct {
	Language string
	Title    string
	Alerter  Alerter
}

// Pending is a question that has been appended locally and still needs an answer.
type Pending struct {
	SessionID string
	Language  string
	Question  string
}

// Snapshot is a read-only copy of the state.
type Snapshot struct {
	Phase     Phase
	Screen    Screen
	Languages []string
	Language  string
	Title     string
	SessionID string
	Input     string
	Messages  []Message
	Starting  bool
	Sending   bool
	Alert     string
}

// State is safe for concurrent use; commands finishing on other goroutines
// update it while the UI reads snapshots.
type State struct {
	mu      sync.Mutex
	backend Backend
	alerter Alerter

	languages []string
	language  string
	title     string
	sessionID string
	input     string
	messages  []Message
	starting  bool
	sending   bool
	alert     string
	nextID    int
}

func New(backend Backend, opts Options) *State {
	return &State{
		backend:  backend,
		alerter:  opts.Alerter,
		language: opts.Language,
		title:    opts.Title,
	}
}

// LoadLanguages fetches the catalog, falling back silently on failure.
func (s *State) LoadLanguages(ctx context.Context) []string {
	codes, err := s.backend.Languages(ctx)
	if err != nil || len(codes) == 0 {
		log.Debug().Err(err).Msg("language catalog unavailable, using fallback")
		codes = FallbackLanguages
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.languages = append([]string(nil), codes...)
	return append([]string(nil), s.languages...)
}

func (s *State) SetLanguage(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = code
}

// CycleLanguage moves the selection by delta through the catalog, wrapping around.
func (s *State) CycleLanguage(delta int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.languages)
	if n == 0 {
		return s.language
	}
	idx := -1
	for i, l := range s.languages {
		if l == s.language {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = 0
		if delta > 0 {
			delta--
		}
	}
	s.language = s.languages[((idx+delta)%n+n)%n]
	return s.language
}

func (s *State) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
}

func (s *State) SetInput(input string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = input
}

// StartSession asks the backend for a session with the selected title and
// language. On success the message list and input are cleared; on failure the
// user is alerted and the state keeps its previous session, if any.
func (s *State) StartSession(ctx context.Context) error {
	s.mu.Lock()
	if s.starting {
		s.mu.Unlock()
		return nil
	}
	s.starting = true
	title, language := s.title, s.language
	s.mu.Unlock()

	id, err := s.backend.StartSession(ctx, title, language)

	s.mu.Lock()
	s.starting = false
	if err != nil {
		text := i18n.For(s.language).StartError
		s.mu.Unlock()
		s.raise(text)
		return errors.Wrap(err, "start session")
	}
	s.sessionID = id
	s.messages = nil
	s.input = ""
	s.mu.Unlock()
	return nil
}

// Resume attaches to a session that already exists on the backend.
func (s *State) Resume(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return errors.New("session id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = sessionID
	s.messages = nil
	s.input = ""
	return nil
}

// FetchHistory replaces the list with the server's history. Failures leave
// the list untouched and raise no alert.
func (s *State) FetchHistory(ctx context.Context) error {
	s.mu.Lock()
	sessionID := s.sessionID
	s.mu.Unlock()
	if sessionID == "" {
		return nil
	}

	history, err := s.backend.History(ctx, sessionID)
	if err != nil {
		log.Debug().Err(err).Str("session_id", sessionID).Msg("history refresh failed")
		return errors.Wrap(err, "fetch history")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	messages := make([]Message, 0, len(history))
	for _, m := range history {
		messages = append(messages, s.newMessage(m.SessionID, m.Role, m.Content, m.Language))
	}
	s.messages = messages
	return nil
}

// BeginSend appends the user's input to the list and clears the composer.
// It reports false, changing nothing, when the input is blank, there is no
// session or an answer is still outstanding.
func (s *State) BeginSend() (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(s.input) == "" || s.sessionID == "" || s.sending {
		return Pending{}, false
	}

	p := Pending{SessionID: s.sessionID, Language: s.language, Question: s.input}
	s.messages = append(s.messages, s.newMessage(p.SessionID, models.RoleUser, p.Question, p.Language))
	s.input = ""
	s.sending = true
	return p, true
}

// Ask sends a pending question to the backend.
func (s *State) Ask(ctx context.Context, p Pending) (string, error) {
	return s.backend.Ask(ctx, p.SessionID, p.Language, p.Question)
}

// CompleteSend records the outcome of a pending question. The user's entry
// stays in the list whatever the outcome.
func (s *State) CompleteSend(p Pending, answer string, err error) {
	s.mu.Lock()
	s.sending = false
	if err != nil {
		text := i18n.For(s.language).SendError
		s.mu.Unlock()
		log.Debug().Err(err).Str("session_id", p.SessionID).Msg("ask failed")
		s.raise(text)
		return
	}
	s.messages = append(s.messages, s.newMessage(p.SessionID, models.RoleAssistant, answer, p.Language))
	s.mu.Unlock()
}

// Send is BeginSend, Ask and CompleteSend in one call.
func (s *State) Send(ctx context.Context) error {
	p, ok := s.BeginSend()
	if !ok {
		return nil
	}
	answer, err := s.Ask(ctx, p)
	s.CompleteSend(p, answer, err)
	return errors.Wrap(err, "send message")
}

// DismissAlert clears the current alert.
func (s *State) DismissAlert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alert = ""
}

func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase()
}

func (s *State) Screen() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen()
}

// Text is the UI string table for the selected language.
func (s *State) Text() i18n.Text {
	s.mu.Lock()
	defer s.mu.Unlock()
	return i18n.For(s.language)
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Phase:     s.phase(),
		Screen:    s.screen(),
		Languages: append([]string(nil), s.languages...),
		Language:  s.language,
		Title:     s.title,
		SessionID: s.sessionID,
		Input:     s.input,
		Messages:  append([]Message(nil), s.messages...),
		Starting:  s.starting,
		Sending:   s.sending,
		Alert:     s.alert,
	}
}

func (s *State) phase() Phase {
	switch {
	case s.sessionID == "":
		return NoSession
	case s.sending:
		return AwaitingAnswer
	default:
		return Idle
	}
}

func (s *State) screen() Screen {
	if s.sessionID == "" {
		return SetupScreen
	}
	return ChatScreen
}

// newMessage must be called with mu held.
func (s *State) newMessage(sessionID, role, content, language string) Message {
	s.nextID++
	return Message{ID: s.nextID, SessionID: sessionID, Role: role, Content: content, Language: language}
}

func (s *State) raise(text string) {
	s.mu.Lock()
	s.alert = text
	s.mu.Unlock()
	if s.alerter != nil {
		s.alerter.Alert(text)
	}
}
