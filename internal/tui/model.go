package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"agrichat/internal/chatui"
	"agrichat/internal/i18n"
	"agrichat/internal/models"
)

// untranslatedHint marks a catalog language with no interface text of its own.
const untranslatedHint = "%s: English labels"

// Message types for the TUI
type (
	languagesLoadedMsg struct{}
	sessionStartedMsg  struct{ err error }
	historyLoadedMsg   struct{ err error }
	answerMsg          struct {
		pending chatui.Pending
		answer  string
		err     error
	}
)

// Model is the Bubble Tea model around a chatui.State.
type Model struct {
	state   *chatui.State
	testURL string

	// UI components
	title    textinput.Model
	composer textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	ready         bool
	width         int
	height        int
	rendererWidth int
}

// NewModel builds the model. testURL is shown as the backend check link.
func NewModel(state *chatui.State, testURL string) Model {
	snap := state.Snapshot()

	ti := textinput.New()
	ti.SetValue(snap.Title)
	ti.CharLimit = 120
	ti.Focus()

	ta := textarea.New()
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.Prompt = "┃ "
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle
	// Enter sends; Alt+Enter breaks the line.
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = thinkingStyle

	return Model{
		state:    state,
		testURL:  testURL,
		title:    ti,
		composer: ta,
		spinner:  s,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.loadLanguages())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.ready = true
		m.refreshViewport()
		return m, nil

	case languagesLoadedMsg:
		return m, nil

	case sessionStartedMsg:
		if msg.err == nil {
			m.title.Blur()
			m.composer.Reset()
			m.composer.Focus()
			m.resize()
		}
		m.refreshViewport()
		return m, textarea.Blink

	case historyLoadedMsg:
		m.refreshViewport()
		return m, nil

	case answerMsg:
		m.state.CompleteSend(msg.pending, msg.answer, msg.err)
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state.Phase() == chatui.AwaitingAnswer {
			m.refreshViewport()
		}
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.state.Snapshot().Alert != "" {
				m.state.DismissAlert()
				return m, nil
			}
			return m, tea.Quit
		}

		if m.state.Screen() == chatui.SetupScreen {
			return m.updateSetup(msg)
		}
		return m.updateChat(msg)
	}

	if m.state.Screen() == chatui.ChatScreen {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) updateSetup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Left/right stay with the title input for cursor movement.
	switch msg.String() {
	case "up", "shift+tab":
		m.state.CycleLanguage(-1)
		return m, nil
	case "down", "tab":
		m.state.CycleLanguage(1)
		return m, nil
	case "enter":
		if m.state.Snapshot().Starting {
			return m, nil
		}
		m.state.DismissAlert()
		m.state.SetTitle(m.title.Value())
		return m, m.startSession()
	}

	var cmd tea.Cmd
	m.title, cmd = m.title.Update(msg)
	m.state.SetTitle(m.title.Value())
	return m, cmd
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.state.SetInput(m.composer.Value())
		pending, ok := m.state.BeginSend()
		if !ok {
			return m, nil
		}
		m.state.DismissAlert()
		m.composer.Reset()
		m.refreshViewport()
		return m, tea.Batch(m.ask(pending), m.spinner.Tick)
	case "ctrl+r":
		return m, m.fetchHistory()
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	m.state.SetInput(m.composer.Value())
	return m, cmd
}

func (m Model) loadLanguages() tea.Cmd {
	return func() tea.Msg {
		m.state.LoadLanguages(context.Background())
		return languagesLoadedMsg{}
	}
}

func (m Model) startSession() tea.Cmd {
	return func() tea.Msg {
		return sessionStartedMsg{err: m.state.StartSession(context.Background())}
	}
}

func (m Model) fetchHistory() tea.Cmd {
	return func() tea.Msg {
		return historyLoadedMsg{err: m.state.FetchHistory(context.Background())}
	}
}

func (m Model) ask(p chatui.Pending) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.state.Ask(context.Background(), p)
		return answerMsg{pending: p, answer: answer, err: err}
	}
}

// resize lays out the viewport between the chat header and the composer.
func (m *Model) resize() {
	if m.width == 0 {
		return
	}
	m.composer.SetWidth(m.width - 2)
	m.title.Width = min(m.width-10, 60)

	// header(2) + chat header(3) + composer(4) + hint(1) + footer(1) + alert(1)
	h := m.height - 12
	if h < 3 {
		h = 3
	}
	if !m.ready {
		m.viewport = viewport.New(m.width, h)
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = h
	}

	if m.rendererWidth != m.width {
		wrap := m.width*4/5 - 4
		if wrap < 20 {
			wrap = 20
		}
		r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("light"), glamour.WithWordWrap(wrap))
		if err == nil {
			m.renderer = r
			m.rendererWidth = m.width
		}
	}
}

// refreshViewport redraws the message list and scrolls to the bottom.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderMessages(m.state.Snapshot(), m.width, m.renderer, m.spinner.View()))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	snap := m.state.Snapshot()
	text := m.state.Text()

	var sections []string
	sections = append(sections, m.renderHeader(text.CheckBackend))
	if snap.Alert != "" {
		sections = append(sections, alertStyle.Render("⚠ "+snap.Alert+"  (esc)"))
	}

	if snap.Screen == chatui.SetupScreen {
		sections = append(sections, m.renderSetup(snap))
	} else {
		sections = append(sections, m.renderChat(snap))
	}

	sections = append(sections, footerStyle.Width(m.width).Render(text.Footer+" · "+m.testURL))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(checkBackend string) string {
	left := logoStyle.Render("Ag") + " " + appTitleStyle.Render("AI Agri Chatbot")
	right := linkStyle.Render(checkBackend + ": " + m.testURL)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return headerStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderSetup(snap chatui.Snapshot) string {
	text := m.state.Text()

	var langs []string
	for _, l := range snap.Languages {
		if l == snap.Language {
			langs = append(langs, selectedLangStyle.Render(strings.ToUpper(l)))
		} else {
			langs = append(langs, langStyle.Render(strings.ToUpper(l)))
		}
	}
	if len(langs) == 0 {
		langs = append(langs, selectedLangStyle.Render(strings.ToUpper(snap.Language)))
	}
	langRow := strings.Join(langs, " ")
	if !i18n.Has(snap.Language) {
		langRow += "  " + hintStyle.Render(fmt.Sprintf(untranslatedHint, strings.ToUpper(snap.Language)))
	}

	button := buttonStyle.Render(text.StartChat)
	if snap.Starting {
		button = buttonBusyStyle.Render(text.Starting)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		headingStyle.Render(text.GetStarted),
		labelStyle.Render(text.Language+"  ↑/↓"),
		langRow,
		"",
		labelStyle.Render(text.ChatTitle),
		m.title.View(),
		"",
		button,
		"",
		noteStyle.Render(text.Note),
	)
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, cardStyle.Render(body))
}

func (m Model) renderChat(snap chatui.Snapshot) string {
	text := m.state.Text()

	header := lipgloss.JoinVertical(lipgloss.Left,
		chatHeaderSubStyle.Render(fmt.Sprintf("%s · %s", text.Language, strings.ToUpper(snap.Language))),
		appTitleStyle.Render(snap.Title)+"  "+hintStyle.Render("[ctrl+r] "+text.Refresh),
	)

	composer := m.composer
	composer.Placeholder = text.Placeholder
	hint := hintStyle.Render(fmt.Sprintf("enter: %s · alt+enter: ↵ · pgup/pgdown · esc", text.Send))

	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Width(m.width).Render(header),
		m.viewport.View(),
		inputPanelStyle.Width(m.width).Render(composer.View()),
		hint,
	)
}

// renderMessages draws the message list for the viewport.
func renderMessages(snap chatui.Snapshot, width int, renderer *glamour.TermRenderer, spin string) string {
	strs := i18n.For(snap.Language)

	if len(snap.Messages) == 0 && !snap.Sending {
		return welcomeStyle.Width(width).Render("\n" + strs.Welcome + "\n")
	}

	maxWidth := width * 4 / 5
	var b strings.Builder
	for _, msg := range snap.Messages {
		b.WriteString(renderBubble(msg, width, maxWidth, renderer))
		b.WriteString("\n")
	}
	if snap.Sending {
		b.WriteString(assistantBubbleStyle.Render(spin + " " + thinkingStyle.Render(strs.Thinking)))
		b.WriteString("\n")
	}
	return b.String()
}

func renderBubble(msg chatui.Message, width, maxWidth int, renderer *glamour.TermRenderer) string {
	if msg.Role == models.RoleUser {
		bubble := userBubbleStyle.MaxWidth(maxWidth).Render(lipgloss.NewStyle().Width(min(lipgloss.Width(msg.Content), maxWidth-2)).Render(msg.Content))
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble)
	}

	content := msg.Content
	if renderer != nil {
		if out, err := renderer.Render(msg.Content); err == nil {
			content = strings.Trim(out, "\n")
		}
	}
	return assistantBubbleStyle.MaxWidth(maxWidth).Render(content)
}

// Run starts the full-screen program.
func Run(state *chatui.State, testURL string) error {
	p := tea.NewProgram(NewModel(state, testURL), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
