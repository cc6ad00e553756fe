package chatcmder

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultWidth       = 100
	defaultHeight      = 30
	inputCharLimit     = 4000
	chromeHeight       = 4
	minViewportHeight  = 5
	sessionIDShortSize = 8
)

var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)

type (
	replyMsg struct{ resp *turnResponse }
	errMsg   struct{ err error }
)

// chatModel is the Bubble Tea model for the chat interface.
type chatModel struct {
	client    *apiClient
	sessionID string

	input    textinput.Model
	view     viewport.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	transcript *strings.Builder // pointer: bubbletea copies the model on every update
	waiting    bool
	err        error

	width  int
	height int
}

func initialModel(client *apiClient, sessionID string) chatModel {
	input := textinput.New()
	input.Placeholder = "Describe the infrastructure you want..."
	input.Focus()
	input.CharLimit = inputCharLimit
	input.Width = defaultWidth
	input.Prompt = "> "
	input.PromptStyle = promptStyle

	view := viewport.New(defaultWidth, defaultHeight)

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = dimStyle

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(defaultWidth),
	)

	return chatModel{
		client:     client,
		sessionID:  sessionID,
		input:      input,
		view:       view,
		spin:       spin,
		renderer:   renderer,
		transcript: &strings.Builder{},
		width:      defaultWidth,
		height:     defaultHeight,
	}
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.waiting {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			m.err = nil
			m.waiting = true
			m.appendUser(text)
			return m, tea.Batch(m.spin.Tick, m.submit(text))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		m.view.Width = msg.Width
		height := msg.Height - chromeHeight
		if height < minViewportHeight {
			height = minViewportHeight
		}
		m.view.Height = height
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(msg.Width),
		)

	case replyMsg:
		m.waiting = false
		m.appendReply(msg.resp)
		return m, nil

	case errMsg:
		m.waiting = false
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.view, cmd = m.view.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m chatModel) View() string {
	var status string
	switch {
	case m.waiting:
		status = m.spin.View() + dimStyle.Render(" generating configuration...")
	case m.err != nil:
		status = errorStyle.Render("error: " + m.err.Error())
	default:
		status = dimStyle.Render(fmt.Sprintf("session %s - enter to send, esc to quit", shortID(m.sessionID)))
	}

	return fmt.Sprintf("%s\n%s\n%s", m.view.View(), m.input.View(), status)
}

// submit sends the message to the server off the UI thread.
func (m chatModel) submit(text string) tea.Cmd {
	client, sessionID := m.client, m.sessionID
	return func() tea.Msg {
		resp, err := client.submitMessage(sessionID, text)
		if err != nil {
			return errMsg{err: err}
		}
		return replyMsg{resp: resp}
	}
}

func (m *chatModel) appendUser(text string) {
	m.transcript.WriteString(userStyle.Render("You") + ": " + text + "\n\n")
	m.refresh()
}

func (m *chatModel) appendReply(resp *turnResponse) {
	m.transcript.WriteString(botStyle.Render("iclgen") + ":\n")

	switch {
	case resp.ErrorKind != "" && len(resp.ValidationErrors) > 0:
		m.transcript.WriteString(errorStyle.Render(resp.Reply) + "\n")
		for _, fieldErr := range resp.ValidationErrors {
			m.transcript.WriteString(errorStyle.Render("  "+fieldErr.Path+": "+fieldErr.Message) + "\n")
		}
	case resp.ErrorKind != "":
		m.transcript.WriteString(errorStyle.Render(resp.Reply) + "\n")
	default:
		m.transcript.WriteString(m.renderMarkdown(resp.Reply))
	}

	m.transcript.WriteString("\n")
	m.refresh()
}

// renderMarkdown renders the assistant reply (prose plus fenced YAML) for the
// terminal, falling back to plain text if rendering fails.
func (m *chatModel) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text + "\n"
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

func (m *chatModel) refresh() {
	m.view.SetContent(m.transcript.String())
	m.view.GotoBottom()
}

func shortID(id string) string {
	if len(id) <= sessionIDShortSize {
		return id
	}
	return id[:sessionIDShortSize]
}
