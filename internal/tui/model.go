// Package tui is the interactive question-answering terminal UI.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Reality-Web-Services/rag-sqlite/internal/rag"
)

// QueryPort is the TUI-facing subset of the RAG processor.
type QueryPort interface {
	Query(ctx context.Context, question string, k int) (*rag.QueryResult, error)
}

// Model is the Bubble Tea model for the query UI.
type Model struct {
	service  QueryPort
	topK     int
	input    textinput.Model
	viewport viewport.Model
	status   string
	ready    bool
}

// New creates a new TUI model instance.
func New(service QueryPort, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		topK:     topK,
		input:    ti,
		viewport: vp,
		status:   "Ready. Ctrl+C to exit.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header + status + query box + spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.status = "Thinking..."
			result, err := m.service.Query(context.Background(), question, m.topK)
			if err != nil {
				// Upstream failures degrade to a message instead of
				// crashing the session.
				m.status = "Error processing query: " + err.Error()
				m.viewport.SetContent("")
				return m, nil
			}
			m.status = fmt.Sprintf("Answered %q with %d sources", question, len(result.Sources))
			m.viewport.SetContent(renderResult(result))
			m.input.SetValue("")
			return m, nil
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("RAG Query")
	result := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + result + "\n" + input + "\n" + status
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	answerStyle    = lipgloss.NewStyle().Bold(true)
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func renderResult(result *rag.QueryResult) string {
	var sb strings.Builder
	sb.WriteString(answerStyle.Render("Answer"))
	sb.WriteString("\n\n")
	sb.WriteString(result.Answer)

	if len(result.Sources) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(answerStyle.Render("Sources"))
		sb.WriteString("\n")
		for _, src := range result.Sources {
			header := "Section"
			if h, ok := src.Metadata["header"].(string); ok && h != "" {
				header = h
			}
			sb.WriteString(sourceStyle.Render(fmt.Sprintf("\n- From %s (score: %.2f):", header, src.Score)))
			sb.WriteString("\n  ")
			sb.WriteString(snippet(src.Text, 200))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= n {
		return text
	}
	return text[:n] + "..."
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
