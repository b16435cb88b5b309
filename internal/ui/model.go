// Package ui is a terminal viewer for the retrieval pipeline: the same
// password gate, candidate list and links as the web map.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yusukeinoue-jpg/lime-tool/internal/auth"
	"github.com/yusukeinoue-jpg/lime-tool/internal/mapview"
	"github.com/yusukeinoue-jpg/lime-tool/internal/models"
	"github.com/yusukeinoue-jpg/lime-tool/internal/retrieval"
)

// AppState represents the current state of the application
type AppState int

const (
	StateLogin   AppState = iota // Waiting for the shared secret
	StateLoading                 // Pipeline running
	StateList                    // Candidate list
	StateDetail                  // One candidate with its links
	StateEmpty                   // Nothing to retrieve
	StateError                   // Error state
)

// Options wires a Model
type Options struct {
	Gate     *auth.Gate
	Pipeline *retrieval.Service
	Builder  *mapview.Builder
	Labels   mapview.Labels
	Ports    []models.ReferencePort
	Snapshot SnapshotOpener
}

// Model represents the application's state
type Model struct {
	state  AppState
	width  int
	height int
	err    error

	// Gate
	passwordInput textinput.Model
	loginError    string
	session       *auth.Session

	opts    Options
	spinner spinner.Model

	// Results
	page          *mapview.Page
	candidateList list.Model
	selected      *mapview.Entry
	problem       string
}

// NewModel creates a new application model
func NewModel(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = opts.Labels.Password()
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 40

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return Model{
		state:         StateLogin,
		passwordInput: ti,
		session:       auth.NewSession(opts.Ports),
		opts:          opts,
		spinner:       s,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	// Handle window size
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		if m.state == StateList {
			m.candidateList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil
	}

	switch msg := msg.(type) {
	case errMsg:
		m.err = msg.err
		m.state = StateError
		return m, nil

	case resultMsg:
		return m.handleResult(msg.result), nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		// Global quit; "q" is a valid password character so it only quits after login
		if keyMsg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if keyMsg.String() == "q" && m.state != StateLogin && !m.filtering() {
			return m, tea.Quit
		}

		switch m.state {
		case StateLogin:
			return m.handleLogin(keyMsg)

		case StateList:
			return m.handleList(msg)

		case StateDetail:
			if keyMsg.Type == tea.KeyEsc || keyMsg.Type == tea.KeyBackspace {
				m.selected = nil
				m.state = StateList
			}
			return m, nil
		}
		return m, nil
	}

	switch m.state {
	case StateLoading:
		m.spinner, cmd = m.spinner.Update(msg)
	case StateLogin:
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	case StateList:
		m.candidateList, cmd = m.candidateList.Update(msg)
	}

	return m, cmd
}

func (m Model) filtering() bool {
	return m.state == StateList && m.candidateList.FilterState() == list.Filtering
}

// handleLogin checks the password on Enter. A wrong entry can be retried.
func (m Model) handleLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type != tea.KeyEnter {
		var cmd tea.Cmd
		m.passwordInput, cmd = m.passwordInput.Update(msg)
		return m, cmd
	}

	if !m.opts.Gate.Check(m.passwordInput.Value()) {
		m.loginError = m.opts.Labels.WrongPassword()
		m.passwordInput.SetValue("")
		return m, nil
	}

	m.session.Authenticated = true
	m.loginError = ""
	m.passwordInput.Blur()
	m.state = StateLoading
	return m, tea.Batch(m.spinner.Tick, runPipeline(m.opts.Pipeline, m.opts.Snapshot, m.session.Ports))
}

// handleResult turns the tagged pipeline outcome into a screen
func (m Model) handleResult(res retrieval.Result) Model {
	switch res.Status {
	case retrieval.StatusEmpty:
		m.state = StateEmpty
	case retrieval.StatusError:
		m.problem = m.opts.Labels.Problem(string(res.Kind), res.Message)
		m.state = StateError
	default:
		page := m.opts.Builder.Build(res.Matches, m.opts.Labels)
		m.page = &page
		m.candidateList = createCandidateList(page.Entries, m.opts.Labels.ListTitle(), max(m.width-4, 20), max(m.height-8, 10))
		m.state = StateList
	}
	return m
}

func (m Model) handleList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && !m.filtering() {
		if item, ok := m.candidateList.SelectedItem().(candidateItem); ok {
			entry := item.entry
			m.selected = &entry
			m.state = StateDetail
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.candidateList, cmd = m.candidateList.Update(msg)
	return m, cmd
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.state {
	case StateLogin:
		return m.viewLogin()
	case StateLoading:
		return fmt.Sprintf("\n %s %s\n", m.spinner.View(), mutedStyle.Render("..."))
	case StateList:
		return m.viewList()
	case StateDetail:
		return m.viewDetail()
	case StateEmpty:
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(m.opts.Labels.Title()), "",
			successStyle.Render(m.opts.Labels.Empty()), "",
			helpStyle.Render("Q: Quit"))
	case StateError:
		return m.viewError()
	}

	return ""
}

func (m Model) viewLogin() string {
	sections := []string{
		titleStyle.Render(m.opts.Labels.Title()),
		"",
		inputBoxStyle.Render(m.passwordInput.View()),
	}
	if m.loginError != "" {
		sections = append(sections, "", errorStyle.Render("✗ "+m.loginError))
	}
	sections = append(sections, helpStyle.Render("Enter: "+m.opts.Labels.Login()+" • Ctrl+C: Quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewList() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.opts.Labels.Title()),
		bannerStyle.Render(m.page.Banner),
		"",
		m.candidateList.View(),
	)
}

func (m Model) viewDetail() string {
	if m.selected == nil {
		return "No vehicle selected"
	}
	e := m.selected

	var b strings.Builder
	b.WriteString(vehicleStyle.Render("🚗 "+e.Header) + "\n\n")
	b.WriteString(portStyle.Render("📍 "+e.Nearest) + "\n\n")
	b.WriteString(labelStyle.Render(m.opts.Labels.AdminButton()) + "\n")
	b.WriteString(linkStyle.Render(e.AdminURL) + "\n")
	if e.RouteURL != "" {
		b.WriteString("\n" + labelStyle.Render(m.opts.Labels.RouteButton()) + "\n")
		b.WriteString(linkStyle.Render(e.RouteURL) + "\n")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		sectionBoxStyle.Render(b.String()),
		helpStyle.Render("Esc: Back • Q: Quit"),
	)
}

func (m Model) viewError() string {
	msg := m.problem
	if m.err != nil {
		msg = m.err.Error()
	}
	if msg == "" {
		msg = "An unknown error occurred"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		errorStyle.Render("✗ Error"),
		"",
		msg,
		"",
		helpStyle.Render("Q: Quit"),
	)
}
