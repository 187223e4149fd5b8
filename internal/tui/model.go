package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"orgctl/internal/auth"
	"orgctl/internal/tui/design"
	"orgctl/pkg/logging"
)

const maxActivityLines = 4

// LoginRunner is the part of the auth orchestrator the view drives.
type LoginRunner interface {
	Run(ctx context.Context, req auth.Request) (auth.Result, error)
	Retry(ctx context.Context) (auth.Result, error)
	Cancel()
	Timeout() time.Duration
}

type attemptDoneMsg struct {
	result auth.Result
	err    error
}

type activityMsg logging.LogEntry

// LoginModel is the bubbletea model of one interactive login.
type LoginModel struct {
	ctx     context.Context
	runner  LoginRunner
	request auth.Request
	keys    KeyMap
	spinner spinner.Model

	state    auth.State
	result   auth.Result
	err      error
	started  time.Time
	attempts int
	activity []string
	quitting bool
}

// NewLoginModel creates the view for req. The first attempt starts from Init.
func NewLoginModel(ctx context.Context, r LoginRunner, req auth.Request) LoginModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = design.SpinnerStyle

	return LoginModel{
		ctx:     ctx,
		runner:  r,
		request: req,
		keys:    DefaultKeyMap(),
		spinner: s,
		state:   auth.StateRunning,
	}
}

// Init implements tea.Model.
func (m LoginModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start(false))
}

func (m *LoginModel) start(retry bool) tea.Cmd {
	m.state = auth.StateRunning
	m.started = time.Now()
	m.attempts++
	m.err = nil

	ctx, r, req := m.ctx, m.runner, m.request
	return func() tea.Msg {
		var (
			res auth.Result
			err error
		)
		if retry {
			res, err = r.Retry(ctx)
		} else {
			res, err = r.Run(ctx, req)
		}
		return attemptDoneMsg{result: res, err: err}
	}
}

// Update implements tea.Model.
func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case attemptDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = msg.result.State
		if m.state == auth.StateTimedOut {
			return m, nil
		}
		// Validation failures come back as Idle; treat them as the end of the view.
		m.quitting = true
		return m, tea.Quit

	case activityMsg:
		line := fmt.Sprintf("%s: %s", msg.Subsystem, msg.Message)
		m.activity = append(m.activity, line)
		if len(m.activity) > maxActivityLines {
			m.activity = m.activity[len(m.activity)-maxActivityLines:]
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m LoginModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case auth.StateTimedOut:
		switch {
		case key.Matches(msg, m.keys.Retry):
			cmd := m.start(true)
			return m, tea.Batch(m.spinner.Tick, cmd)
		case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Quit):
			m.runner.Cancel()
			m.state = auth.StateCancelled
			m.result.State = auth.StateCancelled
			m.err = auth.ErrCancelled
			m.quitting = true
			return m, tea.Quit
		}
	case auth.StateRunning:
		if key.Matches(msg, m.keys.Cancel) || key.Matches(msg, m.keys.Quit) {
			// The running attempt returns Cancelled and quits through attemptDoneMsg.
			m.runner.Cancel()
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m LoginModel) View() string {
	var b strings.Builder
	alias := m.result.Alias
	if alias == "" {
		alias = m.request.Label
	}

	switch m.state {
	case auth.StateRunning, auth.StateValidating:
		elapsed := time.Since(m.started).Truncate(time.Second)
		fmt.Fprintf(&b, "%s Waiting for browser login to %s %s\n",
			m.spinner.View(),
			design.TitleStyle.Render(alias),
			design.TextSecondaryStyle.Render(fmt.Sprintf("(%s of %s)", elapsed, m.runner.Timeout())))
		if m.attempts > 1 {
			b.WriteString(design.TextSecondaryStyle.Render(fmt.Sprintf("Attempt %d", m.attempts)) + "\n")
		}
		b.WriteString(m.help(m.keys.Cancel))

	case auth.StateTimedOut:
		b.WriteString(design.TextWarningStyle.Render(fmt.Sprintf("Login to %s timed out.", alias)) + "\n")
		b.WriteString("The callback listener was stopped. The login may still have completed in the browser.\n")
		b.WriteString(m.help(m.keys.Retry, m.keys.Cancel))

	case auth.StateSucceeded:
		b.WriteString(design.TextSuccessStyle.Render(fmt.Sprintf("Logged in to %s.", alias)) + "\n")

	case auth.StateCancelled:
		b.WriteString(design.TextSecondaryStyle.Render("Login cancelled.") + "\n")

	default:
		msg := "Login failed."
		if m.err != nil {
			msg = fmt.Sprintf("Login failed: %v", m.err)
		}
		b.WriteString(design.TextErrorStyle.Render(msg) + "\n")
	}

	if len(m.activity) > 0 && !m.quitting {
		b.WriteString("\n")
		for _, line := range m.activity {
			b.WriteString(design.TextSecondaryStyle.Render(line) + "\n")
		}
	}
	return b.String()
}

func (m LoginModel) help(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, design.KeyStyle.Render(h.Key)+" "+h.Desc)
	}
	return design.TextSecondaryStyle.Render(strings.Join(parts, "  ")) + "\n"
}

// State returns the view's current login state.
func (m LoginModel) State() auth.State {
	return m.state
}

// Outcome returns the final result and error.
func (m LoginModel) Outcome() (auth.Result, error) {
	return m.result, m.err
}
