package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"orgctl/internal/auth"
	"orgctl/pkg/logging"
)

// RunLogin runs the interactive login view until the attempt ends. Log entries
// are shown under the spinner while it runs; the caller should keep the text
// logger off the terminal.
func RunLogin(ctx context.Context, r LoginRunner, req auth.Request, opts ...tea.ProgramOption) (auth.Result, error) {
	m := NewLoginModel(ctx, r, req)
	p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)

	logging.SetSink(func(e logging.LogEntry) {
		if e.Level >= logging.LevelInfo {
			p.Send(activityMsg(e))
		}
	})
	defer logging.SetSink(nil)

	final, err := p.Run()
	if err != nil {
		r.Cancel()
		logging.Error("TUI", err, "Login view stopped")
		return auth.Result{State: auth.StateCancelled}, fmt.Errorf("login view: %w", err)
	}
	lm, ok := final.(LoginModel)
	if !ok {
		return auth.Result{}, fmt.Errorf("unexpected model type %T", final)
	}
	return lm.Outcome()
}
