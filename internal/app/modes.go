package app

import (
	"context"

	"orgctl/internal/auth"
	"orgctl/internal/tui"
	"orgctl/internal/tui/design"
	"orgctl/pkg/logging"
)

// runPlainLogin performs a login without the terminal view. A timeout is not
// retried; the caller reports it and the user runs the command again.
func runPlainLogin(ctx context.Context, services *Services, req auth.Request) (auth.Result, error) {
	logging.Info("CLI", "Waiting up to %s for the browser login of %q", services.Auth.Timeout(), req.Label)
	res, err := services.Auth.Run(ctx, req)
	if res.State == auth.StateTimedOut {
		services.Auth.Cancel()
	}
	return res, err
}

// runInteractiveLogin runs the login with a spinner and a retry/cancel prompt.
func runInteractiveLogin(ctx context.Context, services *Services, req auth.Request) (auth.Result, error) {
	design.Initialize(true)
	return tui.RunLogin(ctx, services.Auth, req)
}
