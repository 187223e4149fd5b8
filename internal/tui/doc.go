// Package tui implements the interactive login view: a spinner while the
// browser login runs and a retry/cancel prompt when it times out.
//
// The model never blocks in Update. Attempts run as tea.Cmds against the
// auth orchestrator and report back with attemptDoneMsg.
package tui
