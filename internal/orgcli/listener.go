package orgcli

import (
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"orgctl/pkg/logging"
)

// For mocking in tests
var killProcess = func(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}

// ParseListenerPID extracts the pid from port-lookup output: the second
// whitespace-separated field of the second line (the first line is the header).
func ParseListenerPID(output string) (int, bool) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) < 2 {
		return 0, false
	}
	fields := strings.Fields(lines[1])
	if len(fields) < 2 {
		return 0, false
	}
	pid, err := strconv.Atoi(fields[1])
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// KillListener terminates whatever process holds the local callback port.
// A stuck login from an earlier attempt keeps the port bound and makes the next
// `org login web` hang, so this runs before every login and after every abort.
func (g *Gateway) KillListener(port int) {
	res := g.runner.Run(g.portLookupPath(), []string{"-i", fmt.Sprintf(":%d", port)})
	if res.LaunchErr != nil {
		logging.Warn("CLIGateway", "Port lookup for %d could not run: %v", port, res.LaunchErr)
		return
	}

	pid, ok := ParseListenerPID(res.Output)
	if !ok {
		logging.Debug("CLIGateway", "No process bound to port %d", port)
		return
	}

	if err := killProcess(pid); err != nil {
		logging.Error("CLIGateway", err, "Failed to terminate process %d on port %d", pid, port)
		return
	}
	logging.Info("CLIGateway", "Terminated process %d bound to port %d", pid, port)
}
