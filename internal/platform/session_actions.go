package platform

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"uctl/internal/config"
)

// SessionActions runs the user-overridable session/system commands (lock,
// shutdown, reboot, suspend, hibernate). Commands launch detached; their
// outcome is not observed, these are fire-and-forget by nature.
type SessionActions struct {
	mu       sync.Mutex
	commands config.SessionCommands
	start    commandStarter
	logger   *slog.Logger
}

type commandStarter func(name string, args ...string) error

func NewSessionActions(commands config.SessionCommands, logger *slog.Logger) *SessionActions {
	if logger == nil {
		logger = slog.Default().With("component", "platform.session")
	}

	return &SessionActions{
		commands: commands,
		start:    startCommandDetached,
		logger:   logger,
	}
}

// ApplyCommands swaps the configured command lines after a settings save.
func (s *SessionActions) ApplyCommands(commands config.SessionCommands) {
	s.mu.Lock()
	s.commands = commands
	s.mu.Unlock()
}

func (s *SessionActions) Lock() error      { return s.run("lock") }
func (s *SessionActions) Shutdown() error  { return s.run("shutdown") }
func (s *SessionActions) Reboot() error    { return s.run("reboot") }
func (s *SessionActions) Suspend() error   { return s.run("suspend") }
func (s *SessionActions) Hibernate() error { return s.run("hibernate") }

func (s *SessionActions) commandLine(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case "lock":
		return s.commands.Lock
	case "shutdown":
		return s.commands.Shutdown
	case "reboot":
		return s.commands.Reboot
	case "suspend":
		return s.commands.Suspend
	case "hibernate":
		return s.commands.Hibernate
	default:
		return ""
	}
}

func (s *SessionActions) run(name string) error {
	fields := strings.Fields(s.commandLine(name))
	if len(fields) == 0 {
		return fmt.Errorf("no command configured for %s", name)
	}

	s.logger.Info("running session action", "action", name, "command", fields[0])
	if err := s.start(fields[0], fields[1:]...); err != nil {
		s.logger.Warn("session action failed to start", "action", name, "error", err)

		return fmt.Errorf("%s: %s: %w", name, fields[0], err)
	}

	return nil
}

func startCommandDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)

	return cmd.Start()
}
