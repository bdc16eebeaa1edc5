package smoke

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// CommandRunner executes external commands on behalf of the smoke runner.
// The abstraction keeps the docker CLI out of unit tests.
type CommandRunner interface {
	// Run executes the named command and returns its combined output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands through os/exec, capturing combined output.
type ExecRunner struct {
	logger *logrus.Logger
}

// NewExecRunner creates a runner that executes commands on the host.
func NewExecRunner(log *logrus.Logger) *ExecRunner {
	return &ExecRunner{logger: log}
}

// Run executes the command, honoring context cancellation, and returns the
// combined stdout and stderr.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()

	entry := r.logger.WithFields(logrus.Fields{
		"command":  name + " " + strings.Join(args, " "),
		"duration": time.Since(start).String(),
	})
	if err != nil {
		entry.WithError(err).Debug("Command failed")
	} else {
		entry.Debug("Command completed")
	}

	return output, err
}
