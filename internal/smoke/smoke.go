// Package smoke drives the container smoke test: it materializes the env
// file, builds the docker image, starts the container, and polls the
// service endpoints until they respond. Resources acquired along the way
// are released when the run ends, whether it succeeded or not.
package smoke

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Probe describes a single HTTP readiness probe run against the container.
type Probe struct {
	// Path is the request path probed on the container.
	Path string
	// Deadline is the total time allowed for this probe to succeed.
	Deadline time.Duration
}

// Options configures a smoke run.
type Options struct {
	// Image is the tag applied to the docker build and started afterwards.
	Image string
	// ContainerName is the fixed name given to the started container.
	ContainerName string
	// Port is the container port published to the same host port.
	Port int
	// BaseURL overrides the probed address. When empty, probes target
	// http://localhost:PORT.
	BaseURL string
	// ContextDir is the docker build context directory.
	ContextDir string
	// EnvFile is the env file handed to the container.
	EnvFile string
	// EnvTemplate is the template copied to EnvFile when it does not exist.
	EnvTemplate string
	// Interval is the pause between readiness probe attempts.
	Interval time.Duration
	// ProbeTimeout is the per-request timeout for readiness probes.
	ProbeTimeout time.Duration
	// Probes is the ordered sequence of readiness probes to run.
	Probes []Probe
}

// DefaultOptions returns the options used by the shipped smoke binary:
// build the repository image, start it on port 2024, and wait for the
// health and docs endpoints to come up.
func DefaultOptions() Options {
	return Options{
		Image:         "open-deep-research:test",
		ContainerName: "open-deep-research-test",
		Port:          2024,
		ContextDir:    ".",
		EnvFile:       ".env",
		EnvTemplate:   "env.example",
		Interval:      2 * time.Second,
		ProbeTimeout:  5 * time.Second,
		Probes: []Probe{
			{Path: "/health", Deadline: 90 * time.Second},
			{Path: "/docs", Deadline: 30 * time.Second},
		},
	}
}

// Runner executes container smoke runs.
type Runner struct {
	opts   Options
	cmd    CommandRunner
	client *http.Client
	logger *logrus.Logger
}

// NewRunner creates a smoke runner. A nil cmd falls back to executing
// docker through os/exec.
func NewRunner(opts Options, cmd CommandRunner, log *logrus.Logger) *Runner {
	if cmd == nil {
		cmd = NewExecRunner(log)
	}

	return &Runner{
		opts:   opts,
		cmd:    cmd,
		client: &http.Client{Timeout: opts.ProbeTimeout},
		logger: log,
	}
}

// BaseURL returns the address probes are sent to.
func (r *Runner) BaseURL() string {
	if r.opts.BaseURL != "" {
		return strings.TrimSuffix(r.opts.BaseURL, "/")
	}
	return fmt.Sprintf("http://localhost:%d", r.opts.Port)
}

// Run performs one full smoke run. Teardown happens exactly once per call
// and covers only the resources that were actually created: a failed build
// releases nothing, while a failed container start still removes the built
// image. The container is removed before the image so the image is never
// busy when it is untagged.
func (r *Runner) Run(ctx context.Context) error {
	log := r.logger.WithFields(logrus.Fields{
		"run_id":    uuid.NewString(),
		"image":     r.opts.Image,
		"container": r.opts.ContainerName,
	})

	// The env file must be in place before any docker work starts.
	created, err := EnsureEnvFile(r.opts.EnvFile, r.opts.EnvTemplate, r.logger)
	if err != nil {
		return err
	}
	if created {
		log.WithField("env_file", r.opts.EnvFile).Info("Env file created from template")
	}

	var releases []func()
	defer func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}()

	// Teardown must run even when the surrounding context is already
	// canceled or expired.
	teardownCtx := context.WithoutCancel(ctx)

	log.Info("Building image")
	buildArgs := []string{"build", "-t", r.opts.Image, r.opts.ContextDir}
	if out, buildErr := r.cmd.Run(ctx, "docker", buildArgs...); buildErr != nil {
		return &ToolchainError{
			Step:    "build",
			Command: commandLine(buildArgs),
			Output:  string(out),
			Err:     buildErr,
		}
	}
	releases = append(releases, func() {
		r.release(teardownCtx, "rmi", r.opts.Image)
	})

	// Best-effort removal of a container left over from a previous run.
	if out, rmErr := r.cmd.Run(ctx, "docker", "rm", "-f", r.opts.ContainerName); rmErr != nil {
		log.WithField("output", strings.TrimSpace(string(out))).Debug("No leftover container to remove")
	}

	log.Info("Starting container")
	runArgs := []string{
		"run", "-d",
		"--name", r.opts.ContainerName,
		"--env-file", r.opts.EnvFile,
		"-p", fmt.Sprintf("%d:%d", r.opts.Port, r.opts.Port),
		r.opts.Image,
	}
	if out, runErr := r.cmd.Run(ctx, "docker", runArgs...); runErr != nil {
		return &ToolchainError{
			Step:    "run",
			Command: commandLine(runArgs),
			Output:  string(out),
			Err:     runErr,
		}
	}
	releases = append(releases, func() {
		r.release(teardownCtx, "rm", "-f", r.opts.ContainerName)
	})

	for _, probe := range r.opts.Probes {
		url := r.BaseURL() + probe.Path
		log.WithFields(logrus.Fields{
			"url":      url,
			"deadline": probe.Deadline.String(),
		}).Info("Waiting for endpoint")

		if waitErr := WaitForHTTP(ctx, r.client, url, probe.Deadline, r.opts.Interval, r.logger); waitErr != nil {
			return waitErr
		}
	}

	log.Info("Smoke run succeeded")
	return nil
}

// release removes a docker resource, swallowing errors: teardown is best
// effort and must not mask the run's outcome.
func (r *Runner) release(ctx context.Context, args ...string) {
	if out, err := r.cmd.Run(ctx, "docker", args...); err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"args":   strings.Join(args, " "),
			"output": strings.TrimSpace(string(out)),
		}).Warn("Teardown command failed")
	}
}

// commandLine formats a docker invocation for error reporting.
func commandLine(args []string) string {
	return "docker " + strings.Join(args, " ")
}
