package integration_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NirelNemirovsky/open-deep-research/internal/smoke"
	"github.com/NirelNemirovsky/open-deep-research/pkg/logger"
)

const nginxSmokeDockerfile = `FROM nginx:1.27-alpine
RUN printf 'server { listen 2024; location / { return 200 "ok"; } }\n' > /etc/nginx/conf.d/default.conf
EXPOSE 2024
`

// TestDockerSmokeRun drives the full runner against the host docker daemon:
// build, start, poll, tear down. The build context is self-contained in a
// temp directory so the test leaves no state behind beyond the usual
// image/container names it removes itself.
func TestDockerSmokeRun(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	if os.Getenv("RUN_DOCKER_SMOKE") == "" {
		t.Skip("Skipping docker smoke run; set RUN_DOCKER_SMOKE=1 to enable")
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(nginxSmokeDockerfile), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "env.example"), []byte("DEV_USER_ID=smoke\n"), 0o600))

	opts := smoke.Options{
		Image:         fmt.Sprintf("open-deep-research-smoke-it:%d", time.Now().Unix()),
		ContainerName: "open-deep-research-smoke-it",
		Port:          2024,
		ContextDir:    dir,
		EnvFile:       filepath.Join(dir, ".env"),
		EnvTemplate:   filepath.Join(dir, "env.example"),
		Interval:      time.Second,
		ProbeTimeout:  5 * time.Second,
		Probes: []smoke.Probe{
			{Path: "/", Deadline: 60 * time.Second},
			{Path: "/docs", Deadline: 15 * time.Second},
		},
	}

	log := logger.New("info", "json", "stdout")
	runner := smoke.NewRunner(opts, nil, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	require.NoError(t, runner.Run(ctx))
}
