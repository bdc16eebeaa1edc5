package integration_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/NirelNemirovsky/open-deep-research/internal/smoke"
	"github.com/NirelNemirovsky/open-deep-research/pkg/logger"
)

func TestWaitForHTTPAgainstContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	ctx := context.Background()

	// Start a plain web server container
	nginxContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nginx:1.27-alpine",
			ExposedPorts: []string{"80/tcp"},
			WaitingFor:   wait.ForListeningPort("80/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)

	defer func() {
		if err = nginxContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate nginx container: %v", err)
		}
	}()

	host, err := nginxContainer.Host(ctx)
	require.NoError(t, err)

	port, err := nginxContainer.MappedPort(ctx, "80/tcp")
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, port.Port())
	log := logger.New("info", "json", "stdout")
	client := &http.Client{Timeout: 5 * time.Second}

	t.Run("RootIsReady", func(t *testing.T) {
		err := smoke.WaitForHTTP(ctx, client, baseURL+"/", 30*time.Second, time.Second, log)
		require.NoError(t, err)
	})

	t.Run("NotFoundStillCountsAsReady", func(t *testing.T) {
		// nginx answers 404 here; readiness only asks that the server answers
		err := smoke.WaitForHTTP(ctx, client, baseURL+"/docs", 10*time.Second, time.Second, log)
		require.NoError(t, err)
	})
}
