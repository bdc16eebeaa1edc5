package smoke

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// WaitForHTTP polls url with GET requests until one returns a status below
// 500; any such response counts as readiness, including 4xx, because it
// proves the server is up and routing. Connection errors and 5xx responses
// keep the loop going. When the deadline passes, a TimeoutError carrying
// the last observed failure is returned. At least one attempt is always
// made, even with a deadline of zero.
func WaitForHTTP(
	ctx context.Context,
	client *http.Client,
	url string,
	deadline, interval time.Duration,
	log *logrus.Logger,
) error {
	deadlineAt := time.Now().Add(deadline)

	var lastErr error
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to build probe request for %s: %w", url, err)
		}

		resp, err := client.Do(req)
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()

			if resp.StatusCode < http.StatusInternalServerError {
				log.WithFields(logrus.Fields{
					"url":     url,
					"status":  resp.StatusCode,
					"attempt": attempt,
				}).Info("Endpoint ready")
				return nil
			}
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
		} else {
			lastErr = err
		}

		if time.Now().After(deadlineAt) {
			return &TimeoutError{URL: url, Deadline: deadline, LastErr: lastErr}
		}

		log.WithFields(logrus.Fields{
			"url":     url,
			"attempt": attempt,
		}).Debug("Endpoint not ready yet")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
