package serve

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/browser"
)

// openBrowser opens the specified URL in the user's default browser.
func openBrowser(url string) error {
	return browser.OpenURL(url)
}

// waitForServer polls the health endpoint until the server is ready or timeout.
func waitForServer(url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	healthURL := url + "/health"
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for server to start")

		case <-ticker.C:
			resp, err := http.Get(healthURL)
			if err == nil && resp.StatusCode == http.StatusOK {
				resp.Body.Close()
				return nil
			}
			if resp != nil {
				resp.Body.Close()
			}
		}
	}
}
