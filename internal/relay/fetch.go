// internal/relay/fetch.go
package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yishe-labs/relay/internal/retry"
	"github.com/yishe-labs/relay/pkg/models"
)

// Fetcher streams raw asset bytes to a temp file. It deliberately uses
// a bare net/http client: assets can be large and the relay never needs
// the body in memory.
type Fetcher struct {
	client    *http.Client
	userAgent string
	tempDir   string
}

// NewFetcher creates a Fetcher. An empty tempDir falls back to the OS
// temp directory.
func NewFetcher(timeout time.Duration, userAgent, tempDir string) *Fetcher {
	if userAgent == "" {
		userAgent = "Relay/1.0 (https://github.com/yishe-labs/relay)"
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Fetcher{
		client:    client,
		userAgent: userAgent,
		tempDir:   tempDir,
	}
}

// FetchTemp downloads the item's bytes into a temp file and returns its
// path. The caller owns the file and must remove it on every exit path.
func (f *Fetcher) FetchTemp(ctx context.Context, item models.ItemDescriptor) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.SourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("build asset request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("asset request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", retry.NewHTTPError(resp.StatusCode, resp.Status, item.SourceURL)
	}

	tmp, err := os.CreateTemp(f.tempDir, "relay-*"+extensionFor(item))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	written, err := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("stream asset to disk: %w", err)
	}
	if closeErr != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("flush temp file: %w", closeErr)
	}

	log.Debug().
		Str("url", item.SourceURL).
		Str("file", tmp.Name()).
		Int64("bytes", written).
		Msg("asset fetched")

	return tmp.Name(), nil
}
