// Package catalog registers stored assets with the backend catalog
// (a single create-record endpoint).
package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/yishe-labs/relay/pkg/models"
)

// Client posts catalog registrations.
type Client struct {
	http *resty.Client
	url  string
}

func NewClient(client *resty.Client, url string) *Client {
	return &Client{http: client, url: url}
}

// Register creates one catalog record for a stored asset.
func (c *Client) Register(ctx context.Context, entry models.CatalogEntry) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(entry).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("catalog returned HTTP %d: %s", resp.StatusCode(), truncate(resp.Body(), 200))
	}

	// Some deployments report failure inside a 200 envelope.
	var envelope struct {
		Code *int   `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err == nil {
		if envelope.Code != nil && *envelope.Code != 0 {
			return fmt.Errorf("catalog rejected entry: code=%d msg=%q", *envelope.Code, envelope.Msg)
		}
	}

	log.Debug().Str("name", entry.Name).Str("url", entry.URL).Msg("catalog entry registered")
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
