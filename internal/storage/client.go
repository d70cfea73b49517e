// Package storage provides the authenticated put-object client the
// relay uploads assets through. The wire shape is a plain HTTP PUT with
// COS-style HMAC-SHA1 request signing; the bucket endpoint serves the
// uploaded object back under the same key.
package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/yishe-labs/relay/internal/config"
	"github.com/yishe-labs/relay/internal/retry"
)

// Client uploads objects to a bucket endpoint and returns retrieval
// URLs. Overwriting an existing key is safe and expected: the relay's
// keys are deterministic per source identity.
type Client struct {
	http      *resty.Client
	endpoint  string
	secretID  string
	secretKey string
	keyPrefix string
}

// NewClient builds a put-object client from the storage config.
func NewClient(client *resty.Client, cfg config.StorageConfig) (*Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.Bucket == "" || cfg.Region == "" {
			return nil, fmt.Errorf("storage: endpoint or bucket+region required")
		}
		endpoint = fmt.Sprintf("https://%s.cos.%s.myqcloud.com", cfg.Bucket, cfg.Region)
	}
	return &Client{
		http:      client,
		endpoint:  strings.TrimRight(endpoint, "/"),
		secretID:  cfg.SecretID,
		secretKey: cfg.SecretKey,
		keyPrefix: strings.Trim(cfg.KeyPrefix, "/"),
	}, nil
}

// PutFile uploads the local file under key and returns its retrieval
// URL.
func (c *Client) PutFile(ctx context.Context, key, localPath string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read upload source: %w", err)
	}

	fullKey := key
	if c.keyPrefix != "" {
		fullKey = c.keyPrefix + "/" + key
	}
	objectURL := c.endpoint + "/" + fullKey

	req := c.http.R().
		SetContext(ctx).
		SetBody(data).
		SetHeader("Content-Type", "application/octet-stream")
	if c.secretID != "" {
		req.SetHeader("Authorization", c.sign("put", "/"+fullKey))
	}

	resp, err := req.Put(objectURL)
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", fullKey, err)
	}
	if resp.StatusCode() >= 400 {
		return "", retry.NewHTTPError(resp.StatusCode(), resp.Status(), fullKey)
	}

	log.Debug().
		Str("key", fullKey).
		Int("bytes", len(data)).
		Msg("object stored")

	return objectURL, nil
}

// sign builds a COS-style Authorization header: a keyed HMAC-SHA1 over
// the method, path and a short validity window.
func (c *Client) sign(method, path string) string {
	now := time.Now().Unix()
	keyTime := fmt.Sprintf("%d;%d", now-60, now+3600)

	signKey := hmacSHA1(c.secretKey, keyTime)
	httpString := fmt.Sprintf("%s\n%s\n\n\n", method, path)
	stringToSign := fmt.Sprintf("sha1\n%s\n%s\n", keyTime, sha1Hex(httpString))
	signature := hmacSHA1(signKey, stringToSign)

	return strings.Join([]string{
		"q-sign-algorithm=sha1",
		"q-ak=" + c.secretID,
		"q-sign-time=" + keyTime,
		"q-key-time=" + keyTime,
		"q-header-list=",
		"q-url-param-list=",
		"q-signature=" + signature,
	}, "&")
}

func hmacSHA1(key, msg string) string {
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
