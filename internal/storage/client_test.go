package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"

	"github.com/yishe-labs/relay/internal/config"
)

func writeTempAsset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "asset.png")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write temp asset: %v", err)
	}
	return path
}

func TestPutFile_UploadsUnderKey(t *testing.T) {
	var gotMethod, gotPath, gotAuth string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer server.Close()

	c, err := NewClient(resty.New(), config.StorageConfig{
		Endpoint:  server.URL,
		SecretID:  "AKID",
		SecretKey: "secret",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	url, err := c.PutFile(context.Background(), "hyx/abc.png", writeTempAsset(t, "png bytes"))
	if err != nil {
		t.Fatalf("PutFile: %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", gotMethod)
	}
	if gotPath != "/hyx/abc.png" {
		t.Errorf("path = %q, want /hyx/abc.png", gotPath)
	}
	if string(gotBody) != "png bytes" {
		t.Errorf("body = %q", gotBody)
	}
	if url != server.URL+"/hyx/abc.png" {
		t.Errorf("retrieval URL = %q", url)
	}
	if !strings.Contains(gotAuth, "q-ak=AKID") || !strings.Contains(gotAuth, "q-signature=") {
		t.Errorf("Authorization = %q, want a signed header", gotAuth)
	}
}

func TestPutFile_KeyPrefix(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}))
	defer server.Close()

	c, err := NewClient(resty.New(), config.StorageConfig{
		Endpoint:  server.URL,
		KeyPrefix: "/assets/",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := c.PutFile(context.Background(), "hyx/abc.png", writeTempAsset(t, "x")); err != nil {
		t.Fatalf("PutFile: %v", err)
	}
	if gotPath != "/assets/hyx/abc.png" {
		t.Errorf("path = %q, want the trimmed prefix applied", gotPath)
	}
}

func TestPutFile_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c, err := NewClient(resty.New(), config.StorageConfig{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.PutFile(context.Background(), "k", writeTempAsset(t, "x")); err == nil {
		t.Error("PutFile succeeded on HTTP 403")
	}
}

func TestNewClient_DerivesBucketEndpoint(t *testing.T) {
	c, err := NewClient(resty.New(), config.StorageConfig{Bucket: "media-1250000000", Region: "ap-guangzhou"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	want := "https://media-1250000000.cos.ap-guangzhou.myqcloud.com"
	if c.endpoint != want {
		t.Errorf("endpoint = %q, want %q", c.endpoint, want)
	}
}

func TestNewClient_RequiresEndpointOrBucket(t *testing.T) {
	if _, err := NewClient(resty.New(), config.StorageConfig{}); err == nil {
		t.Error("NewClient accepted an empty storage config")
	}
}
