package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"

	"github.com/yishe-labs/relay/pkg/models"
)

func newTestManager(t *testing.T, refreshURL string) (*Manager, *TokenStore) {
	t.Helper()
	store := &TokenStore{Dir: t.TempDir()}
	tokens := models.TokenPair{AccessToken: "old-access", RefreshToken: "old-refresh"}
	if err := store.Save("test-source", tokens); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}
	return NewManagerWithTokens(resty.New(), store, "test-source", refreshURL, nil, tokens), store
}

func TestHandleUnauthorized_Success(t *testing.T) {
	var gotRefreshToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("refresh used method %s, want POST", r.Method)
		}
		gotRefreshToken = r.URL.Query().Get("refreshToken")
		fmt.Fprint(w, `{"code":0,"data":{"accessToken":"new-access","refreshToken":"new-refresh"}}`)
	}))
	defer server.Close()

	mgr, store := newTestManager(t, server.URL)

	if err := mgr.HandleUnauthorized(context.Background()); err != nil {
		t.Fatalf("HandleUnauthorized: %v", err)
	}

	if gotRefreshToken != "old-refresh" {
		t.Errorf("refresh sent token %q, want %q", gotRefreshToken, "old-refresh")
	}
	if mgr.Tokens().AccessToken != "new-access" {
		t.Errorf("in-memory access token = %q, want new-access", mgr.Tokens().AccessToken)
	}

	// The new pair must be on disk, not only in memory.
	saved, err := store.Load("test-source")
	if err != nil {
		t.Fatalf("load saved tokens: %v", err)
	}
	if saved.AccessToken != "new-access" || saved.RefreshToken != "new-refresh" {
		t.Errorf("persisted pair = %+v, want the refreshed pair", saved)
	}
}

func TestHandleUnauthorized_RejectedRefreshIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":401,"msg":"refresh token expired"}`)
	}))
	defer server.Close()

	mgr, store := newTestManager(t, server.URL)

	err := mgr.HandleUnauthorized(context.Background())
	if !errors.Is(err, ErrFatalAuth) {
		t.Fatalf("HandleUnauthorized = %v, want ErrFatalAuth", err)
	}

	// A failed refresh must not touch the stored pair.
	saved, loadErr := store.Load("test-source")
	if loadErr != nil {
		t.Fatalf("load tokens: %v", loadErr)
	}
	if saved.AccessToken != "old-access" {
		t.Errorf("stored access token changed to %q after failed refresh", saved.AccessToken)
	}
}

func TestHandleUnauthorized_HTTPErrorIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"code":401}`)
	}))
	defer server.Close()

	mgr, _ := newTestManager(t, server.URL)

	if err := mgr.HandleUnauthorized(context.Background()); !errors.Is(err, ErrFatalAuth) {
		t.Fatalf("HandleUnauthorized = %v, want ErrFatalAuth", err)
	}
}

func TestHandleUnauthorized_NoRefreshToken(t *testing.T) {
	store := &TokenStore{Dir: t.TempDir()}
	mgr := NewManagerWithTokens(resty.New(), store, "test-source", "http://unused.invalid",
		nil, models.TokenPair{AccessToken: "access-only"})

	if err := mgr.HandleUnauthorized(context.Background()); !errors.Is(err, ErrFatalAuth) {
		t.Fatalf("HandleUnauthorized = %v, want ErrFatalAuth without a refresh token", err)
	}
}

func TestHeaders_IncludesBearerAndExtras(t *testing.T) {
	store := &TokenStore{Dir: t.TempDir()}
	mgr := NewManagerWithTokens(resty.New(), store, "test-source", "",
		map[string]string{"X-Tenant-Id": "1"},
		models.TokenPair{AccessToken: "abc"})

	h := mgr.Headers()
	if h["Authorization"] != "Bearer abc" {
		t.Errorf("Authorization = %q, want Bearer abc", h["Authorization"])
	}
	if h["X-Tenant-Id"] != "1" {
		t.Errorf("extra header missing: %v", h)
	}
}

func TestNewManager_NoStoredTokens(t *testing.T) {
	store := &TokenStore{Dir: t.TempDir()}
	_, err := NewManager(resty.New(), store, "unseeded", "", nil)
	if !errors.Is(err, ErrNoTokens) {
		t.Fatalf("NewManager = %v, want ErrNoTokens", err)
	}
}
