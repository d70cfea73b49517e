// internal/auth/manager.go
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/yishe-labs/relay/pkg/models"
)

// ErrFatalAuth means the refresh token itself was rejected. The batch
// must abort with its checkpoint intact; re-authentication is a manual
// step (relay auth set).
var ErrFatalAuth = errors.New("authentication refresh failed")

// ErrNoTokens means no token pair has been seeded for this source yet.
var ErrNoTokens = errors.New("no stored tokens")

// State of the token lifecycle. There is no retry state: refresh is
// attempted at most once per detected failure.
type State int

const (
	StateValid State = iota
	StateRefreshing
)

type refreshResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"data"`
}

// Manager owns the bearer-token lifecycle for one source. It is the
// only component that mutates the token pair, and only on a successful
// refresh. A Manager is driven by a single orchestrator goroutine.
type Manager struct {
	http       *resty.Client
	store      *TokenStore
	name       string
	refreshURL string
	extra      map[string]string

	state  State
	tokens models.TokenPair
}

// NewManager loads the stored token pair for name and returns a ready
// manager. ErrNoTokens is returned when nothing has been seeded.
func NewManager(client *resty.Client, store *TokenStore, name, refreshURL string, extra map[string]string) (*Manager, error) {
	tokens, err := store.Load(name)
	if err != nil {
		return nil, fmt.Errorf("%w for source %q: %v", ErrNoTokens, name, err)
	}
	return &Manager{
		http:       client,
		store:      store,
		name:       name,
		refreshURL: refreshURL,
		extra:      extra,
		tokens:     tokens,
	}, nil
}

// NewManagerWithTokens builds a manager around an explicit token pair,
// bypassing the store load. Used by tests and by auth seeding.
func NewManagerWithTokens(client *resty.Client, store *TokenStore, name, refreshURL string, extra map[string]string, tokens models.TokenPair) *Manager {
	return &Manager{
		http:       client,
		store:      store,
		name:       name,
		refreshURL: refreshURL,
		extra:      extra,
		tokens:     tokens,
	}
}

// Headers returns the header set for outbound listing requests.
func (m *Manager) Headers() map[string]string {
	headers := make(map[string]string, len(m.extra)+1)
	for k, v := range m.extra {
		headers[k] = v
	}
	headers["Authorization"] = "Bearer " + m.tokens.AccessToken
	return headers
}

// Tokens returns a copy of the current token pair.
func (m *Manager) Tokens() models.TokenPair {
	return m.tokens
}

// HandleUnauthorized runs the Valid -> Refreshing -> Valid transition:
// exactly one refresh attempt against the stored refresh token. On
// success the new pair is persisted durably before control returns, so
// a crash cannot strand valid tokens in memory only. On failure
// ErrFatalAuth is returned and the caller must abort the batch without
// touching the checkpoint.
func (m *Manager) HandleUnauthorized(ctx context.Context) error {
	if m.tokens.RefreshToken == "" {
		return fmt.Errorf("%w: no refresh token stored", ErrFatalAuth)
	}

	m.state = StateRefreshing
	defer func() { m.state = StateValid }()

	log.Info().Str("source", m.name).Msg("access token rejected, refreshing")

	resp, err := m.http.R().
		SetContext(ctx).
		SetQueryParam("refreshToken", m.tokens.RefreshToken).
		Post(m.refreshURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFatalAuth, err)
	}

	var parsed refreshResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return fmt.Errorf("%w: malformed refresh response: %v", ErrFatalAuth, err)
	}
	if resp.StatusCode() >= 400 || parsed.Code != 0 || parsed.Data.AccessToken == "" {
		return fmt.Errorf("%w: refresh endpoint returned code=%d msg=%q http=%d",
			ErrFatalAuth, parsed.Code, parsed.Msg, resp.StatusCode())
	}

	tokens := models.TokenPair{
		AccessToken:  parsed.Data.AccessToken,
		RefreshToken: parsed.Data.RefreshToken,
	}
	if err := m.store.Save(m.name, tokens); err != nil {
		return fmt.Errorf("%w: refreshed but could not persist tokens: %v", ErrFatalAuth, err)
	}
	m.tokens = tokens

	log.Info().Str("source", m.name).Msg("access token refreshed and persisted")
	return nil
}
