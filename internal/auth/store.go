// internal/auth/store.go
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/yishe-labs/relay/pkg/models"
)

const (
	// KeyringService is the service name for keyring storage
	KeyringService = "relay-cli"
	// FallbackDir is the directory for file-based token storage (when keyring fails)
	FallbackDir = ".relay/tokens"
)

// useFileBasedStorage checks if we should use file-based storage
// This is a fallback for environments where keyring isn't available (Codespaces, CI)
var fileBasedStorageCache *bool

func useFileBasedStorage() bool {
	if fileBasedStorageCache != nil {
		return *fileBasedStorageCache
	}

	if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" {
		result := true
		fileBasedStorageCache = &result
		return true
	}

	testKey := "_test_keyring_access_"
	err := keyring.Set(KeyringService, testKey, "test")
	result := (err != nil)
	fileBasedStorageCache = &result

	if !result {
		keyring.Delete(KeyringService, testKey)
	}

	return result
}

func tokenDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, FallbackDir)
	return dir, os.MkdirAll(dir, 0700)
}

func tokenPath(name string) (string, error) {
	dir, err := tokenDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".json"), nil
}

// TokenStore persists one token pair per source name, in the OS keyring
// when available and a 0600 file otherwise.
type TokenStore struct {
	// Dir overrides the fallback directory; used by tests.
	Dir string
}

func (s *TokenStore) path(name string) (string, error) {
	if s != nil && s.Dir != "" {
		if err := os.MkdirAll(s.Dir, 0700); err != nil {
			return "", err
		}
		return filepath.Join(s.Dir, name+".json"), nil
	}
	return tokenPath(name)
}

func (s *TokenStore) fileBased() bool {
	if s != nil && s.Dir != "" {
		return true
	}
	return useFileBasedStorage()
}

// Save writes a token pair durably. Callers rely on this returning only
// after the tokens are on disk (or in the keyring).
func (s *TokenStore) Save(name string, tokens models.TokenPair) error {
	if name == "" {
		return fmt.Errorf("token store: name cannot be empty")
	}

	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to serialize tokens: %w", err)
	}

	if s.fileBased() {
		path, err := s.path(name)
		if err != nil {
			return fmt.Errorf("failed to get token path: %w", err)
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return fmt.Errorf("failed to save token file: %w", err)
		}
		return nil
	}

	if err := keyring.Set(KeyringService, name, string(data)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return nil
}

// Load returns the stored token pair for the given source name.
func (s *TokenStore) Load(name string) (models.TokenPair, error) {
	var tokens models.TokenPair
	if name == "" {
		return tokens, fmt.Errorf("token store: name cannot be empty")
	}

	var data string
	if s.fileBased() {
		path, err := s.path(name)
		if err != nil {
			return tokens, fmt.Errorf("failed to get token path: %w", err)
		}
		fileData, err := os.ReadFile(path)
		if err != nil {
			return tokens, fmt.Errorf("failed to load token file: %w", err)
		}
		data = string(fileData)
	} else {
		var err error
		data, err = keyring.Get(KeyringService, name)
		if err != nil {
			return tokens, fmt.Errorf("failed to load from keyring: %w", err)
		}
	}

	if err := json.Unmarshal([]byte(data), &tokens); err != nil {
		return tokens, fmt.Errorf("failed to deserialize tokens: %w", err)
	}
	return tokens, nil
}

// Delete removes the stored token pair. Missing entries are not errors.
func (s *TokenStore) Delete(name string) error {
	if name == "" {
		return fmt.Errorf("token store: name cannot be empty")
	}

	if s.fileBased() {
		path, err := s.path(name)
		if err != nil {
			return fmt.Errorf("failed to get token path: %w", err)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete token file: %w", err)
		}
		return nil
	}

	if err := keyring.Delete(KeyringService, name); err != nil && !strings.Contains(err.Error(), "not found") {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}
