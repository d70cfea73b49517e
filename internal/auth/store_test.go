package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yishe-labs/relay/pkg/models"
)

func TestTokenStore_RoundTrip(t *testing.T) {
	store := &TokenStore{Dir: t.TempDir()}
	tokens := models.TokenPair{AccessToken: "a", RefreshToken: "r"}

	if err := store.Save("src", tokens); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load("src")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != tokens {
		t.Errorf("Load = %+v, want %+v", got, tokens)
	}
}

func TestTokenStore_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	store := &TokenStore{Dir: dir}
	if err := store.Save("src", models.TokenPair{AccessToken: "a"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "src.json"))
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("token file mode = %o, want 0600", perm)
	}
}

func TestTokenStore_DeleteIsIdempotent(t *testing.T) {
	store := &TokenStore{Dir: t.TempDir()}
	if err := store.Save("src", models.TokenPair{AccessToken: "a"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := store.Delete("src"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete("src"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
	if _, err := store.Load("src"); err == nil {
		t.Error("Load succeeded after Delete")
	}
}

func TestTokenStore_EmptyNameRejected(t *testing.T) {
	store := &TokenStore{Dir: t.TempDir()}
	if err := store.Save("", models.TokenPair{}); err == nil {
		t.Error("Save with empty name succeeded")
	}
	if _, err := store.Load(""); err == nil {
		t.Error("Load with empty name succeeded")
	}
}
