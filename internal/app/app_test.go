package app

import (
	"path/filepath"
	"testing"
)

func TestGalleryStatePathsAreIsolatedPerGallery(t *testing.T) {
	dir := t.TempDir()

	aState, aAudit := galleryStatePaths(dir, "sunsets")
	bState, bAudit := galleryStatePaths(dir, "skylines")

	if aState == bState {
		t.Error("galleries share a checkpoint file")
	}
	if aAudit == bAudit {
		t.Error("galleries share an audit log")
	}
	if aState == aAudit {
		t.Error("checkpoint and audit log collide")
	}
	if want := filepath.Join(dir, "gallery-sunsets.json"); aState != want {
		t.Errorf("state path = %q, want %q", aState, want)
	}
	if want := filepath.Join(dir, "gallery-sunsets.log"); aAudit != want {
		t.Errorf("audit path = %q, want %q", aAudit, want)
	}
}
