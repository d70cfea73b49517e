// Package source defines the seam between the relay pipeline and
// site-specific listing logic. A Source turns one page of a remote
// listing into ItemDescriptors; everything downstream is site-agnostic.
package source

import (
	"context"

	"github.com/yishe-labs/relay/pkg/models"
)

// TotalUnknown marks sources that cannot report a listing total up
// front (e.g. plain HTML galleries). The orchestrator then terminates
// on the first empty page instead of on a count.
const TotalUnknown = -1

// Page is one fetched slice of the remote listing.
type Page struct {
	Items []models.ItemDescriptor
	Total int
}

// Source fetches one page of item descriptors at a time.
//
// Implementations must treat an auth-failure signal themselves (refresh
// once, retry the same page once) and surface auth.ErrFatalAuth when
// recovery fails. Any other error is page-level: the caller aborts the
// run with its checkpoint intact and retries on the next invocation.
type Source interface {
	// Name is the stable source tag used for checkpoint scoping,
	// storage key prefixes and catalog registration.
	Name() string

	// FetchPage fetches the page identified by cursor. A nil window
	// means an unscoped listing; a non-nil window is forwarded
	// verbatim to the remote endpoint.
	FetchPage(ctx context.Context, cursor models.PageCursor, window *models.TimeWindow) (*Page, error)
}
