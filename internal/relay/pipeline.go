// Package relay applies the fetch -> store -> register stage sequence
// to one discovered item at a time. Stage failures short-circuit; a
// later-stage failure never rolls back an earlier stage, because the
// storage key is deterministic and overwriting it is safe.
package relay

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/yishe-labs/relay/internal/ratelimit"
	"github.com/yishe-labs/relay/internal/retry"
	"github.com/yishe-labs/relay/pkg/models"
)

// Storage is the put-object collaborator: key plus local file in, a
// public-ish retrieval URL out. Uploading the same key twice is safe.
type Storage interface {
	PutFile(ctx context.Context, key, localPath string) (string, error)
}

// Catalog is the backend registration collaborator.
type Catalog interface {
	Register(ctx context.Context, entry models.CatalogEntry) error
}

// Options configures a Pipeline.
type Options struct {
	// SourceTag prefixes storage keys and tags catalog registrations.
	SourceTag string
	// Description goes into catalog registrations verbatim.
	Description string
	// Retry is the transport-level retry policy for fetch and store.
	Retry retry.Config
}

// Pipeline relays one item through fetch, store and register.
type Pipeline struct {
	fetcher *Fetcher
	storage Storage
	catalog Catalog
	limiter ratelimit.RateLimiter
	opts    Options
}

// New assembles a pipeline. The limiter may be nil for unpaced fetches.
func New(fetcher *Fetcher, storage Storage, catalog Catalog, limiter ratelimit.RateLimiter, opts Options) *Pipeline {
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.DefaultConfig()
	}
	return &Pipeline{
		fetcher: fetcher,
		storage: storage,
		catalog: catalog,
		limiter: limiter,
		opts:    opts,
	}
}

// Relay runs the three stages for one item and returns its terminal
// outcome. Relay never returns an error: item-level failures are
// isolated into the outcome and must not abort the batch.
func (p *Pipeline) Relay(ctx context.Context, item models.ItemDescriptor) models.RelayOutcome {
	if item.SourceURL == "" {
		return models.Skipped("no source URL")
	}

	// Stage 1: fetch raw bytes to a temp file.
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, item.SourceURL); err != nil {
			return models.Failed(models.StageFetch, err)
		}
	}

	var tempPath string
	err := retry.WithRetry(ctx, p.opts.Retry, func() error {
		var err error
		tempPath, err = p.fetcher.FetchTemp(ctx, item)
		return err
	})
	if err != nil {
		return models.Failed(models.StageFetch, NewStageError(models.StageFetch, item.SourceURL, err))
	}
	defer os.Remove(tempPath)

	// Stage 2: upload under the deterministic key.
	key := StorageKey(p.opts.SourceTag, item)
	var storageURL string
	err = retry.WithRetry(ctx, p.opts.Retry, func() error {
		var err error
		storageURL, err = p.storage.PutFile(ctx, key, tempPath)
		return err
	})
	if err != nil {
		return models.Failed(models.StageStore, NewStageError(models.StageStore, key, err))
	}

	// Stage 3: register with the catalog.
	entry := models.CatalogEntry{
		URL:         storageURL,
		Name:        item.DisplayName,
		Description: p.opts.Description,
		Source:      p.opts.SourceTag,
		Suffix:      suffixFor(item),
	}
	if err := p.catalog.Register(ctx, entry); err != nil {
		// The asset is durably stored; only the registration is missing.
		return models.Failed(models.StageRegister, NewStageError(models.StageRegister, item.DisplayName, err))
	}

	log.Debug().
		Str("id", item.SourceID).
		Str("storage_url", storageURL).
		Msg("item relayed")

	return models.Uploaded(storageURL)
}

// StorageKey derives the deterministic object key for an item: a stable
// hash of the source identity plus the original extension. Display
// names are never used; they collide and carry unsafe characters.
func StorageKey(sourceTag string, item models.ItemDescriptor) string {
	sum := sha1.Sum([]byte(item.SourceID))
	return sourceTag + "/" + hex.EncodeToString(sum[:]) + extensionFor(item)
}

// extensionFor picks the item's file extension: the content type hint
// first, the URL path second, jpg as the last resort.
func extensionFor(item models.ItemDescriptor) string {
	if hint := strings.TrimPrefix(strings.TrimSpace(item.ContentTypeHint), "."); hint != "" {
		return "." + hint
	}
	if u, err := url.Parse(item.SourceURL); err == nil {
		if ext := path.Ext(u.Path); ext != "" {
			return ext
		}
	}
	return ".jpg"
}

func suffixFor(item models.ItemDescriptor) string {
	return strings.TrimPrefix(extensionFor(item), ".")
}
