// Package app provides the core application initialization and lifecycle management.
package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yishe-labs/relay/internal/auth"
	"github.com/yishe-labs/relay/internal/catalog"
	"github.com/yishe-labs/relay/internal/checkpoint"
	"github.com/yishe-labs/relay/internal/config"
	"github.com/yishe-labs/relay/internal/notify"
	"github.com/yishe-labs/relay/internal/ratelimit"
	"github.com/yishe-labs/relay/internal/relay"
	"github.com/yishe-labs/relay/internal/runner"
	"github.com/yishe-labs/relay/internal/source/htmlpage"
	"github.com/yishe-labs/relay/internal/source/paged"
	"github.com/yishe-labs/relay/internal/storage"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	HTTP        *resty.Client
	TokenStore  *auth.TokenStore
	RateLimiter ratelimit.RateLimiter
	Notifier    *notify.Notifier
	startTime   time.Time
}

// New creates and initializes a new Application with all dependencies:
// logging per the config, the shared resty transport, the token store,
// the per-host rate limiter and the webhook notifier. Batch components
// (auth manager, walker, pipeline, checkpoint, runner) are composed per
// run via BuildRunner, because each run owns its own checkpoint and
// auth session.
func New(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logLevel := zerolog.InfoLevel
	switch cfg.LogLevel {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	var logWriter io.Writer
	if cfg.JSONLog {
		logWriter = os.Stderr
	} else {
		logWriter = zerolog.NewConsoleWriter()
	}
	logger := log.Output(logWriter).With().Timestamp().Logger()
	log.Logger = logger

	httpClient := resty.New().
		SetTimeout(cfg.HTTPTimeout).
		SetHeader("User-Agent", cfg.UserAgent)

	rateLimiter := ratelimit.NewHostLimiter(cfg.AssetRateLimitRPS, cfg.AssetRateLimitBurst)

	logger.Debug().
		Dur("timeout", cfg.HTTPTimeout).
		Float64("asset_rps", cfg.AssetRateLimitRPS).
		Msg("application initialized")

	return &Application{
		Config:      cfg,
		Logger:      &logger,
		HTTP:        httpClient,
		TokenStore:  &auth.TokenStore{},
		RateLimiter: rateLimiter,
		Notifier:    notify.New(httpClient, cfg.WebhookURL),
		startTime:   time.Now(),
	}, nil
}

// AuthManager builds the auth session manager for the configured
// source from the stored token pair.
func (a *Application) AuthManager() (*auth.Manager, error) {
	cfg := a.Config
	if cfg.SourceBaseURL == "" {
		return nil, fmt.Errorf("source base URL is not configured")
	}
	if cfg.SourceTag == "" {
		return nil, fmt.Errorf("source tag is not configured")
	}
	return auth.NewManager(
		a.HTTP,
		a.TokenStore,
		cfg.SourceTag,
		cfg.SourceBaseURL+cfg.RefreshPath,
		cfg.ExtraHeaders,
	)
}

// BuildRunner composes one batch: walker, relay pipeline, checkpoint
// store and orchestrator for the configured paginated source.
func (a *Application) BuildRunner(showProgress bool) (*runner.Runner, error) {
	cfg := a.Config

	mgr, err := a.AuthManager()
	if err != nil {
		return nil, err
	}

	walker := paged.New(a.HTTP, mgr, cfg.SourceTag, cfg.SourceBaseURL+cfg.ListPath, nil)

	store, err := checkpoint.Open(cfg.CheckpointPath, cfg.AuditLogPath, cfg.PageSize)
	if err != nil {
		return nil, err
	}

	objectStore, err := storage.NewClient(a.HTTP, cfg.Storage)
	if err != nil {
		return nil, err
	}

	pipeline := relay.New(
		relay.NewFetcher(cfg.HTTPTimeout, cfg.UserAgent, ""),
		objectStore,
		catalog.NewClient(a.HTTP, cfg.CatalogURL),
		a.RateLimiter,
		relay.Options{
			SourceTag:   cfg.SourceTag,
			Description: cfg.SourceTag + " asset",
		},
	)

	return runner.New(walker, pipeline, store, a.Notifier, runner.Options{
		PageDelay:    cfg.PageDelay,
		ShowProgress: showProgress,
	}), nil
}

// galleryStatePaths derives the per-gallery checkpoint and audit log
// paths. Galleries run concurrently, so each one writes its own files
// instead of sharing the main batch's audit log.
func galleryStatePaths(dir, name string) (statePath, auditPath string) {
	return filepath.Join(dir, "gallery-"+name+".json"),
		filepath.Join(dir, "gallery-"+name+".log")
}

// GalleryOptions configures an ad-hoc static HTML gallery batch.
type GalleryOptions struct {
	Name           string
	PageURLPattern string
	ItemSelector   string
	URLAttr        string
	NameAttr       string
	ShowProgress   bool
}

// BuildGalleryRunner composes a batch over a static HTML gallery
// source. Galleries carry no credentials, so there is no auth manager;
// each gallery keeps its own checkpoint file, keyed by name, so gallery
// batches and the main listing batch never clobber each other.
func (a *Application) BuildGalleryRunner(opts GalleryOptions) (*runner.Runner, error) {
	cfg := a.Config

	src, err := htmlpage.New(a.HTTP, htmlpage.Options{
		Name:           opts.Name,
		PageURLPattern: opts.PageURLPattern,
		ItemSelector:   opts.ItemSelector,
		URLAttr:        opts.URLAttr,
		NameAttr:       opts.NameAttr,
		Headers:        cfg.ExtraHeaders,
	})
	if err != nil {
		return nil, err
	}

	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	statePath, auditPath := galleryStatePaths(dir, opts.Name)
	store, err := checkpoint.Open(statePath, auditPath, cfg.PageSize)
	if err != nil {
		return nil, err
	}

	objectStore, err := storage.NewClient(a.HTTP, cfg.Storage)
	if err != nil {
		return nil, err
	}

	pipeline := relay.New(
		relay.NewFetcher(cfg.HTTPTimeout, cfg.UserAgent, ""),
		objectStore,
		catalog.NewClient(a.HTTP, cfg.CatalogURL),
		a.RateLimiter,
		relay.Options{
			SourceTag:   opts.Name,
			Description: opts.Name + " asset",
		},
	)

	return runner.New(src, pipeline, store, a.Notifier, runner.Options{
		PageDelay:    cfg.PageDelay,
		ShowProgress: opts.ShowProgress,
	}), nil
}

// Close gracefully shuts down the application.
func (a *Application) Close() {
	if a.HTTP != nil {
		a.HTTP.GetClient().CloseIdleConnections()
	}
	a.Logger.Debug().Dur("uptime", time.Since(a.startTime)).Msg("application shutdown complete")
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
