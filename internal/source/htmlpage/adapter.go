// internal/source/htmlpage/adapter.go
package htmlpage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/yishe-labs/relay/internal/source"
	"github.com/yishe-labs/relay/pkg/models"
)

// Options configures a static HTML gallery source.
type Options struct {
	// Name is the source tag.
	Name string
	// PageURLPattern is a printf pattern with one %d verb for the page
	// number, e.g. "https://example.com/gallery/page/%d".
	PageURLPattern string
	// ItemSelector selects one element per asset, e.g. "div.logo img".
	ItemSelector string
	// URLAttr is the attribute carrying the asset URL ("src", "href").
	URLAttr string
	// NameAttr optionally names the asset ("alt", "title"); the URL's
	// final path segment is the fallback.
	NameAttr string
	// Headers are sent with every page request.
	Headers map[string]string
}

// Adapter walks numbered static HTML gallery pages and extracts asset
// descriptors with CSS selectors. These sources report no listing
// total; the run ends on the first empty page.
type Adapter struct {
	http *resty.Client
	opts Options
}

func New(client *resty.Client, opts Options) (*Adapter, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("htmlpage: source name is required")
	}
	if !strings.Contains(opts.PageURLPattern, "%d") {
		return nil, fmt.Errorf("htmlpage: page URL pattern must contain %%d")
	}
	if opts.ItemSelector == "" {
		return nil, fmt.Errorf("htmlpage: item selector is required")
	}
	if opts.URLAttr == "" {
		opts.URLAttr = "src"
	}
	return &Adapter{http: client, opts: opts}, nil
}

func (a *Adapter) Name() string {
	return a.opts.Name
}

// FetchPage fetches and parses one gallery page. HTML sources carry no
// creation timestamps, so time-windowed runs are rejected up front
// instead of silently returning unfiltered items.
func (a *Adapter) FetchPage(ctx context.Context, cursor models.PageCursor, window *models.TimeWindow) (*source.Page, error) {
	if window != nil {
		return nil, fmt.Errorf("source %q does not support time windows", a.opts.Name)
	}

	pageURL := fmt.Sprintf(a.opts.PageURLPattern, cursor.PageNumber)
	resp, err := a.http.R().
		SetContext(ctx).
		SetHeaders(a.opts.Headers).
		Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch gallery page %d: %w", cursor.PageNumber, err)
	}
	if resp.StatusCode() == 404 {
		// Past the last page.
		return &source.Page{Total: source.TotalUnknown}, nil
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("gallery page %d returned HTTP %d", cursor.PageNumber, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse gallery page %d: %w", cursor.PageNumber, err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	page := &source.Page{Total: source.TotalUnknown}
	doc.Find(a.opts.ItemSelector).Each(func(i int, sel *goquery.Selection) {
		raw, ok := sel.Attr(a.opts.URLAttr)
		if !ok || raw == "" {
			return
		}
		ref, err := url.Parse(raw)
		if err != nil {
			log.Warn().Str("source", a.opts.Name).Str("attr", raw).Msg("skipping unparsable asset URL")
			return
		}
		abs := base.ResolveReference(ref).String()

		name := ""
		if a.opts.NameAttr != "" {
			name, _ = sel.Attr(a.opts.NameAttr)
		}
		if name == "" {
			name = strings.TrimSuffix(path.Base(ref.Path), path.Ext(ref.Path))
		}

		page.Items = append(page.Items, models.ItemDescriptor{
			SourceID:        abs,
			SourceURL:       abs,
			DisplayName:     name,
			ContentTypeHint: strings.TrimPrefix(path.Ext(ref.Path), "."),
		})
	})

	log.Debug().
		Str("source", a.opts.Name).
		Int("page", cursor.PageNumber).
		Int("items", len(page.Items)).
		Msg("parsed gallery page")

	return page, nil
}
