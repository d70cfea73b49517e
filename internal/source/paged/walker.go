// internal/source/paged/walker.go
package paged

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/yishe-labs/relay/internal/auth"
	"github.com/yishe-labs/relay/internal/source"
	"github.com/yishe-labs/relay/pkg/models"
)

// EntryMapper turns one raw listing entry into an ItemDescriptor.
// This is the site-specific part of a paged source; the walker itself
// only knows the envelope shape.
type EntryMapper func(raw json.RawMessage) (models.ItemDescriptor, error)

// sortingField mirrors the listing endpoint's sort parameter.
type sortingField struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// listRequest is the POST body for one page fetch. StartTime/EndTime
// are only present when a time window is given.
type listRequest struct {
	PageNo        int            `json:"pageNo"`
	PageSize      int            `json:"pageSize"`
	SortingFields []sortingField `json:"sortingFields"`
	StartTime     *int64         `json:"startTime,omitempty"`
	EndTime       *int64         `json:"endTime,omitempty"`
}

// listResponse is the upstream envelope. Code also carries the
// in-band auth failure signal, checked by auth.IsAuthFailure before
// this struct is trusted.
type listResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		List  []json.RawMessage `json:"list"`
		Total int               `json:"total"`
	} `json:"data"`
}

// Walker fetches one listing page per call from a paginated POST
// endpoint, attaching the auth manager's headers. It implements
// source.Source.
type Walker struct {
	http    *resty.Client
	auth    *auth.Manager
	name    string
	listURL string
	mapper  EntryMapper
}

// New builds a walker for the given listing endpoint. A stable sort
// order (create_time asc, id desc) keeps pagination deterministic while
// the remote data set grows.
func New(client *resty.Client, mgr *auth.Manager, name, listURL string, mapper EntryMapper) *Walker {
	if mapper == nil {
		mapper = MaterialEntry
	}
	return &Walker{
		http:    client,
		auth:    mgr,
		name:    name,
		listURL: listURL,
		mapper:  mapper,
	}
}

func (w *Walker) Name() string {
	return w.name
}

// FetchPage issues one listing request. On an auth-failure signal it
// delegates to the auth manager and retries the same page exactly once;
// a second failure or a failed refresh surfaces auth.ErrFatalAuth.
func (w *Walker) FetchPage(ctx context.Context, cursor models.PageCursor, window *models.TimeWindow) (*source.Page, error) {
	body := listRequest{
		PageNo:   cursor.PageNumber,
		PageSize: cursor.PageSize,
		SortingFields: []sortingField{
			{Field: "create_time", Order: "asc"},
			{Field: "id", Order: "desc"},
		},
	}
	if window != nil {
		body.StartTime = &window.Start
		body.EndTime = &window.End
	}

	resp, err := w.post(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("listing request for page %d: %w", cursor.PageNumber, err)
	}

	if auth.IsAuthFailure(resp.StatusCode(), resp.Body()) {
		if err := w.auth.HandleUnauthorized(ctx); err != nil {
			return nil, err
		}
		resp, err = w.post(ctx, body)
		if err != nil {
			return nil, fmt.Errorf("listing retry for page %d: %w", cursor.PageNumber, err)
		}
		if auth.IsAuthFailure(resp.StatusCode(), resp.Body()) {
			return nil, fmt.Errorf("%w: still unauthorized after refresh", auth.ErrFatalAuth)
		}
	}

	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("listing endpoint returned HTTP %d for page %d", resp.StatusCode(), cursor.PageNumber)
	}

	var parsed listResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("malformed listing response for page %d: %w", cursor.PageNumber, err)
	}

	page := &source.Page{
		Items: make([]models.ItemDescriptor, 0, len(parsed.Data.List)),
		Total: parsed.Data.Total,
	}
	for i, raw := range parsed.Data.List {
		item, err := w.mapper(raw)
		if err != nil {
			log.Warn().
				Str("source", w.name).
				Int("page", cursor.PageNumber).
				Int("entry", i).
				Err(err).
				Msg("skipping unmappable listing entry")
			continue
		}
		page.Items = append(page.Items, item)
	}

	log.Debug().
		Str("source", w.name).
		Int("page", cursor.PageNumber).
		Int("items", len(page.Items)).
		Int("total", page.Total).
		Msg("fetched listing page")

	return page, nil
}

func (w *Walker) post(ctx context.Context, body listRequest) (*resty.Response, error) {
	return w.http.R().
		SetContext(ctx).
		SetHeaders(w.auth.Headers()).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(w.listURL)
}
