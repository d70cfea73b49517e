package models

import "time"

// TokenPair is the bearer credential set for the listing API.
// It is owned exclusively by the auth manager and only replaced
// as a whole on a successful refresh.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// PageCursor identifies the next listing page to fetch.
type PageCursor struct {
	PageNumber int `json:"page_no"`
	PageSize   int `json:"page_size"`
}

// TimeWindow scopes a run to items created inside [Start, End].
// Values are epoch milliseconds and are forwarded verbatim to the
// listing endpoint.
type TimeWindow struct {
	Start int64 `json:"start_time"`
	End   int64 `json:"end_time"`
}

// ItemDescriptor is the minimal identity and location a source adapter
// extracts per listing entry. SourceID is the dedup key: a
// server-assigned id when one exists, the source URL otherwise.
type ItemDescriptor struct {
	SourceID        string `json:"source_id"`
	SourceURL       string `json:"source_url"`
	DisplayName     string `json:"display_name"`
	ContentTypeHint string `json:"content_type_hint,omitempty"`
}

// Stage identifies which relay stage produced an outcome or error.
type Stage string

const (
	StageFetch    Stage = "fetch"
	StageStore    Stage = "store"
	StageRegister Stage = "register"
)

// OutcomeStatus is the terminal status of one relayed item.
type OutcomeStatus string

const (
	OutcomeUploaded OutcomeStatus = "uploaded"
	OutcomeSkipped  OutcomeStatus = "skipped"
	OutcomeFailed   OutcomeStatus = "failed"
)

// RelayOutcome is the terminal, immutable result of relaying one item.
type RelayOutcome struct {
	Status     OutcomeStatus `json:"status"`
	StorageURL string        `json:"storage_url,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	Stage      Stage         `json:"stage,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Uploaded builds a successful outcome carrying the retrieval URL.
func Uploaded(storageURL string) RelayOutcome {
	return RelayOutcome{Status: OutcomeUploaded, StorageURL: storageURL}
}

// Skipped builds an outcome for an item deliberately not relayed.
func Skipped(reason string) RelayOutcome {
	return RelayOutcome{Status: OutcomeSkipped, Reason: reason}
}

// Failed builds an outcome for a stage failure. Later stages were not
// attempted.
func Failed(stage Stage, err error) RelayOutcome {
	o := RelayOutcome{Status: OutcomeFailed, Stage: stage}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

// CheckpointRecord is the durable progress record for one batch.
// It is created on the first run, read at startup to resume, deleted on
// full-source exhaustion, and left intact on any abort.
type CheckpointRecord struct {
	Cursor         PageCursor `json:"cursor"`
	StartedAt      time.Time  `json:"started_at"`
	TotalCompleted int        `json:"total_completed"`

	// CompletedIDs is serialized as a list; JSON has no set type.
	CompletedIDs []string `json:"completed_ids"`
}

// CatalogEntry is the registration payload for one stored asset.
type CatalogEntry struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Description string `json:"desc,omitempty"`
	Source      string `json:"source"`
	Suffix      string `json:"suffix"`
}

// RunSummary aggregates one run's counts for the notification channel.
type RunSummary struct {
	Source    string        `json:"source"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
}

// Total returns the number of items that reached a terminal outcome.
func (s RunSummary) Total() int {
	return s.Succeeded + s.Failed + s.Skipped
}
