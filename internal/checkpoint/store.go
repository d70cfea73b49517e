// Package checkpoint persists batch progress so an interrupted run
// resumes exactly where it stopped. Every item outcome is flushed
// synchronously; a crash loses at most the one in-flight item.
package checkpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yishe-labs/relay/pkg/models"
)

// AuditEntry is one line of the append-only outcome log.
type AuditEntry struct {
	SourceID   string               `json:"source_id"`
	Status     models.OutcomeStatus `json:"status"`
	Stage      models.Stage         `json:"stage,omitempty"`
	StorageURL string               `json:"storage_url,omitempty"`
	Reason     string               `json:"reason,omitempty"`
	Error      string               `json:"error,omitempty"`
	Timestamp  time.Time            `json:"timestamp"`
}

// Store owns one batch's CheckpointRecord: the in-memory copy and its
// persisted JSON form. It has a single writer (the orchestrator's
// control goroutine), so no locking.
type Store struct {
	path      string
	auditPath string

	record    models.CheckpointRecord
	completed map[string]struct{}
}

// Open loads the checkpoint at path, or starts a fresh zero-state
// record when none exists. pageSize seeds the cursor of a fresh record;
// a resumed record keeps the page size it was written with so cursor
// arithmetic stays consistent mid-batch.
func Open(path, auditPath string, pageSize int) (*Store, error) {
	s := &Store{
		path:      path,
		auditPath: auditPath,
		completed: make(map[string]struct{}),
		record: models.CheckpointRecord{
			Cursor:    models.PageCursor{PageNumber: 1, PageSize: pageSize},
			StartedAt: time.Now(),
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var record models.CheckpointRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parse checkpoint %s: %w", path, err)
	}
	s.record = record
	for _, id := range record.CompletedIDs {
		s.completed[id] = struct{}{}
	}

	log.Info().
		Int("page", record.Cursor.PageNumber).
		Int("completed", len(s.completed)).
		Msg("resuming from checkpoint")

	return s, nil
}

// Cursor returns the next page to fetch.
func (s *Store) Cursor() models.PageCursor {
	return s.record.Cursor
}

// Record returns a copy of the current checkpoint record.
func (s *Store) Record() models.CheckpointRecord {
	return s.record
}

// Completed reports whether the item already reached a terminal outcome
// in this batch. Dedup is by id, never by page position: the upstream
// listing may shift items between pages under concurrent writes.
func (s *Store) Completed(sourceID string) bool {
	_, ok := s.completed[sourceID]
	return ok
}

// RecordOutcome marks the item terminal and flushes the checkpoint to
// disk before returning. Recording an id twice is a no-op for dedup but
// still appends to the audit log.
func (s *Store) RecordOutcome(sourceID string, outcome models.RelayOutcome) error {
	s.appendAudit(sourceID, outcome)

	if _, ok := s.completed[sourceID]; !ok {
		s.completed[sourceID] = struct{}{}
		s.record.CompletedIDs = append(s.record.CompletedIDs, sourceID)
		s.record.TotalCompleted++
	}
	return s.flush()
}

// AdvancePage moves the cursor forward by exactly one page and flushes.
func (s *Store) AdvancePage() error {
	s.record.Cursor.PageNumber++
	return s.flush()
}

// Flush re-persists the current record. The orchestrator calls this to
// pin the resume point after a non-fatal page failure.
func (s *Store) Flush() error {
	return s.flush()
}

// Clear deletes the persisted checkpoint; the next invocation starts a
// fresh logical batch. The audit log is kept.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	return nil
}

// flush writes atomically: temp file in the same directory, then
// rename, so a crash mid-write never corrupts the resume point.
func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.record, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

// appendAudit writes one JSONL entry. Audit failures are logged, never
// fatal: the checkpoint itself is the correctness mechanism.
func (s *Store) appendAudit(sourceID string, outcome models.RelayOutcome) {
	if s.auditPath == "" {
		return
	}
	entry := AuditEntry{
		SourceID:   sourceID,
		Status:     outcome.Status,
		Stage:      outcome.Stage,
		StorageURL: outcome.StorageURL,
		Reason:     outcome.Reason,
		Error:      outcome.Error,
		Timestamp:  time.Now(),
	}
	line, err := json.Marshal(entry)
	if err != nil {
		log.Warn().Err(err).Msg("could not serialize audit entry")
		return
	}
	f, err := os.OpenFile(s.auditPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		log.Warn().Err(err).Msg("could not open audit log")
		return
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		log.Warn().Err(err).Msg("could not append audit entry")
	}
}

// ReadAudit returns the most recent n audit entries (all when n <= 0).
func ReadAudit(path string, n int) ([]AuditEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []AuditEntry
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var e AuditEntry
		if err := dec.Decode(&e); err != nil {
			break
		}
		entries = append(entries, e)
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}
