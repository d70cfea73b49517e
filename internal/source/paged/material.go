// internal/source/paged/material.go
package paged

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/yishe-labs/relay/pkg/models"
)

// materialEntry is the listing shape of the asset-management source.
type materialEntry struct {
	ID            json.Number `json:"id"`
	OSSObjectName string      `json:"ossObjectName"`
	MaterialName  string      `json:"materialName"`
	ImageFormat   string      `json:"imageFormat"`
}

// MaterialEntry maps one asset-management listing entry. The
// server-assigned id is the dedup key; entries without one fall back to
// the object URL.
func MaterialEntry(raw json.RawMessage) (models.ItemDescriptor, error) {
	var entry materialEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return models.ItemDescriptor{}, fmt.Errorf("decode material entry: %w", err)
	}
	if entry.OSSObjectName == "" {
		return models.ItemDescriptor{}, fmt.Errorf("material entry has no object URL")
	}

	id := entry.ID.String()
	if id == "" || id == "0" {
		id = entry.OSSObjectName
	}

	name := entry.MaterialName
	if name == "" {
		name = fmt.Sprintf("material_%d", time.Now().UnixMilli())
	}

	return models.ItemDescriptor{
		SourceID:        id,
		SourceURL:       entry.OSSObjectName,
		DisplayName:     name,
		ContentTypeHint: entry.ImageFormat,
	}, nil
}
