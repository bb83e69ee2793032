package model

import (
	"time"

	"github.com/google/uuid"
)

// Batch is the persisted record of one export batch.
type Batch struct {
	ID        uuid.UUID `json:"id"`
	Status    Status    `json:"status"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// SourceRef points at one source image stored in object storage.
type SourceRef struct {
	ImageID  string `json:"image_id"`
	Filename string `json:"filename"`
	Path     string `json:"path"` // object path within the bucket
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// ExportRequested is the queue message that triggers processing of a batch.
// The batch ID is used as the message key for partitioning and ordering.
type ExportRequested struct {
	BatchID      uuid.UUID                   `json:"batch_id"`
	Sources      []SourceRef                 `json:"sources"`
	GlobalLayers []WatermarkLayer            `json:"global_layers"`
	Overrides    map[string][]WatermarkLayer `json:"overrides,omitempty"`
	Options      RenderOptions               `json:"options"`
}
