package model

// Status is the lifecycle state of one image inside a batch export.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// ExportResult is the outcome of rendering one image of a batch.
type ExportResult struct {
	ImageID  string    `json:"image_id"`
	Status   Status    `json:"status"`
	Artifact *Artifact `json:"artifact,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// ExportProgress is a point-in-time snapshot of a running batch export.
// Completed counts both Done and Failed images.
type ExportProgress struct {
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
	Results   []ExportResult `json:"results"`
}
