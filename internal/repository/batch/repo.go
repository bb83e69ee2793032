package batch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/markforge/watermark-engine/internal/model"
)

var ErrBatchNotFound = errors.New("batch not found")

// ImageRecord is the persisted outcome of one image within a batch.
type ImageRecord struct {
	ImageID      string       `json:"image_id"`
	Filename     string       `json:"filename"`
	Status       model.Status `json:"status"`
	ArtifactPath string       `json:"artifact_path,omitempty"`
	Error        string       `json:"error,omitempty"`
}

type Repository struct {
	db *dbpg.DB
}

func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// CreateBatch inserts a new batch record together with its image rows, all
// in Pending state.
func (r *Repository) CreateBatch(ctx context.Context, sources []model.SourceRef) (uuid.UUID, error) {
	query := `
		INSERT INTO batches (status, total, completed)
		VALUES ($1, $2, 0)
		RETURNING id
   `

	var id uuid.UUID
	err := r.db.Master.QueryRowContext(ctx, query, model.StatusPending, len(sources)).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create: failed to save batch: %w", err)
	}

	imgQuery := `
		INSERT INTO batch_images (batch_id, image_id, filename, status)
		VALUES ($1, $2, $3, $4)
    `
	for _, src := range sources {
		if _, err := r.db.ExecContext(ctx, imgQuery, id, src.ImageID, src.Filename, model.StatusPending); err != nil {
			return uuid.Nil, fmt.Errorf("create: failed to save batch image: %w", err)
		}
	}

	return id, nil
}

// SaveImageResult records the outcome of one image render.
func (r *Repository) SaveImageResult(ctx context.Context, batchID uuid.UUID, rec ImageRecord) error {
	query := `
		UPDATE batch_images
		SET status = $1, artifact_path = $2, error = $3
		WHERE batch_id = $4 AND image_id = $5
    `

	rows, err := r.db.ExecContext(ctx, query, rec.Status, rec.ArtifactPath, rec.Error, batchID, rec.ImageID)
	if err != nil {
		return fmt.Errorf("save result: failed to update batch image: %w", err)
	}

	n, err := rows.RowsAffected()
	if err != nil {
		return fmt.Errorf("save result: failed to get number of rows affected: %w", err)
	}
	if n == 0 {
		return ErrBatchNotFound
	}

	return nil
}

// UpdateBatchProgress moves the batch's aggregate counters and status.
func (r *Repository) UpdateBatchProgress(ctx context.Context, batchID uuid.UUID, completed int, status model.Status) error {
	query := `
		UPDATE batches
		SET completed = $1, status = $2
		WHERE id = $3
    `

	rows, err := r.db.ExecContext(ctx, query, completed, status, batchID)
	if err != nil {
		return fmt.Errorf("progress: failed to update batch: %w", err)
	}

	n, err := rows.RowsAffected()
	if err != nil {
		return fmt.Errorf("progress: failed to get number of rows affected: %w", err)
	}
	if n == 0 {
		return ErrBatchNotFound
	}

	return nil
}

// GetBatch returns the batch record by id.
func (r *Repository) GetBatch(ctx context.Context, id uuid.UUID) (model.Batch, error) {
	query := `
		SELECT status, total, completed, created_at
		FROM batches
		WHERE id = $1
    `

	var b model.Batch
	b.ID = id
	err := r.db.Master.QueryRowContext(ctx, query, id).Scan(&b.Status, &b.Total, &b.Completed, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Batch{}, ErrBatchNotFound
		}

		return model.Batch{}, fmt.Errorf("get: failed to get batch: %w", err)
	}

	return b, nil
}

// GetResults returns the per-image records of a batch in insertion order.
func (r *Repository) GetResults(ctx context.Context, batchID uuid.UUID) ([]ImageRecord, error) {
	query := `
		SELECT image_id, filename, status, COALESCE(artifact_path, ''), COALESCE(error, '')
		FROM batch_images
		WHERE batch_id = $1
		ORDER BY id
    `

	rows, err := r.db.Master.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("results: failed to query batch images: %w", err)
	}
	defer rows.Close()

	var out []ImageRecord
	for rows.Next() {
		var rec ImageRecord
		if err := rows.Scan(&rec.ImageID, &rec.Filename, &rec.Status, &rec.ArtifactPath, &rec.Error); err != nil {
			return nil, fmt.Errorf("results: failed to scan batch image: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("results: failed to iterate batch images: %w", err)
	}

	return out, nil
}
