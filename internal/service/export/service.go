package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/markforge/watermark-engine/internal/apperr"
	exportctl "github.com/markforge/watermark-engine/internal/export"
	"github.com/markforge/watermark-engine/internal/logocache"
	"github.com/markforge/watermark-engine/internal/model"
	"github.com/markforge/watermark-engine/internal/render"
	"github.com/markforge/watermark-engine/internal/repository/batch"
	"github.com/markforge/watermark-engine/internal/vars"
)

// fileStorage defines the interface for the object storage backend holding
// source images and rendered artifacts.
type fileStorage interface {
	Save(ctx context.Context, subdir, filename, contentType string, src io.Reader) (string, error)
	Load(ctx context.Context, path string) (io.ReadCloser, error)
}

// producer defines the interface for enqueueing export requests into a
// message broker (e.g., Kafka).
type producer interface {
	Produce(ctx context.Context, req model.ExportRequested) error
}

// repository defines the persistence interface for batch records.
type repository interface {
	CreateBatch(ctx context.Context, sources []model.SourceRef) (uuid.UUID, error)
	SaveImageResult(ctx context.Context, batchID uuid.UUID, rec batch.ImageRecord) error
	UpdateBatchProgress(ctx context.Context, batchID uuid.UUID, completed int, status model.Status) error
	GetBatch(ctx context.Context, id uuid.UUID) (model.Batch, error)
	GetResults(ctx context.Context, batchID uuid.UUID) ([]batch.ImageRecord, error)
}

// Service ties the export controller to storage, queue and persistence:
// SubmitBatch records a batch and enqueues it; ProcessBatch (driven by the
// queue consumer) loads the sources, runs the bounded export and stores the
// artifacts and outcomes.
type Service struct {
	fileStorage fileStorage
	producer    producer
	repo        repository
	controller  *exportctl.Controller
	compositor  *render.Compositor
	logos       *logocache.Cache
}

// NewService creates a new Service.
func NewService(fs fileStorage, p producer, repo repository, ctl *exportctl.Controller, compositor *render.Compositor, logos *logocache.Cache) *Service {
	return &Service{
		fileStorage: fs,
		producer:    p,
		repo:        repo,
		controller:  ctl,
		compositor:  compositor,
		logos:       logos,
	}
}

// Preview renders a single uploaded image against a layer list, typically
// at a reduced scale. The preview uses the same placement math as the
// export, so it is pixel-faithful up to scale.
func (s *Service) Preview(ctx context.Context, filename string, data []byte, layers []model.WatermarkLayer, opts model.RenderOptions) (*model.Artifact, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported or corrupt image data", apperr.ErrImageDecode)
	}

	layers = model.NormalizeLayers(layers)
	vctx := vars.Context{Filename: filename, Timestamp: time.Now(), Index: 1}
	for i := range layers {
		if layers[i].Kind == model.KindText {
			layers[i].Text = vars.Expand(layers[i].Text, vctx)
		}
	}

	return s.compositor.Render(img, layers, opts, s.logos)
}

// SubmitBatch persists the batch in Pending state and enqueues it for
// asynchronous processing. Returns the new batch id.
func (s *Service) SubmitBatch(ctx context.Context, req model.ExportRequested) (uuid.UUID, error) {
	id, err := s.repo.CreateBatch(ctx, req.Sources)
	if err != nil {
		return uuid.Nil, fmt.Errorf("submit: failed to create batch: %w", err)
	}

	req.BatchID = id
	if err := s.producer.Produce(ctx, req); err != nil {
		return uuid.Nil, fmt.Errorf("submit: failed to enqueue batch: %w", err)
	}

	return id, nil
}

// ProcessBatch loads every source image, renders the batch under the
// bounded worker pool and persists per-image outcomes. A source that cannot
// be loaded still enters the batch and fails in isolation there.
func (s *Service) ProcessBatch(ctx context.Context, req model.ExportRequested) error {
	job := model.Job{
		GlobalLayers: req.GlobalLayers,
		Overrides:    req.Overrides,
	}
	for _, src := range req.Sources {
		img := model.ProcessedImage{
			ID:       src.ImageID,
			Filename: src.Filename,
			Width:    src.Width,
			Height:   src.Height,
		}
		if data, err := s.loadSource(ctx, src.Path); err != nil {
			zlog.Logger.Err(err).Str("image", src.ImageID).Msg("failed to load source image")
		} else {
			img.Source = model.ImageSource{Bytes: data}
		}
		job.Images = append(job.Images, img)
	}

	results, err := s.controller.ExportAll(ctx, job.Images, job.EffectiveLayers, s.logos, req.Options,
		func(p model.ExportProgress) {
			zlog.Logger.Debug().
				Str("batch", req.BatchID.String()).
				Int("completed", p.Completed).
				Int("total", p.Total).
				Msg("export progress")
		})
	if err != nil {
		return fmt.Errorf("process: failed to run export: %w", err)
	}

	return s.persistResults(ctx, req, results)
}

// GetBatch returns the persisted batch record and its per-image outcomes.
func (s *Service) GetBatch(ctx context.Context, id uuid.UUID) (model.Batch, []batch.ImageRecord, error) {
	b, err := s.repo.GetBatch(ctx, id)
	if err != nil {
		return model.Batch{}, nil, err
	}
	records, err := s.repo.GetResults(ctx, id)
	if err != nil {
		return model.Batch{}, nil, err
	}
	return b, records, nil
}

func (s *Service) loadSource(ctx context.Context, path string) ([]byte, error) {
	r, err := s.fileStorage.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load source %q: %w", path, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read source %q: %w", path, err)
	}
	return data, nil
}

// persistResults saves Done artifacts to storage and writes every outcome
// plus the final aggregate state to the repository.
func (s *Service) persistResults(ctx context.Context, req model.ExportRequested, results []model.ExportResult) error {
	completed := 0
	failed := 0
	byID := make(map[string]model.SourceRef, len(req.Sources))
	for _, src := range req.Sources {
		byID[src.ImageID] = src
	}

	for _, res := range results {
		rec := batch.ImageRecord{
			ImageID:  res.ImageID,
			Filename: byID[res.ImageID].Filename,
			Status:   res.Status,
			Error:    res.Error,
		}
		switch res.Status {
		case model.StatusDone:
			completed++
			if res.Artifact != nil && len(res.Artifact.Bytes) > 0 {
				name := fmt.Sprintf("%s/%s%s", req.BatchID, res.ImageID, extension(req.Options.Format))
				path, err := s.fileStorage.Save(ctx, "artifacts", name, res.Artifact.MIME, bytes.NewReader(res.Artifact.Bytes))
				if err != nil {
					zlog.Logger.Err(err).Str("image", res.ImageID).Msg("failed to save artifact")
				} else {
					rec.ArtifactPath = path
				}
			}
		case model.StatusFailed:
			completed++
			failed++
		}

		if err := s.repo.SaveImageResult(ctx, req.BatchID, rec); err != nil {
			zlog.Logger.Err(err).Str("image", res.ImageID).Msg("failed to save image result")
		}
	}

	status := model.StatusDone
	if failed > 0 {
		status = model.StatusFailed
	}
	if err := s.repo.UpdateBatchProgress(ctx, req.BatchID, completed, status); err != nil {
		return fmt.Errorf("process: failed to update batch progress: %w", err)
	}

	return nil
}

func extension(f model.Format) string {
	switch f {
	case model.FormatPNG:
		return ".png"
	case model.FormatWebP:
		return ".webp"
	default:
		return ".jpg"
	}
}
