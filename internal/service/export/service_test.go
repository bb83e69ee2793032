package export

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"io"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"

	"github.com/markforge/watermark-engine/internal/apperr"
	exportctl "github.com/markforge/watermark-engine/internal/export"
	"github.com/markforge/watermark-engine/internal/fontcache"
	"github.com/markforge/watermark-engine/internal/logocache"
	"github.com/markforge/watermark-engine/internal/model"
	"github.com/markforge/watermark-engine/internal/render"
	"github.com/markforge/watermark-engine/internal/repository/batch"
)

func init() {
	zlog.Init()
}

type mockStorage struct {
	saveFn func(ctx context.Context, subdir, filename, contentType string, src io.Reader) (string, error)
	loadFn func(ctx context.Context, path string) (io.ReadCloser, error)
}

func (m *mockStorage) Save(ctx context.Context, subdir, filename, contentType string, src io.Reader) (string, error) {
	return m.saveFn(ctx, subdir, filename, contentType, src)
}

func (m *mockStorage) Load(ctx context.Context, path string) (io.ReadCloser, error) {
	return m.loadFn(ctx, path)
}

type mockProducer struct {
	produceFn func(ctx context.Context, req model.ExportRequested) error
}

func (m *mockProducer) Produce(ctx context.Context, req model.ExportRequested) error {
	return m.produceFn(ctx, req)
}

type mockRepo struct {
	mu      sync.Mutex
	records []batch.ImageRecord

	createFn     func(ctx context.Context, sources []model.SourceRef) (uuid.UUID, error)
	updateFn     func(ctx context.Context, batchID uuid.UUID, completed int, status model.Status) error
	getBatchFn   func(ctx context.Context, id uuid.UUID) (model.Batch, error)
	getResultsFn func(ctx context.Context, batchID uuid.UUID) ([]batch.ImageRecord, error)
}

func (m *mockRepo) CreateBatch(ctx context.Context, sources []model.SourceRef) (uuid.UUID, error) {
	return m.createFn(ctx, sources)
}

func (m *mockRepo) SaveImageResult(ctx context.Context, batchID uuid.UUID, rec batch.ImageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *mockRepo) UpdateBatchProgress(ctx context.Context, batchID uuid.UUID, completed int, status model.Status) error {
	return m.updateFn(ctx, batchID, completed, status)
}

func (m *mockRepo) GetBatch(ctx context.Context, id uuid.UUID) (model.Batch, error) {
	return m.getBatchFn(ctx, id)
}

func (m *mockRepo) GetResults(ctx context.Context, batchID uuid.UUID) ([]batch.ImageRecord, error) {
	return m.getResultsFn(ctx, batchID)
}

func (m *mockRepo) recorded() []batch.ImageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]batch.ImageRecord(nil), m.records...)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, imaging.Encode(buf, imaging.New(16, 16, color.White), imaging.PNG))
	return buf.Bytes()
}

func newTestService(fs fileStorage, p producer, repo repository) *Service {
	compositor := render.New(fontcache.New(""))
	ctl := exportctl.New(compositor)
	return NewService(fs, p, repo, ctl, compositor, logocache.New())
}

func TestSubmitBatch(t *testing.T) {
	id := uuid.New()
	var enqueued model.ExportRequested

	repo := &mockRepo{
		createFn: func(ctx context.Context, sources []model.SourceRef) (uuid.UUID, error) {
			require.Len(t, sources, 1)
			return id, nil
		},
	}
	prod := &mockProducer{
		produceFn: func(ctx context.Context, req model.ExportRequested) error {
			enqueued = req
			return nil
		},
	}
	svc := newTestService(nil, prod, repo)

	got, err := svc.SubmitBatch(context.Background(), model.ExportRequested{
		Sources: []model.SourceRef{{ImageID: "a", Filename: "a.png", Path: "sources/a.png"}},
	})

	require.NoError(t, err)
	require.Equal(t, id, got)
	// The batch id assigned by the repository travels with the queue message.
	require.Equal(t, id, enqueued.BatchID)
}

func TestSubmitBatchCreateFails(t *testing.T) {
	repo := &mockRepo{
		createFn: func(ctx context.Context, sources []model.SourceRef) (uuid.UUID, error) {
			return uuid.Nil, errors.New("db down")
		},
	}
	svc := newTestService(nil, nil, repo)

	_, err := svc.SubmitBatch(context.Background(), model.ExportRequested{})

	require.Error(t, err)
	require.Contains(t, err.Error(), "create batch")
}

func TestSubmitBatchProduceFails(t *testing.T) {
	repo := &mockRepo{
		createFn: func(ctx context.Context, sources []model.SourceRef) (uuid.UUID, error) {
			return uuid.New(), nil
		},
	}
	prod := &mockProducer{
		produceFn: func(ctx context.Context, req model.ExportRequested) error {
			return errors.New("broker down")
		},
	}
	svc := newTestService(nil, prod, repo)

	_, err := svc.SubmitBatch(context.Background(), model.ExportRequested{})

	require.Error(t, err)
	require.Contains(t, err.Error(), "enqueue")
}

func TestProcessBatch(t *testing.T) {
	batchID := uuid.New()
	png := pngBytes(t)

	var savedPaths []string
	fs := &mockStorage{
		loadFn: func(ctx context.Context, path string) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(png)), nil
		},
		saveFn: func(ctx context.Context, subdir, filename, contentType string, src io.Reader) (string, error) {
			require.Equal(t, "artifacts", subdir)
			require.Equal(t, "image/png", contentType)
			savedPaths = append(savedPaths, subdir+"/"+filename)
			return subdir + "/" + filename, nil
		},
	}

	var gotCompleted int
	var gotStatus model.Status
	repo := &mockRepo{
		updateFn: func(ctx context.Context, id uuid.UUID, completed int, status model.Status) error {
			require.Equal(t, batchID, id)
			gotCompleted = completed
			gotStatus = status
			return nil
		},
	}
	svc := newTestService(fs, nil, repo)

	err := svc.ProcessBatch(context.Background(), model.ExportRequested{
		BatchID: batchID,
		Sources: []model.SourceRef{
			{ImageID: "a", Filename: "a.png", Path: "sources/a.png"},
			{ImageID: "b", Filename: "b.png", Path: "sources/b.png"},
		},
		Options: model.RenderOptions{Format: model.FormatPNG},
	})

	require.NoError(t, err)
	require.Equal(t, 2, gotCompleted)
	require.Equal(t, model.StatusDone, gotStatus)

	require.Len(t, savedPaths, 2)
	require.Contains(t, savedPaths, "artifacts/"+batchID.String()+"/a.png")
	require.Contains(t, savedPaths, "artifacts/"+batchID.String()+"/b.png")

	records := repo.recorded()
	require.Len(t, records, 2)
	for _, rec := range records {
		require.Equal(t, model.StatusDone, rec.Status)
		require.NotEmpty(t, rec.ArtifactPath)
		require.Empty(t, rec.Error)
	}
}

func TestProcessBatchIsolatesLoadFailure(t *testing.T) {
	batchID := uuid.New()
	png := pngBytes(t)

	fs := &mockStorage{
		loadFn: func(ctx context.Context, path string) (io.ReadCloser, error) {
			if path == "sources/bad.png" {
				return nil, errors.New("object not found")
			}
			return io.NopCloser(bytes.NewReader(png)), nil
		},
		saveFn: func(ctx context.Context, subdir, filename, contentType string, src io.Reader) (string, error) {
			return subdir + "/" + filename, nil
		},
	}

	var gotStatus model.Status
	repo := &mockRepo{
		updateFn: func(ctx context.Context, id uuid.UUID, completed int, status model.Status) error {
			gotStatus = status
			return nil
		},
	}
	svc := newTestService(fs, nil, repo)

	err := svc.ProcessBatch(context.Background(), model.ExportRequested{
		BatchID: batchID,
		Sources: []model.SourceRef{
			{ImageID: "good", Filename: "good.png", Path: "sources/good.png"},
			{ImageID: "bad", Filename: "bad.png", Path: "sources/bad.png"},
		},
		Options: model.RenderOptions{Format: model.FormatPNG},
	})

	require.NoError(t, err)
	require.Equal(t, model.StatusFailed, gotStatus)

	byID := make(map[string]batch.ImageRecord)
	for _, rec := range repo.recorded() {
		byID[rec.ImageID] = rec
	}
	require.Equal(t, model.StatusDone, byID["good"].Status)
	require.Equal(t, model.StatusFailed, byID["bad"].Status)
	require.NotEmpty(t, byID["bad"].Error)
	require.Empty(t, byID["bad"].ArtifactPath)
}

func TestPreview(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	layers := []model.WatermarkLayer{{
		ID:               "t",
		Kind:             model.KindText,
		Enabled:          true,
		Opacity:          1,
		Text:             "(c) {filename}",
		FontSizeRelative: 10,
		Color:            "#000000",
	}}

	artifact, err := svc.Preview(context.Background(), "beach.jpg", pngBytes(t), layers, model.RenderOptions{
		Format: model.FormatPNG,
		Scale:  0.5,
	})

	require.NoError(t, err)
	require.NotEmpty(t, artifact.Bytes)
	require.Equal(t, "image/png", artifact.MIME)
}

func TestPreviewRejectsCorruptImage(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	_, err := svc.Preview(context.Background(), "x.png", []byte("not an image"), nil, model.RenderOptions{})

	require.ErrorIs(t, err, apperr.ErrImageDecode)
}

func TestGetBatch(t *testing.T) {
	id := uuid.New()
	repo := &mockRepo{
		getBatchFn: func(ctx context.Context, got uuid.UUID) (model.Batch, error) {
			require.Equal(t, id, got)
			return model.Batch{ID: id, Status: model.StatusDone, Total: 2, Completed: 2}, nil
		},
		getResultsFn: func(ctx context.Context, batchID uuid.UUID) ([]batch.ImageRecord, error) {
			return []batch.ImageRecord{{ImageID: "a"}, {ImageID: "b"}}, nil
		},
	}
	svc := newTestService(nil, nil, repo)

	b, records, err := svc.GetBatch(context.Background(), id)

	require.NoError(t, err)
	require.Equal(t, model.StatusDone, b.Status)
	require.Len(t, records, 2)
}

func TestGetBatchNotFound(t *testing.T) {
	repo := &mockRepo{
		getBatchFn: func(ctx context.Context, id uuid.UUID) (model.Batch, error) {
			return model.Batch{}, batch.ErrBatchNotFound
		},
	}
	svc := newTestService(nil, nil, repo)

	_, _, err := svc.GetBatch(context.Background(), uuid.New())

	require.ErrorIs(t, err, batch.ErrBatchNotFound)
}
