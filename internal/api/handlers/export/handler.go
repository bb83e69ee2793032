package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/markforge/watermark-engine/internal/api/respond"
	"github.com/markforge/watermark-engine/internal/model"
	"github.com/markforge/watermark-engine/internal/repository/batch"
)

// service defines the interface for export-related operations.
type service interface {
	SubmitBatch(ctx context.Context, req model.ExportRequested) (uuid.UUID, error)
	GetBatch(ctx context.Context, id uuid.UUID) (model.Batch, []batch.ImageRecord, error)
	Preview(ctx context.Context, filename string, data []byte, layers []model.WatermarkLayer, opts model.RenderOptions) (*model.Artifact, error)
}

// Handler provides HTTP handlers for export endpoints.
// It depends on a service interface to perform the business logic.
type Handler struct {
	service service
}

// NewHandler creates a new Handler with the given service.
func NewHandler(s service) *Handler {
	return &Handler{service: s}
}

// SubmitRequest is the batch export payload sent by the client.
type SubmitRequest struct {
	Sources      []model.SourceRef                 `json:"sources"`
	GlobalLayers []model.WatermarkLayer            `json:"global_layers"`
	Overrides    map[string][]model.WatermarkLayer `json:"overrides,omitempty"`
	Options      model.RenderOptions               `json:"options"`
}

// Submit handles the HTTP request for starting a batch export: it persists
// the batch and enqueues it for asynchronous processing.
func (h *Handler) Submit(c *ginext.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Logger.Err(err).Msg("failed to bind export request")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if len(req.Sources) == 0 {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("sources field is required"))
		return
	}

	id, err := h.service.SubmitBatch(c.Request.Context(), model.ExportRequested{
		Sources:      req.Sources,
		GlobalLayers: req.GlobalLayers,
		Overrides:    req.Overrides,
		Options:      req.Options,
	})
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to submit batch")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to submit batch"))
		return
	}

	respond.Created(c, map[string]interface{}{"batch_id": id})
}

// Get returns the state of a batch and its per-image outcomes.
func (h *Handler) Get(c *ginext.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to parse batch id")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid id: %v", err))
		return
	}

	b, records, err := h.service.GetBatch(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, batch.ErrBatchNotFound) {
			zlog.Logger.Warn().Msg("batch not found")
			respond.Fail(c, http.StatusNotFound, fmt.Errorf("batch not found"))
			return
		}

		zlog.Logger.Err(err).Msg("failed to get batch")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to get batch"))
		return
	}

	respond.OK(c, map[string]interface{}{
		"batch":   b,
		"results": records,
	})
}

// Preview renders one uploaded image against a layer list and returns the
// result directly, for cheap editor previews.
func (h *Handler) Preview(c *ginext.Context) {
	// Parse the multipart form with a 10MB max memory limit.
	if err := c.Request.ParseMultipartForm(10 << 20); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("parse multipart form failed: %v", err))
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to read uploaded file")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("failed to retrieve the file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to read uploaded file")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("failed to read the file"))
		return
	}

	layersJSON := c.PostForm("layers")
	if layersJSON == "" {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("layers field is required"))
		return
	}

	var layers []model.WatermarkLayer
	if err := json.Unmarshal([]byte(layersJSON), &layers); err != nil {
		zlog.Logger.Err(err).Msg("failed to unmarshal layers")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("failed to unmarshal the layers"))
		return
	}

	opts := model.RenderOptions{Format: model.FormatJPEG, Quality: 0.8, Scale: 0.5}
	if optionsJSON := c.PostForm("options"); optionsJSON != "" {
		if err := json.Unmarshal([]byte(optionsJSON), &opts); err != nil {
			zlog.Logger.Err(err).Msg("failed to unmarshal options")
			respond.Fail(c, http.StatusBadRequest, fmt.Errorf("failed to unmarshal the options"))
			return
		}
	}

	artifact, err := h.service.Preview(c.Request.Context(), header.Filename, data, layers, opts)
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to render preview")
		respond.Fail(c, http.StatusUnprocessableEntity, fmt.Errorf("failed to render preview"))
		return
	}

	if artifact.Inline != "" {
		respond.OK(c, map[string]interface{}{"preview": artifact.Inline})
		return
	}
	respond.Image(c, http.StatusOK, artifact.MIME, bytes.NewReader(artifact.Bytes))
}
