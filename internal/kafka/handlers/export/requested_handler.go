package export

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/markforge/watermark-engine/internal/model"
)

type service interface {
	ProcessBatch(ctx context.Context, req model.ExportRequested) error
}

// RequestedHandler consumes export-requested events and hands them to the
// export service.
type RequestedHandler struct {
	service service
}

func NewRequestedHandler(s service) *RequestedHandler {
	return &RequestedHandler{service: s}
}

func (h *RequestedHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var req model.ExportRequested
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return fmt.Errorf("unmarshal export request: %w", err)
	}

	if err := h.service.ProcessBatch(ctx, req); err != nil {
		return fmt.Errorf("process batch: %w", err)
	}

	return nil
}
