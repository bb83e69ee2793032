package producer

import (
	"context"
	"encoding/json"
	"fmt"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"

	"github.com/markforge/watermark-engine/internal/config"
	"github.com/markforge/watermark-engine/internal/model"
)

// Producer publishes export-requested events to Kafka.
type Producer struct {
	Client   *wbfkafka.Producer
	strategy retry.Strategy
	cfg      *config.Kafka
}

// New creates a new Producer.
// - cfg: Kafka configuration struct
// - s: retry strategy
func New(
	cfg *config.Kafka,
	s retry.Strategy,
) *Producer {
	producer := wbfkafka.NewProducer(cfg.Brokers, cfg.Topic)

	return &Producer{
		Client:   producer,
		cfg:      cfg,
		strategy: s,
	}
}

// Produce serializes the export request to JSON and sends it to Kafka.
// The batch ID is used as the message key for partitioning and ordering.
func (p *Producer) Produce(ctx context.Context, req model.ExportRequested) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal export request: %v", err)
	}

	key := []byte(req.BatchID.String())

	if err = p.Client.SendWithRetry(ctx, p.strategy, key, data); err != nil {
		return fmt.Errorf("failed to send export request: %v", err)
	}

	return nil
}
