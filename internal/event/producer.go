// Package event publishes provenance transitions (live data degrading to
// synthetic, synthetic recovering to live) for ops-side consumers. The
// UI-facing signal stays in the response envelope; these events exist so an
// outage shows up somewhere other than user screens.
package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yourorg/crypto-dashboard/internal/model"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Reasons attached to degradation events.
const (
	ReasonRateLimited     = "rate_limited"
	ReasonUpstreamFailure = "upstream_failure"
	ReasonRecovered       = "recovered"
)

// ProvenanceEvent records one data-source transition for a cached query.
type ProvenanceEvent struct {
	ID        string           `json:"id"`
	Operation string           `json:"operation"`
	CacheKey  string           `json:"cache_key"`
	Source    model.DataSource `json:"source"`
	Reason    string           `json:"reason"`
	At        time.Time        `json:"at"`
}

// Publisher delivers provenance events. Implementations must never block
// request handling on delivery problems.
type Publisher interface {
	Publish(ctx context.Context, e ProvenanceEvent)
}

// NoopPublisher drops every event; wired when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ProvenanceEvent) {}

// KafkaPublisher writes provenance events to a single Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic, clientID string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true, // fire and forget, data serving must not wait on Kafka
		Transport: &kafka.Transport{
			ClientID: clientID,
		},
	}

	return &KafkaPublisher{
		writer: writer,
		logger: logger,
	}
}

// Publish sends one event. Failures are logged, never surfaced.
func (p *KafkaPublisher) Publish(ctx context.Context, e ProvenanceEvent) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	value, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("Failed to marshal provenance event", zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(e.CacheKey),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("Failed to publish provenance event",
			zap.Error(err),
			zap.String("operation", e.Operation))
	}
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
