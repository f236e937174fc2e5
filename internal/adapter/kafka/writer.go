package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/msm-weather-map/internal/config"
	"github.com/couchcryptid/msm-weather-map/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Message header keys.
const (
	HeaderCycle  = "cycle"
	HeaderDigest = "digest"
	HeaderTimes  = "times"
)

// Writer publishes finished payloads to a Kafka topic, one message per run.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured payload topic.
// Payloads are large, so messages are zstd-compressed and the batch limit is
// raised to KAFKA_MAX_MESSAGE_BYTES. The topic's max.message.bytes must allow it.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		Compression:  kafkago.Zstd,
		BatchBytes:   int64(cfg.KafkaMaxMessageBytes),
		BatchSize:    1,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish sends the artifact keyed by its cycle stamp.
func (w *Writer) Publish(ctx context.Context, a domain.Artifact) error {
	msg := artifactToMessage(a)
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish payload to %s: %w", w.writer.Topic, err)
	}
	w.logger.Info("payload published", "topic", w.writer.Topic, "key", string(msg.Key), "bytes", len(msg.Value))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// artifactToMessage maps an artifact onto a Kafka message.
func artifactToMessage(a domain.Artifact) kafkago.Message {
	stamp := domain.CycleStamp(a.Cycle)
	return kafkago.Message{
		Key:   []byte(stamp),
		Value: a.Data,
		Headers: []kafkago.Header{
			{Key: HeaderCycle, Value: []byte(a.Cycle.UTC().Format(time.RFC3339))},
			{Key: HeaderDigest, Value: []byte(a.DigestHex())},
			{Key: HeaderTimes, Value: []byte(strconv.Itoa(a.Times))},
		},
	}
}
