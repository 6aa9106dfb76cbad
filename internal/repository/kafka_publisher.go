package repository

import (
	"context"
	"strings"

	"MarketCast/internal/domain/models"
	domrepo "MarketCast/internal/domain/repository"
	pkgkafka "MarketCast/pkg/kafka"
)

// KafkaPublisher broadcasts records on per-instrument topics. The topic is
// derived deterministically from the instrument identifier so subscribers
// can filter without receiving the whole stream; the message key is the
// identifier so per-instrument ordering survives partitioning.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	prefix   string
}

// NewKafkaPublisher creates a publisher writing under topicPrefix.
func NewKafkaPublisher(producer *pkgkafka.Producer, topicPrefix string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, prefix: topicPrefix}
}

var _ domrepo.RecordPublisher = (*KafkaPublisher)(nil)

// Topic returns the broadcast topic for symbol.
func (p *KafkaPublisher) Topic(symbol string) string {
	return p.prefix + "." + sanitizeTopic(symbol)
}

// Publish hands rec off to the broker. Fire-and-forget beyond broker
// acknowledgment; there is no subscriber-side acking.
func (p *KafkaPublisher) Publish(ctx context.Context, rec *models.OHLCVRecord) error {
	return p.producer.Publish(ctx, p.Topic(rec.Symbol), []byte(rec.Symbol), rec)
}

// Close closes the underlying producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// sanitizeTopic maps a symbol onto Kafka's legal topic alphabet. Symbols
// like "^GSPC" or "BRK.B" carry characters brokers reject.
func sanitizeTopic(symbol string) string {
	var b strings.Builder
	for _, r := range symbol {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
