// Package kafka publishes delivery events to Kafka
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/Marinerbyte/Ytmagic/config"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/deps"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/dto"
	"github.com/Marinerbyte/Ytmagic/internal/domain/media/entities"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/metrics"
)

// DefaultTopic receives delivery events when KAFKA_TOPIC is not set
const DefaultTopic = "media.deliveries"

// Producer implements deps.DeliveryEventProducer
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

var _ deps.DeliveryEventProducer = (*Producer)(nil)

// NewProducer creates a new Kafka producer
func NewProducer(cfg *config.KafkaConfig, m *metrics.Metrics, logger zerolog.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers specified")
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Info().Strs("brokers", cfg.Brokers).Msg("Kafka producer initialized successfully")

	return newProducer(producer, cfg.Topic, m, logger), nil
}

func newProducer(producer sarama.SyncProducer, topic string, m *metrics.Metrics, logger zerolog.Logger) *Producer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Producer{
		producer: producer,
		topic:    topic,
		metrics:  m,
		logger:   logger.With().Str("component", "kafka_producer").Logger(),
	}
}

// SendDeliveryFinished publishes one finished attempt keyed by chat
func (p *Producer) SendDeliveryFinished(ctx context.Context, attempt *entities.DeliveryAttempt) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	finishedAt := attempt.CreatedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}

	event := dto.DeliveryEvent{
		ChatID:     attempt.ChatID,
		VideoID:    attempt.VideoID,
		FormatID:   attempt.FormatID,
		Title:      attempt.Title,
		Bytes:      attempt.Bytes,
		Outcome:    attempt.Outcome,
		Reason:     attempt.Reason,
		DurationMS: attempt.Duration.Milliseconds(),
		FinishedAt: finishedAt.UTC().Format(time.RFC3339),
	}

	jsonData, err := json.Marshal(event)
	if err != nil {
		p.metrics.RecordKafkaError("marshal")
		return fmt.Errorf("failed to marshal event to JSON: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(attempt.ChatID, 10)),
		Value: sarama.ByteEncoder(jsonData),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		p.metrics.RecordKafkaError("send")
		p.logger.Error().Err(err).Str("topic", p.topic).Msg("Failed to send Kafka message")
		return fmt.Errorf("send delivery event: %w", err)
	}

	p.metrics.RecordKafkaMessage()
	p.logger.Debug().
		Str("topic", p.topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Kafka message sent successfully")

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	if p.producer == nil {
		return nil
	}
	if err := p.producer.Close(); err != nil {
		p.logger.Error().Err(err).Msg("Failed to close Kafka producer")
		return err
	}
	p.logger.Info().Msg("Kafka producer closed successfully")
	return nil
}

// NoopProducer is used when no brokers are configured
type NoopProducer struct{}

// SendDeliveryFinished discards the attempt
func (NoopProducer) SendDeliveryFinished(context.Context, *entities.DeliveryAttempt) error {
	return nil
}

// Close does nothing
func (NoopProducer) Close() error {
	return nil
}
