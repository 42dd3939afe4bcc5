package seatevents

import (
	"context"
	"fmt"
	"time"

	"seatengine/pkg/logger"

	"github.com/IBM/sarama"
)

// Publisher publishes committed seat and booking changes
type Publisher interface {
	PublishSeatEvent(ctx context.Context, event *SeatEvent) error
	PublishBookingEvent(ctx context.Context, event *BookingEvent) error
	Close() error
}

// ProducerConfig contains configuration for the Kafka seat event producer
type ProducerConfig struct {
	Brokers            []string
	ClientID           string
	SeatEventsTopic    string
	BookingEventsTopic string
	RetryMax           int
	Timeout            time.Duration
	RequiredAcks       sarama.RequiredAcks
	CompressionType    sarama.CompressionCodec
	IdempotentWrites   bool
	MaxMessageBytes    int
}

// DefaultProducerConfig returns a default producer configuration
func DefaultProducerConfig() *ProducerConfig {
	return &ProducerConfig{
		Brokers:            []string{"localhost:9092"},
		ClientID:           "seatengine",
		SeatEventsTopic:    "seat-events",
		BookingEventsTopic: "booking-events",
		RetryMax:           3,
		Timeout:            10 * time.Second,
		RequiredAcks:       sarama.WaitForAll,
		CompressionType:    sarama.CompressionSnappy,
		IdempotentWrites:   true,
		MaxMessageBytes:    1000000, // 1MB
	}
}

// KafkaPublisher publishes events with a sarama SyncProducer
type KafkaPublisher struct {
	producer sarama.SyncProducer
	config   *ProducerConfig
	logger   *logger.Logger
}

// NewKafkaPublisher connects a new sync producer to the brokers
func NewKafkaPublisher(config *ProducerConfig) (*KafkaPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = config.ClientID

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = config.Timeout
	saramaConfig.Producer.Idempotent = config.IdempotentWrites
	saramaConfig.Producer.MaxMessageBytes = config.MaxMessageBytes

	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Hash partitioner keeps one floor plan's events ordered
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return NewKafkaPublisherWithProducer(producer, config), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, config *ProducerConfig) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		config:   config,
		logger:   logger.GetDefault(),
	}
}

func (p *KafkaPublisher) PublishSeatEvent(ctx context.Context, event *SeatEvent) error {
	payload, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal seat event: %w", err)
	}

	headers := []sarama.RecordHeader{
		{Key: []byte("event_id"), Value: []byte(event.ID.String())},
		{Key: []byte("event_type"), Value: []byte(event.Type)},
		{Key: []byte("floor_plan_id"), Value: []byte(event.FloorPlanID.String())},
		{Key: []byte("producer"), Value: []byte(p.config.ClientID)},
	}
	if event.HoldID != nil {
		headers = append(headers, sarama.RecordHeader{Key: []byte("hold_id"), Value: []byte(event.HoldID.String())})
	}
	if event.BookingID != nil {
		headers = append(headers, sarama.RecordHeader{Key: []byte("booking_id"), Value: []byte(event.BookingID.String())})
	}

	return p.send(ctx, &sarama.ProducerMessage{
		Topic:     p.config.SeatEventsTopic,
		Key:       sarama.StringEncoder(event.PartitionKey()),
		Value:     sarama.ByteEncoder(payload),
		Headers:   headers,
		Timestamp: event.OccurredAt,
	})
}

func (p *KafkaPublisher) PublishBookingEvent(ctx context.Context, event *BookingEvent) error {
	payload, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal booking event: %w", err)
	}

	return p.send(ctx, &sarama.ProducerMessage{
		Topic: p.config.BookingEventsTopic,
		Key:   sarama.StringEncoder(event.PartitionKey()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(event.ID.String())},
			{Key: []byte("event_type"), Value: []byte(event.Type)},
			{Key: []byte("booking_reference"), Value: []byte(event.Reference)},
			{Key: []byte("producer"), Value: []byte(p.config.ClientID)},
		},
		Timestamp: event.OccurredAt,
	})
}

func (p *KafkaPublisher) send(ctx context.Context, msg *sarama.ProducerMessage) error {
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message to Kafka topic %s: %w", msg.Topic, err)
	}

	p.logger.DebugWithContext(ctx, "Event published to Kafka", map[string]interface{}{
		"topic":     msg.Topic,
		"partition": partition,
		"offset":    offset,
	})
	return nil
}

// Close closes the Kafka producer
func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka producer: %w", err)
		}
	}
	return nil
}

// NoopPublisher drops every event. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishSeatEvent(context.Context, *SeatEvent) error       { return nil }
func (NoopPublisher) PublishBookingEvent(context.Context, *BookingEvent) error { return nil }
func (NoopPublisher) Close() error                                             { return nil }
