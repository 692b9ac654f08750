package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"tokoshop/pkg/rabbitmq"

	"github.com/segmentio/kafka-go"
)

// Brokers selectable through EVENTS_BROKER.
const (
	BrokerRabbitMQ = "rabbitmq"
	BrokerKafka    = "kafka"
	BrokerNone     = "none"
)

// DefaultKafkaTopic receives every order event when Kafka is the broker.
const DefaultKafkaTopic = "order-events"

// Message is one outbox event on its way to a broker.
type Message struct {
	EventID   string
	EventType string
	Key       string // order number, keeps events of one order in sequence
	Body      []byte
}

// Publisher delivers messages to a broker.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// RabbitClient is the subset of *rabbitmq.Client used for publishing.
type RabbitClient interface {
	Publish(routingKey, messageID string, body []byte) error
	Close() error
}

// RabbitPublisher routes each event by its type on the order exchange.
type RabbitPublisher struct {
	client RabbitClient
}

func NewRabbitPublisher(client RabbitClient) *RabbitPublisher {
	return &RabbitPublisher{client: client}
}

func (p *RabbitPublisher) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.client.Publish(msg.EventType, msg.EventID, msg.Body)
}

func (p *RabbitPublisher) Close() error {
	return p.client.Close()
}

// MessageWriter is the subset of *kafka.Writer used for publishing.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a single topic keyed by order number.
type KafkaPublisher struct {
	writer MessageWriter
}

// NewKafkaWriter builds the writer used in production.
func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Body, // Already JSON from the outbox
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(msg.EventType)},
			{Key: "event_id", Value: []byte(msg.EventID)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher only logs events. It backs EVENTS_BROKER=none.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, msg Message) error {
	log.Printf("event %s %s for %s: %s", msg.EventType, msg.EventID, msg.Key, compact(msg.Body))
	return nil
}

func (LogPublisher) Close() error { return nil }

func compact(body []byte) string {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	out, _ := json.Marshal(v)
	return string(out)
}

// BrokerConfig selects and configures the event broker.
type BrokerConfig struct {
	Broker       string
	RabbitMQURL  string
	KafkaBrokers []string
	KafkaTopic   string
}

// NewPublisher connects to the configured broker. For RabbitMQ the returned
// client is also handed back so the caller can start a consumer on it.
func NewPublisher(cfg BrokerConfig) (Publisher, *rabbitmq.Client, error) {
	switch strings.ToLower(cfg.Broker) {
	case BrokerRabbitMQ:
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			return nil, nil, err
		}
		return NewRabbitPublisher(client), client, nil
	case BrokerKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, nil, fmt.Errorf("kafka broker selected but KAFKA_BROKERS is empty")
		}
		topic := cfg.KafkaTopic
		if topic == "" {
			topic = DefaultKafkaTopic
		}
		return NewKafkaPublisher(NewKafkaWriter(topic, cfg.KafkaBrokers...)), nil, nil
	case BrokerNone, "":
		return LogPublisher{}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported events broker %q", cfg.Broker)
	}
}
