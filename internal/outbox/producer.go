package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/vannoorsab/visionEndeavorius/internal/logging"
)

// KafkaProducer keeps one synchronous writer per topic. Messages sharing a
// key land on the same partition, so a user's events stay ordered.
type KafkaProducer struct {
	brokers []string
	logger  *logging.Logger

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafkaProducer creates a KafkaProducer.
func NewKafkaProducer(brokers []string, logger *logging.Logger) *KafkaProducer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &KafkaProducer{
		brokers: brokers,
		logger:  logger.With("component", "kafka_producer"),
		writers: make(map[string]*kafka.Writer),
	}
}

// WriteMessages writes msgs to topic, creating its writer on first use.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	return p.writer(topic).WriteMessages(ctx, msgs...)
}

func (p *KafkaProducer) writer(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		BatchTimeout: 50 * time.Millisecond,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			p.logger.Warn("kafka writer error", "topic", topic, "detail", fmt.Sprintf(msg, args...))
		}),
	}
	p.writers[topic] = w
	return w
}

// Close flushes and releases every writer.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}
