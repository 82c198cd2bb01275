package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher holds one synchronous writer per emission topic. Messages are
// hashed on their key, the tenant and user, so a user's records stay ordered on
// a single partition.
type KafkaPublisher struct {
	brokers []string

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafkaPublisher prepares writers for topics up front. Other topics get a
// writer on first use.
func NewKafkaPublisher(brokers []string, topics ...string) *KafkaPublisher {
	p := &KafkaPublisher{
		brokers: brokers,
		writers: make(map[string]*kafka.Writer, len(topics)),
	}
	for _, topic := range topics {
		p.writers[topic] = p.newWriter(topic)
	}
	return p
}

// WriteMessages publishes msgs to topic and waits for every in-sync replica.
func (p *KafkaPublisher) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	return p.writer(topic).WriteMessages(ctx, msgs...)
}

func (p *KafkaPublisher) writer(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.writers[topic]
	if !ok {
		w = p.newWriter(topic)
		p.writers[topic] = w
	}
	return w
}

func (p *KafkaPublisher) newWriter(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		// The dispatcher hands over whole batches; do not linger for more.
		BatchTimeout: 10 * time.Millisecond,
	}
}

// Close flushes and releases every writer. It is safe to call more than once.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(p.writers, topic)
	}
	return errors.Join(errs...)
}
