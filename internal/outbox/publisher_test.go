package outbox

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/carbon/internal/events"
)

func TestKafkaPublisherPreparesEmissionTopics(t *testing.T) {
	p := NewKafkaPublisher([]string{"kafka:9092"}, events.TopicRecords, events.TopicAlerts)
	t.Cleanup(func() { _ = p.Close() })

	require.Len(t, p.writers, 2)
	records := p.writers[events.TopicRecords]
	require.NotNil(t, records)
	assert.Same(t, records, p.writer(events.TopicRecords))
	assert.Equal(t, events.TopicRecords, records.Topic)
	assert.Equal(t, kafka.RequireAll, records.RequiredAcks)
	assert.IsType(t, &kafka.Hash{}, records.Balancer)
	assert.Equal(t, 10*time.Millisecond, records.BatchTimeout)
}

func TestKafkaPublisherAddsWritersOnDemand(t *testing.T) {
	p := NewKafkaPublisher([]string{"kafka:9092"})

	w := p.writer("emission_replays")
	assert.Same(t, w, p.writer("emission_replays"))
	assert.Len(t, p.writers, 1)

	require.NoError(t, p.Close())
	assert.Empty(t, p.writers)
	require.NoError(t, p.Close())
}
