package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/carbon/internal/events"
)

func TestInfluxHandlerWritesDailyAndActivityPoints(t *testing.T) {
	writer := &stubPointWriter{}
	handler := NewInfluxHandler(writer)

	msg := eventMessage(t, events.TypeEmissionRecorded, events.EmissionRecorded{
		RecordID:      "r-1",
		TenantID:      "tenant-1",
		UserID:        "user-1",
		Date:          "2025-03-03",
		Activities:    map[string]float64{"petrol": 10, "electricity": 50},
		Breakdown:     map[string]float64{"petrol": 23.1, "electricity": 13.85},
		TotalEmission: 36.95,
		RecordedAt:    time.Date(2025, time.March, 3, 18, 0, 0, 0, time.UTC),
	})
	require.NoError(t, handler.Handle(context.Background(), msg))

	require.Len(t, writer.points, 3)
	midnight := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	for _, p := range writer.points {
		assert.Equal(t, midnight, p.Time())
	}

	lines := writer.lines()
	assert.Contains(t, lines[0], "daily_emission,tenant_id=tenant-1,user_id=user-1 total_kg=36.95 1740960000000000000")
	assert.Contains(t, lines[1], "activity_emission,activity=electricity,tenant_id=tenant-1,user_id=user-1")
	assert.Contains(t, lines[1], "kg=13.85")
	assert.Contains(t, lines[1], "quantity=50")
	assert.Contains(t, lines[2], "activity=petrol")
}

func TestInfluxHandlerWritesLimitExceeded(t *testing.T) {
	writer := &stubPointWriter{}
	handler := NewInfluxHandler(writer)

	msg := eventMessage(t, events.TypeEmissionLimitExceeded, events.EmissionLimitExceeded{
		RecordID:      "r-1",
		TenantID:      "tenant-1",
		UserID:        "user-1",
		Date:          "2025-03-03",
		TotalEmission: 120,
		LimitKg:       70,
		ExcessKg:      50,
	})
	require.NoError(t, handler.Handle(context.Background(), msg))

	require.Len(t, writer.points, 1)
	line := writer.lines()[0]
	assert.Contains(t, line, "emission_limit_exceeded,tenant_id=tenant-1,user_id=user-1")
	assert.Contains(t, line, "excess_kg=50")
}

func TestInfluxHandlerErrors(t *testing.T) {
	t.Run("unknown event types are ignored", func(t *testing.T) {
		writer := &stubPointWriter{}
		err := NewInfluxHandler(writer).Handle(context.Background(), Message{EventType: "emission.deleted", Payload: json.RawMessage(`{}`)})
		require.NoError(t, err)
		assert.Empty(t, writer.points)
	})

	t.Run("bad date", func(t *testing.T) {
		msg := eventMessage(t, events.TypeEmissionRecorded, events.EmissionRecorded{Date: "03/03/2025"})
		err := NewInfluxHandler(&stubPointWriter{}).Handle(context.Background(), msg)
		require.ErrorContains(t, err, "invalid record date")
	})

	t.Run("write failure", func(t *testing.T) {
		msg := eventMessage(t, events.TypeEmissionRecorded, events.EmissionRecorded{Date: "2025-03-03"})
		err := NewInfluxHandler(&stubPointWriter{err: errors.New("unauthorized")}).Handle(context.Background(), msg)
		require.EqualError(t, err, "unauthorized")
	})

	t.Run("malformed payload", func(t *testing.T) {
		msg := Message{EventType: events.TypeEmissionRecorded, Payload: json.RawMessage(`{`)}
		err := NewInfluxHandler(&stubPointWriter{}).Handle(context.Background(), msg)
		require.Error(t, err)
	})
}

func eventMessage(t *testing.T, eventType string, payload any) Message {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return Message{Topic: "emission_records", EventType: eventType, TenantID: "tenant-1", Payload: body}
}

type stubPointWriter struct {
	points []*write.Point
	err    error
}

func (s *stubPointWriter) WritePoint(_ context.Context, point ...*write.Point) error {
	if s.err != nil {
		return s.err
	}
	s.points = append(s.points, point...)
	return nil
}

func (s *stubPointWriter) lines() []string {
	out := make([]string, 0, len(s.points))
	for _, p := range s.points {
		out = append(out, write.PointToLineProtocol(p, time.Nanosecond))
	}
	return out
}
