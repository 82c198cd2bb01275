package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"example.com/carbon/internal/config"
	"example.com/carbon/internal/events"
)

// Measurements written by InfluxHandler.
const (
	MeasurementDailyTotal    = "daily_emission"
	MeasurementActivity      = "activity_emission"
	MeasurementLimitExceeded = "emission_limit_exceeded"
)

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxHandler projects emission events into InfluxDB time series. Daily
// points are stamped at midnight UTC of the record date, so a replaced record
// overwrites the earlier points for that day.
type InfluxHandler struct {
	writer pointWriter
}

// NewInfluxHandler constructs a handler around a blocking write API.
func NewInfluxHandler(writer pointWriter) *InfluxHandler {
	return &InfluxHandler{writer: writer}
}

// InfluxSink owns the InfluxDB client backing an InfluxHandler.
type InfluxSink struct {
	*InfluxHandler
	client influxdb2.Client
}

// NewInfluxSink connects to InfluxDB and verifies the server is healthy.
func NewInfluxSink(ctx context.Context, cfg config.InfluxDBConfig) (*InfluxSink, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb health check: %w", err)
	}
	return &InfluxSink{
		InfluxHandler: NewInfluxHandler(client.WriteAPIBlocking(cfg.Org, cfg.Bucket)),
		client:        client,
	}, nil
}

// Close releases the client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

// Handle writes points for known event types and ignores the rest.
func (h *InfluxHandler) Handle(ctx context.Context, msg Message) error {
	switch msg.EventType {
	case events.TypeEmissionRecorded:
		var evt events.EmissionRecorded
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode %s: %w", msg.EventType, err)
		}
		return h.writeRecorded(ctx, evt)
	case events.TypeEmissionLimitExceeded:
		var evt events.EmissionLimitExceeded
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode %s: %w", msg.EventType, err)
		}
		return h.writeLimitExceeded(ctx, evt)
	default:
		return nil
	}
}

func (h *InfluxHandler) writeRecorded(ctx context.Context, evt events.EmissionRecorded) error {
	ts, err := dayTimestamp(evt.Date)
	if err != nil {
		return err
	}
	tags := map[string]string{"tenant_id": evt.TenantID, "user_id": evt.UserID}

	points := []*write.Point{
		write.NewPoint(MeasurementDailyTotal, tags, map[string]interface{}{
			"total_kg": evt.TotalEmission,
		}, ts),
	}

	activities := make([]string, 0, len(evt.Breakdown))
	for activity := range evt.Breakdown {
		activities = append(activities, activity)
	}
	sort.Strings(activities)
	for _, activity := range activities {
		points = append(points, write.NewPoint(MeasurementActivity, map[string]string{
			"tenant_id": evt.TenantID,
			"user_id":   evt.UserID,
			"activity":  activity,
		}, map[string]interface{}{
			"quantity": evt.Activities[activity],
			"kg":       evt.Breakdown[activity],
		}, ts))
	}

	if err := h.writer.WritePoint(ctx, points...); err != nil {
		return err
	}
	recordPointsWritten(MeasurementDailyTotal, 1)
	recordPointsWritten(MeasurementActivity, len(activities))
	return nil
}

func (h *InfluxHandler) writeLimitExceeded(ctx context.Context, evt events.EmissionLimitExceeded) error {
	ts, err := dayTimestamp(evt.Date)
	if err != nil {
		return err
	}
	point := write.NewPoint(MeasurementLimitExceeded, map[string]string{
		"tenant_id": evt.TenantID,
		"user_id":   evt.UserID,
	}, map[string]interface{}{
		"total_kg":  evt.TotalEmission,
		"limit_kg":  evt.LimitKg,
		"excess_kg": evt.ExcessKg,
	}, ts)

	if err := h.writer.WritePoint(ctx, point); err != nil {
		return err
	}
	recordPointsWritten(MeasurementLimitExceeded, 1)
	return nil
}

func dayTimestamp(date string) (time.Time, error) {
	d, err := civil.ParseDate(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid record date %q: %w", date, err)
	}
	return d.In(time.UTC), nil
}
