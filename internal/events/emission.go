// Package events defines the payloads published for daily emission records.
package events

import "time"

// Event types written to the outbox.
const (
	TypeEmissionRecorded      = "emission.recorded"
	TypeEmissionLimitExceeded = "emission.limit_exceeded"
)

// Kafka topics the outbox publishes to.
const (
	TopicRecords = "emission_records"
	TopicAlerts  = "emission_alerts"
)

// EmissionRecorded is emitted whenever a daily record is created or replaced.
type EmissionRecorded struct {
	RecordID      string             `json:"record_id"`
	TenantID      string             `json:"tenant_id"`
	UserID        string             `json:"user_id"`
	Date          string             `json:"date"`
	Activities    map[string]float64 `json:"activities"`
	Breakdown     map[string]float64 `json:"breakdown"`
	TotalEmission float64            `json:"total_emission"`
	Replaced      bool               `json:"replaced"`
	RecordedAt    time.Time          `json:"recorded_at"`
}

// EmissionLimitExceeded is emitted alongside EmissionRecorded when the daily
// total is above the configured limit.
type EmissionLimitExceeded struct {
	RecordID      string    `json:"record_id"`
	TenantID      string    `json:"tenant_id"`
	UserID        string    `json:"user_id"`
	Date          string    `json:"date"`
	TotalEmission float64   `json:"total_emission"`
	LimitKg       float64   `json:"limit_kg"`
	ExcessKg      float64   `json:"excess_kg"`
	OccurredAt    time.Time `json:"occurred_at"`
}
