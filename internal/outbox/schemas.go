package outbox

import "example.com/carbon/internal/events"

const emissionRecordedSchema = `{
  "type": "object",
  "title": "EmissionRecorded",
  "properties": {
    "record_id": {"type": "string"},
    "tenant_id": {"type": "string"},
    "user_id": {"type": "string"},
    "date": {"type": "string", "format": "date"},
    "activities": {"type": "object", "additionalProperties": {"type": "number", "minimum": 0}},
    "breakdown": {"type": "object", "additionalProperties": {"type": "number", "minimum": 0}},
    "total_emission": {"type": "number", "minimum": 0},
    "replaced": {"type": "boolean"},
    "recorded_at": {"type": "string", "format": "date-time"}
  },
  "required": ["record_id", "tenant_id", "user_id", "date", "activities", "breakdown", "total_emission", "replaced", "recorded_at"],
  "additionalProperties": false
}`

const emissionLimitExceededSchema = `{
  "type": "object",
  "title": "EmissionLimitExceeded",
  "properties": {
    "record_id": {"type": "string"},
    "tenant_id": {"type": "string"},
    "user_id": {"type": "string"},
    "date": {"type": "string", "format": "date"},
    "total_emission": {"type": "number"},
    "limit_kg": {"type": "number"},
    "excess_kg": {"type": "number"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["record_id", "tenant_id", "user_id", "date", "total_emission", "limit_kg", "excess_kg", "occurred_at"],
  "additionalProperties": false
}`

// SchemaCatalogEntry maps event type to schema definition.
type SchemaCatalogEntry struct {
	Schema string
}

var schemaCatalog = map[string]SchemaCatalogEntry{
	events.TypeEmissionRecorded: {
		Schema: emissionRecordedSchema,
	},
	events.TypeEmissionLimitExceeded: {
		Schema: emissionLimitExceededSchema,
	},
}
