package outbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchemaReturnsLatestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/subjects/emission_records-value/versions/latest", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]int{"id": 11})
	}))
	defer srv.Close()

	id, err := NewSchemaRegistryClient(srv.URL+"/").EnsureSchema(context.Background(), "emission_records-value", emissionRecordedSchema)
	require.NoError(t, err)
	assert.Equal(t, 11, id)
}

func TestEnsureSchemaRegistersMissingSubject(t *testing.T) {
	var registered map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPost:
			assert.Equal(t, "/subjects/emission_alerts-value/versions", r.URL.Path)
			assert.Equal(t, "application/vnd.schemaregistry.v1+json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&registered))
			_ = json.NewEncoder(w).Encode(map[string]int{"id": 12})
		}
	}))
	defer srv.Close()

	id, err := NewSchemaRegistryClient(srv.URL).EnsureSchema(context.Background(), "emission_alerts-value", emissionLimitExceededSchema)
	require.NoError(t, err)
	assert.Equal(t, 12, id)
	assert.Equal(t, "JSON", registered["schemaType"])
	assert.Equal(t, emissionLimitExceededSchema, registered["schema"])
}

func TestEnsureSchemaSurfacesRegistryErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"incompatible"}`))
	}))
	defer srv.Close()

	_, err := NewSchemaRegistryClient(srv.URL).EnsureSchema(context.Background(), "emission_alerts-value", "{}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incompatible")
}

func TestEnsureSchemaDoesNotRegisterWhenLookupFails(t *testing.T) {
	var posts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts++
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("backend unavailable\n"))
	}))
	defer srv.Close()

	_, err := NewSchemaRegistryClient(srv.URL).EnsureSchema(context.Background(), "emission_records-value", emissionRecordedSchema)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errSubjectNotFound)
	assert.Contains(t, err.Error(), "status 500: backend unavailable")
	assert.Zero(t, posts)
}
