//go:build integration

package rediscache

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"example.com/carbon/internal/persistence/memory"
)

func TestStoreAgainstRedis(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb, err := Dial(ctx, endpoint)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	inner := &countingStore{RecordStore: memory.NewStore()}
	store := New(inner, rdb, time.Minute, nil)

	rec := sampleRecord(civil.Date{Year: 2025, Month: time.June, Day: 1}, 4)
	_, err = store.UpsertRecord(ctx, &rec)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		history, err := store.FetchHistory(ctx, "tenant-1", "user-1")
		require.NoError(t, err)
		require.Len(t, history, 1)
	}
	require.Equal(t, 1, inner.fetches)

	ttl, err := rdb.TTL(ctx, historyKey("tenant-1", "user-1", 1)).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
}
