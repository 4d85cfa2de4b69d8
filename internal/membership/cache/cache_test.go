package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"ms-vouchers/internal/models"
)

// startRedis spins up a throwaway redis container. Skipped when no
// docker daemon is reachable so the rest of the suite stays runnable on
// a bare checkout.
func startRedis(t *testing.T) string {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("docker not available, skipping redis cache test: %v", err)
	}
	t.Cleanup(func() {
		container.Terminate(ctx)
	})

	endpoint, err := container.Endpoint(ctx, "")
	assert.NoError(t, err)
	return endpoint
}

func TestCacheRoundTrip(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	client, err := InitializeCache(addr, time.Minute, nil)
	assert.NoError(t, err)
	defer client.Close()

	c := New(client, time.Minute, nil)

	member := &models.Member{ID: "m1", Name: "Alice", Token: "tok-1", ValidUntil: "2027-12-31", Active: true}
	c.SetMember(ctx, member)

	got, err := c.GetMember(ctx, "tok-1")
	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "2027-12-31", got.ValidUntil)
}

func TestCacheMissAndInvalidate(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	client, err := InitializeCache(addr, time.Minute, nil)
	assert.NoError(t, err)
	defer client.Close()

	c := New(client, time.Minute, nil)

	// Unknown token is a plain miss, not an error.
	got, err := c.GetMember(ctx, "never-cached")
	assert.NoError(t, err)
	assert.Nil(t, got)

	member := &models.Member{ID: "m1", Name: "Alice", Token: "tok-1", Active: true}
	c.SetMember(ctx, member)
	c.Invalidate(ctx, "tok-1")

	got, err = c.GetMember(ctx, "tok-1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheCorruptEntryDegradesToMiss(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	client, err := InitializeCache(addr, time.Minute, nil)
	assert.NoError(t, err)
	defer client.Close()

	c := New(client, time.Minute, nil)

	assert.NoError(t, client.Set(ctx, tokenKeyPrefix+"tok-bad", "{not json", time.Minute).Err())

	got, err := c.GetMember(ctx, "tok-bad")
	assert.NoError(t, err)
	assert.Nil(t, got)

	// The corrupt entry is dropped on read.
	exists, err := client.Exists(ctx, tokenKeyPrefix+"tok-bad").Result()
	assert.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}
