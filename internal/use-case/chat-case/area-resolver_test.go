package chat_service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisAreaResolver(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	resolver := NewRedisAreaResolver(client)

	_, err := mr.SAdd("area_managers:hyderabad", "mgr-1", "mgr-2")
	require.NoError(t, err)

	managers, err := resolver.ManagersForArea(context.Background(), "hyderabad")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"mgr-1", "mgr-2"}, managers)

	empty, err := resolver.ManagersForArea(context.Background(), "unknown-area")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRoomLocks_SameRoomSameMutex(t *testing.T) {
	locks := newRoomLocks()
	assert.Same(t, locks.get("DIRECT_a_b"), locks.get("DIRECT_a_b"))
	assert.NotSame(t, locks.get("DIRECT_a_b"), locks.get("DIRECT_a_c"))
}
