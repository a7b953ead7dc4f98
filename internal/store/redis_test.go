package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	ctx := context.Background()

	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { ctr.Terminate(context.Background()) })

	url, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	var n atomic.Int64
	testStoreContract(t, func(t *testing.T) Store {
		// A fresh prefix per subtest keeps the counters independent.
		s, err := OpenRedisStore(ctx, url, fmt.Sprintf("test%d", n.Add(1)))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}
