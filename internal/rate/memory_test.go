package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterEnforcesWindow(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, res.Allowed, "hit %d should be allowed", i+1)
	}

	res, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, int64(0), res.Remaining)
	require.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestVerifyKey(t *testing.T) {
	require.Equal(t, "verify:1.2.3.4", VerifyKey("1.2.3.4"))
	// Los espacios no sobreviven al formato de key de redis.
	require.Equal(t, "verify:no_spaces", VerifyKey("no spaces"))
}

func TestMemoryLimiterIsolatesKeys(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	ctx := context.Background()

	res, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = l.Allow(ctx, "a")
	require.NoError(t, err)
	require.False(t, res.Allowed)

	res, err = l.Allow(ctx, "b")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}
