package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginGuardLocksAfterMaxFailures(t *testing.T) {
	g := NewLoginGuard(nil, 3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		assert.Equal(t, i, g.RecordFailure(ctx, "10.0.0.1|123456"))
		assert.False(t, g.Locked(ctx, "10.0.0.1|123456"))
	}
	assert.Equal(t, 3, g.RecordFailure(ctx, "10.0.0.1|123456"))
	assert.True(t, g.Locked(ctx, "10.0.0.1|123456"))
	assert.False(t, g.Locked(ctx, "10.0.0.2|123456"), "keys are independent")
}

func TestLoginGuardWindowExpires(t *testing.T) {
	g := NewLoginGuard(nil, 2, time.Minute)
	now := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	ctx := context.Background()

	g.RecordFailure(ctx, "k")
	g.RecordFailure(ctx, "k")
	assert.True(t, g.Locked(ctx, "k"))

	now = now.Add(61 * time.Second)
	assert.False(t, g.Locked(ctx, "k"))
	assert.Equal(t, 1, g.RecordFailure(ctx, "k"))
}

func TestLoginGuardReset(t *testing.T) {
	g := NewLoginGuard(nil, 1, time.Minute)
	ctx := context.Background()

	g.RecordFailure(ctx, "k")
	assert.True(t, g.Locked(ctx, "k"))
	g.Reset(ctx, "k")
	assert.False(t, g.Locked(ctx, "k"))
}

func TestLoginGuardDisabled(t *testing.T) {
	g := NewLoginGuard(nil, 0, time.Minute)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		g.RecordFailure(ctx, "k")
	}
	assert.False(t, g.Locked(ctx, "k"))
}
