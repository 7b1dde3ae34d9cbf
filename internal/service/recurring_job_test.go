package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	mu    sync.Mutex
	calls []time.Time
	errs  []error
}

func (g *fakeGenerator) GenerateDue(_ context.Context, now time.Time) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, now)
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		return 0, err
	}
	return 1, nil
}

func TestUntilNextMidnightUTC(t *testing.T) {
	now := time.Date(2024, 3, 10, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, 90*time.Minute, untilNextMidnightUTC(now))

	midnight := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 24*time.Hour, untilNextMidnightUTC(midnight))

	paris := time.FixedZone("CET", 3600)
	assert.Equal(t, 90*time.Minute, untilNextMidnightUTC(now.In(paris)))
}

func TestRecurringJobRun(t *testing.T) {
	gen := &fakeGenerator{errs: []error{errors.New("db down")}}
	job := NewRecurringJob(gen, zap.NewNop().Sugar(), time.Minute)

	clock := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return clock }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sleeps []time.Duration
	job.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		if len(sleeps) == 4 {
			cancel()
			return ctx.Err()
		}
		clock = clock.Add(d)
		return nil
	}

	done := make(chan struct{})
	go func() {
		job.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not stop")
	}

	require.Len(t, sleeps, 4)
	assert.Equal(t, time.Hour, sleeps[0])
	assert.Equal(t, time.Minute, sleeps[1], "retry delay after a failed run")
	assert.Equal(t, 24*time.Hour-time.Minute, sleeps[2])

	require.Len(t, gen.calls, 2)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), gen.calls[0])
	assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), gen.calls[1])
}

func TestSleepContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
}
