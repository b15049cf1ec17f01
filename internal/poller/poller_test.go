package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerImmediateAndInterval(t *testing.T) {
	var calls atomic.Int32
	p := New(Options{Name: "counter", Interval: 20 * time.Millisecond}, func(ctx context.Context) (int32, error) {
		return calls.Add(1), nil
	}, nil)

	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool {
		_, ok := p.Latest()
		return ok
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestPollerDiscardsOutOfOrderResult(t *testing.T) {
	release := make(chan struct{})
	var n atomic.Int32
	var stale atomic.Int32

	p := New(Options{
		Name:     "battle",
		Interval: time.Hour,
		Hooks:    Hooks{OnStale: func(string) { stale.Add(1) }},
	}, func(ctx context.Context) (string, error) {
		if n.Add(1) == 1 {
			<-release // a primeira leitura responde por último
			return "old", nil
		}
		return "new", nil
	}, nil)

	p.Start(context.Background())
	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, time.Millisecond)

	p.Trigger()
	require.Eventually(t, func() bool {
		v, ok := p.Latest()
		return ok && v == "new"
	}, time.Second, time.Millisecond)

	close(release)
	require.Eventually(t, func() bool { return stale.Load() == 1 }, time.Second, time.Millisecond)

	v, _ := p.Latest()
	assert.Equal(t, "new", v)
	p.Stop()
}

func TestPollerKeepsPreviousValueOnError(t *testing.T) {
	var n atomic.Int32
	var errs atomic.Int32
	boom := errors.New("rpc down")

	p := New(Options{
		Name:     "monsters",
		Interval: time.Hour,
		Hooks:    Hooks{OnError: func(string, error) { errs.Add(1) }},
	}, func(ctx context.Context) (int, error) {
		if n.Add(1) == 1 {
			return 42, nil
		}
		return 0, boom
	}, nil)

	p.Start(context.Background())
	defer p.Stop()
	require.Eventually(t, func() bool { _, ok := p.Latest(); return ok }, time.Second, time.Millisecond)

	p.Trigger()
	require.Eventually(t, func() bool { return errs.Load() == 1 }, time.Second, time.Millisecond)

	v, ok := p.Latest()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
	assert.ErrorIs(t, p.Err(), boom)
}

func TestPollerDisabledClearsValue(t *testing.T) {
	var enabled atomic.Bool
	enabled.Store(true)
	var updates atomic.Int32

	p := New(Options{Name: "userBets", Interval: time.Hour}, func(ctx context.Context) (int, error) {
		if !enabled.Load() {
			return 0, ErrDisabled
		}
		return 7, nil
	}, func(int) { updates.Add(1) })

	p.Start(context.Background())
	defer p.Stop()
	require.Eventually(t, func() bool { return updates.Load() == 1 }, time.Second, time.Millisecond)

	enabled.Store(false)
	p.Trigger()
	require.Eventually(t, func() bool { _, ok := p.Latest(); return !ok }, time.Second, time.Millisecond)
	assert.NoError(t, p.Err())
}

func TestPollerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	p := New(Options{Name: "prices", Interval: 5 * time.Millisecond}, func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 1, nil
	}, nil)

	p.Start(ctx)
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()
	p.Stop()

	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}

func TestPollerNeverDeliversOlderAfterNewer(t *testing.T) {
	release := make(chan struct{})
	var hookCalls, n atomic.Int32
	var mu sync.Mutex
	var delivered []string

	p := New(Options{
		Name:     "battle",
		Interval: time.Hour,
		Hooks: Hooks{OnPoll: func(string) {
			if hookCalls.Add(1) == 1 {
				<-release // a primeira entrega fica parada entre o store e o onUpdate
			}
		}},
	}, func(ctx context.Context) (string, error) {
		if n.Add(1) == 1 {
			return "old", nil
		}
		return "new", nil
	}, func(v string) {
		mu.Lock()
		delivered = append(delivered, v)
		mu.Unlock()
	})

	p.Start(context.Background())
	require.Eventually(t, func() bool { return hookCalls.Load() == 1 }, time.Second, time.Millisecond)

	p.Trigger()
	require.Eventually(t, func() bool {
		v, ok := p.Latest()
		return ok && v == "new"
	}, time.Second, time.Millisecond)

	close(release)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delivered) == 1
	}, time.Second, time.Millisecond)
	p.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"new"}, delivered)
	v, _ := p.Latest()
	assert.Equal(t, "new", v)
}

func TestNewSeqReportsReadSequence(t *testing.T) {
	seqs := make(chan uint64, 4)
	p := NewSeq(Options{Name: "userBets", Interval: time.Hour}, func(ctx context.Context) (int, error) {
		return 1, nil
	}, func(_ int, seq uint64) { seqs <- seq })

	p.Start(context.Background())
	defer p.Stop()

	first := <-seqs
	mark := p.Issued()
	assert.GreaterOrEqual(t, mark, first)

	p.Trigger()
	select {
	case next := <-seqs:
		assert.Greater(t, next, mark)
	case <-time.After(time.Second):
		t.Fatal("no delivery after trigger")
	}
}
