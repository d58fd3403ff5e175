package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvancerCountsDownAndFiresOnce(t *testing.T) {
	var fired atomic.Int32
	var target atomic.Value
	ticks := make(chan int, 32)

	adv := NewAdvancer(AdvancerConfig{
		Countdown: 50 * time.Millisecond,
		TickEvery: 10 * time.Millisecond,
		OnTick:    func(remaining int) { ticks <- remaining },
		OnNavigate: func(ref string) {
			fired.Add(1)
			target.Store(ref)
		},
	})

	require.True(t, adv.Begin("/watch/next/2"))
	assert.Equal(t, AdvanceCounting, adv.State())

	// First tick is immediate and carries the full countdown.
	select {
	case remaining := <-ticks:
		assert.Equal(t, 5, remaining)
	case <-time.After(time.Second):
		t.Fatal("no initial tick")
	}

	assert.Eventually(t, func() bool {
		return adv.State() == AdvanceFired
	}, time.Second, 5*time.Millisecond)

	// Give any stray timer a chance to misfire.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, "/watch/next/2", target.Load())
}

func TestAdvancerBeginOnlyFromIdle(t *testing.T) {
	adv := NewAdvancer(AdvancerConfig{Countdown: time.Hour})
	require.True(t, adv.Begin("a"))
	assert.False(t, adv.Begin("b"))
	adv.Stop()
	assert.False(t, adv.Begin("c"))
}

func TestAdvancerCancelPreventsNavigation(t *testing.T) {
	var fired atomic.Int32
	adv := NewAdvancer(AdvancerConfig{
		Countdown:  40 * time.Millisecond,
		TickEvery:  10 * time.Millisecond,
		OnNavigate: func(string) { fired.Add(1) },
	})

	require.True(t, adv.Begin("/watch/next/2"))
	require.True(t, adv.Cancel())
	assert.Equal(t, AdvanceCanceled, adv.State())

	// Past the original deadline: nothing may fire.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	// Cancel is not re-entrant once settled.
	assert.False(t, adv.Cancel())
}

func TestAdvancerWatchNowNavigatesImmediately(t *testing.T) {
	var fired atomic.Int32
	adv := NewAdvancer(AdvancerConfig{
		Countdown:  time.Hour,
		OnNavigate: func(string) { fired.Add(1) },
	})

	require.True(t, adv.Begin("/watch/next/2"))
	require.True(t, adv.WatchNow())
	assert.Equal(t, AdvanceFired, adv.State())
	assert.Equal(t, int32(1), fired.Load())

	// The deadline timer is dead; no duplicate navigation.
	assert.False(t, adv.WatchNow())
	assert.Equal(t, int32(1), fired.Load())
}

func TestAdvancerStopIsSafeInAnyState(t *testing.T) {
	adv := NewAdvancer(AdvancerConfig{Countdown: time.Hour})
	adv.Stop() // idle
	adv.Stop() // repeated

	adv = NewAdvancer(AdvancerConfig{
		Countdown:  30 * time.Millisecond,
		OnNavigate: func(string) { t.Error("navigated after stop") },
	})
	require.True(t, adv.Begin("x"))
	adv.Stop()
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, AdvanceCanceled, adv.State())
}

func TestAdvanceStateString(t *testing.T) {
	assert.Equal(t, "idle", AdvanceIdle.String())
	assert.Equal(t, "counting", AdvanceCounting.String())
	assert.Equal(t, "canceled", AdvanceCanceled.String())
	assert.Equal(t, "fired", AdvanceFired.String())
}
