package session

import (
	"sync"
	"time"
)

// AdvanceState is the lifecycle of one auto-advance countdown.
type AdvanceState int

const (
	// AdvanceIdle: no countdown pending.
	AdvanceIdle AdvanceState = iota
	// AdvanceCounting: countdown running, overlay visible.
	AdvanceCounting
	// AdvanceCanceled: the viewer dismissed the countdown. Terminal.
	AdvanceCanceled
	// AdvanceFired: navigation was triggered. Terminal.
	AdvanceFired
)

func (s AdvanceState) String() string {
	switch s {
	case AdvanceIdle:
		return "idle"
	case AdvanceCounting:
		return "counting"
	case AdvanceCanceled:
		return "canceled"
	case AdvanceFired:
		return "fired"
	default:
		return "unknown"
	}
}

// AdvancerConfig configures one countdown instance.
type AdvancerConfig struct {
	// Countdown is the deadline before navigation fires. Default 5s.
	Countdown time.Duration
	// TickEvery is the cosmetic tick interval. Default 1s. Only the
	// Countdown deadline governs the fired transition.
	TickEvery time.Duration

	// OnTick receives the remaining tick count for display.
	OnTick func(remaining int)
	// OnNavigate fires at most once, with the navigation target.
	OnNavigate func(target string)
}

// Advancer is a single-use cancelable countdown: it either fires a
// navigation once or is canceled, and teardown always leaves no timer
// capable of firing afterwards.
type Advancer struct {
	mu     sync.Mutex
	cfg    AdvancerConfig
	state  AdvanceState
	target string

	remaining int
	deadline  *time.Timer
	tickStop  chan struct{}
}

// NewAdvancer builds an idle countdown.
func NewAdvancer(cfg AdvancerConfig) *Advancer {
	if cfg.Countdown <= 0 {
		cfg.Countdown = 5 * time.Second
	}
	if cfg.TickEvery <= 0 {
		cfg.TickEvery = time.Second
	}
	return &Advancer{cfg: cfg, state: AdvanceIdle}
}

// Begin starts the countdown towards target. Only valid from idle; any
// other state is a no-op returning false.
func (a *Advancer) Begin(target string) bool {
	a.mu.Lock()
	if a.state != AdvanceIdle {
		a.mu.Unlock()
		return false
	}
	a.state = AdvanceCounting
	a.target = target
	a.remaining = int(a.cfg.Countdown / a.cfg.TickEvery)
	remaining := a.remaining
	a.deadline = time.AfterFunc(a.cfg.Countdown, a.fire)
	a.tickStop = make(chan struct{})
	go a.tickLoop(a.tickStop)
	onTick := a.cfg.OnTick
	a.mu.Unlock()

	if onTick != nil {
		onTick(remaining)
	}
	return true
}

// tickLoop decrements the displayed remaining count once per tick,
// floored at zero. Purely cosmetic.
func (a *Advancer) tickLoop(stop chan struct{}) {
	ticker := time.NewTicker(a.cfg.TickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.mu.Lock()
			if a.state != AdvanceCounting {
				a.mu.Unlock()
				return
			}
			if a.remaining > 0 {
				a.remaining--
			}
			remaining := a.remaining
			onTick := a.cfg.OnTick
			a.mu.Unlock()
			if onTick != nil {
				onTick(remaining)
			}
		}
	}
}

// fire is the deadline transition counting -> fired.
func (a *Advancer) fire() {
	a.mu.Lock()
	if a.state != AdvanceCounting {
		a.mu.Unlock()
		return
	}
	a.state = AdvanceFired
	a.stopTimersLocked()
	onNavigate := a.cfg.OnNavigate
	target := a.target
	a.mu.Unlock()

	if onNavigate != nil {
		onNavigate(target)
	}
}

// WatchNow fires the navigation immediately, canceling both timers so no
// duplicate navigation can follow. Valid only while counting.
func (a *Advancer) WatchNow() bool {
	a.mu.Lock()
	if a.state != AdvanceCounting {
		a.mu.Unlock()
		return false
	}
	a.state = AdvanceFired
	a.stopTimersLocked()
	onNavigate := a.cfg.OnNavigate
	target := a.target
	a.mu.Unlock()

	if onNavigate != nil {
		onNavigate(target)
	}
	return true
}

// Cancel dismisses the countdown without navigating. Valid only while
// counting.
func (a *Advancer) Cancel() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != AdvanceCounting {
		return false
	}
	a.state = AdvanceCanceled
	a.stopTimersLocked()
	return true
}

// Stop cancels both timers unconditionally. A counting instance becomes
// canceled; terminal states are left as they are. Always safe to call on
// teardown.
func (a *Advancer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == AdvanceCounting {
		a.state = AdvanceCanceled
	}
	a.stopTimersLocked()
}

// stopTimersLocked cancels the deadline timer and the tick loop. Caller
// must hold a.mu.
func (a *Advancer) stopTimersLocked() {
	if a.deadline != nil {
		a.deadline.Stop()
		a.deadline = nil
	}
	if a.tickStop != nil {
		close(a.tickStop)
		a.tickStop = nil
	}
}

// State returns the current state.
func (a *Advancer) State() AdvanceState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Remaining returns the displayed countdown value.
func (a *Advancer) Remaining() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.remaining
}
