package world

import (
	"errors"
	"fmt"
	"time"

	"github.com/kasuganosora/ghostai/game/ghost/strategy"
)

var ErrEmptySchedule = errors.New("world: schedule has no phases")

// Phase is one stretch of the mode schedule. A zero Duration never ends.
type Phase struct {
	Mode     strategy.Mode
	Duration time.Duration
}

// DefaultPhases is the classic arcade level-one timing: alternating
// scatter and chase waves, ending in permanent chase.
func DefaultPhases() []Phase {
	return []Phase{
		{strategy.ModeScatter, 7 * time.Second},
		{strategy.ModeChase, 20 * time.Second},
		{strategy.ModeScatter, 7 * time.Second},
		{strategy.ModeChase, 20 * time.Second},
		{strategy.ModeScatter, 5 * time.Second},
		{strategy.ModeChase, 20 * time.Second},
		{strategy.ModeScatter, 5 * time.Second},
		{strategy.ModeChase, 0},
	}
}

type tickPhase struct {
	mode  strategy.Mode
	ticks int // 0 = forever
}

// Schedule walks the phases one tick at a time. The last phase persists
// regardless of its duration. Not safe for concurrent use; the owning
// room serialises access.
type Schedule struct {
	phases  []tickPhase
	index   int
	elapsed int
	started bool
	last    strategy.Mode
}

// NewSchedule converts phase durations to tick counts for the given tick
// interval. A finite phase always lasts at least one tick.
func NewSchedule(phases []Phase, tick time.Duration) (*Schedule, error) {
	if len(phases) == 0 {
		return nil, ErrEmptySchedule
	}
	if tick <= 0 {
		return nil, fmt.Errorf("world: tick interval must be positive, got %s", tick)
	}
	s := &Schedule{phases: make([]tickPhase, 0, len(phases))}
	for i, p := range phases {
		if _, err := strategy.ParseMode(string(p.Mode)); err != nil {
			return nil, fmt.Errorf("world: phase %d: %w", i, err)
		}
		if p.Duration < 0 {
			return nil, fmt.Errorf("world: phase %d: negative duration %s", i, p.Duration)
		}
		n := 0
		if p.Duration > 0 {
			n = int((p.Duration + tick - 1) / tick)
		}
		s.phases = append(s.phases, tickPhase{mode: p.Mode, ticks: n})
	}
	return s, nil
}

// Mode returns the current phase's mode.
func (s *Schedule) Mode() strategy.Mode {
	return s.phases[s.index].mode
}

// Phase returns the current phase index and the ticks spent in it.
func (s *Schedule) Phase() (index, elapsed int) {
	return s.index, s.elapsed
}

// Advance moves the schedule forward by one tick and returns the mode for
// that tick. changed is true when the mode differs from the previous
// tick's, and on the very first tick.
func (s *Schedule) Advance() (strategy.Mode, bool) {
	if !s.started {
		s.started = true
		s.last = s.Mode()
		return s.last, true
	}
	s.elapsed++
	p := s.phases[s.index]
	if p.ticks > 0 && s.elapsed >= p.ticks && s.index < len(s.phases)-1 {
		s.index++
		s.elapsed = 0
	}
	mode := s.Mode()
	changed := mode != s.last
	s.last = mode
	return mode, changed
}
