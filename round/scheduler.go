package round

import (
	"fmt"

	"github.com/milk9111/shmup/common"
)

// PhaseFunc is called once per tick while its phase is active.
type PhaseFunc func() error

// Phase is a callback bound to an inclusive range of round time.
type Phase struct {
	Name  string
	Start int
	End   int
	Call  PhaseFunc
}

// Contains reports whether t lies inside the phase.
func (p Phase) Contains(t int) bool {
	return t >= p.Start && t <= p.End
}

type hold struct {
	time int
	done bool
}

// Scheduler turns simulation ticks into round time and dispatches phases.
// CurrentTime only advances while nothing pauses the round; PlusTime advances
// instead while it is paused. TotalFrame counts every tick.
type Scheduler struct {
	CurrentTime      int
	CurrentTimeFrame int
	PlusTime         int
	PlusTimeFrame    int
	TotalFrame       int

	BossMode bool
	// PhaseAllEndTime is one past the end of the last registered phase.
	PhaseAllEndTime int
	// FinishTime ends the round; 0 means PhaseAllEndTime.
	FinishTime int
	// TicksPerUnit is the number of ticks in one unit of round time.
	TicksPerUnit int

	phases     []Phase
	paused     bool
	conditions []func() bool
	holds      []hold
	clear      func() bool
}

// NewScheduler creates a scheduler ticking at common.TicksPerSecond.
func NewScheduler() *Scheduler {
	return &Scheduler{TicksPerUnit: common.TicksPerSecond}
}

// AddPhase registers call for round times [start, end] and returns its index.
// Phases are expected in chronological order.
func (s *Scheduler) AddPhase(call PhaseFunc, start, end int) int {
	return s.AddNamedPhase("", call, start, end)
}

// AddNamedPhase is AddPhase with a name used in errors and logs.
func (s *Scheduler) AddNamedPhase(name string, call PhaseFunc, start, end int) int {
	s.phases = append(s.phases, Phase{Name: name, Start: start, End: end, Call: call})
	s.PhaseAllEndTime = end + 1
	return len(s.phases) - 1
}

// Phases returns the registered phases.
func (s *Scheduler) Phases() []Phase {
	return s.phases
}

// SetClearCheck sets the predicate that ends holds and boss mode, usually
// "no hostiles remain". A nil predicate is always clear.
func (s *Scheduler) SetClearCheck(fn func() bool) {
	s.clear = fn
}

// AddPauseCondition pauses the round while fn returns true.
func (s *Scheduler) AddPauseCondition(fn func() bool) {
	if fn != nil {
		s.conditions = append(s.conditions, fn)
	}
}

// HoldUntilClear pauses the round once it reaches time t until the clear
// check passes. Registering the same time twice is a no-op.
func (s *Scheduler) HoldUntilClear(t int) {
	for _, h := range s.holds {
		if h.time == t {
			return
		}
	}
	s.holds = append(s.holds, hold{time: t})
}

func (s *Scheduler) Pause()  { s.paused = true }
func (s *Scheduler) Resume() { s.paused = false }

// RequestBossMode freezes round time until the clear check passes.
func (s *Scheduler) RequestBossMode() {
	s.BossMode = true
}

// ReleaseBossMode leaves boss mode and steps past the current time unit so
// the phase that requested it does not fire again.
func (s *Scheduler) ReleaseBossMode() {
	if !s.BossMode {
		return
	}
	s.BossMode = false
	s.CurrentTime++
	s.CurrentTimeFrame = 0
}

// IsPaused reports whether round time is currently frozen.
func (s *Scheduler) IsPaused() bool {
	if s.paused || s.BossMode {
		return true
	}
	for _, fn := range s.conditions {
		if fn() {
			return true
		}
	}
	return s.holding()
}

func (s *Scheduler) holding() bool {
	for i := range s.holds {
		h := &s.holds[i]
		if h.done || s.CurrentTime < h.time {
			continue
		}
		if s.isClear() {
			h.done = true
			continue
		}
		return true
	}
	return false
}

func (s *Scheduler) isClear() bool {
	return s.clear == nil || s.clear()
}

// Process advances one tick and dispatches every phase containing the
// current time, in registration order. Phases keep firing while paused.
func (s *Scheduler) Process() error {
	s.TotalFrame++
	if s.BossMode && s.isClear() {
		s.ReleaseBossMode()
	}

	tpu := s.TicksPerUnit
	if tpu <= 0 {
		tpu = common.TicksPerSecond
	}
	if s.IsPaused() {
		s.PlusTimeFrame++
		if s.PlusTimeFrame >= tpu {
			s.PlusTimeFrame = 0
			s.PlusTime++
		}
	} else {
		s.CurrentTimeFrame++
		if s.CurrentTimeFrame >= tpu {
			s.CurrentTimeFrame = 0
			s.CurrentTime++
		}
	}

	n := len(s.phases)
	for i := 0; i < n; i++ {
		p := s.phases[i]
		if !p.Contains(s.CurrentTime) || p.Call == nil {
			continue
		}
		if err := p.Call(); err != nil {
			return fmt.Errorf("round: phase %d %q [%d,%d] at t=%d: %w", i, p.Name, p.Start, p.End, s.CurrentTime, err)
		}
	}
	return nil
}

// Every reports whether the round is inside [start, end] on a tick that is a
// multiple of n.
func (s *Scheduler) Every(start, end, n int) bool {
	if n <= 0 {
		return false
	}
	return s.CurrentTime >= start && s.CurrentTime <= end && s.TotalFrame%n == 0
}

// CurrentPhase returns the index of the first phase containing the current
// time, or -1.
func (s *Scheduler) CurrentPhase() int {
	for i, p := range s.phases {
		if p.Contains(s.CurrentTime) {
			return i
		}
	}
	return -1
}

// Finish returns the effective finish time.
func (s *Scheduler) Finish() int {
	if s.FinishTime > 0 {
		return s.FinishTime
	}
	return s.PhaseAllEndTime
}

// IsComplete reports whether round time reached the finish time. Remaining
// hostiles do not matter.
func (s *Scheduler) IsComplete() bool {
	return s.CurrentTime >= s.Finish()
}
