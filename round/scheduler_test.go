package round

import (
	"errors"
	"slices"
	"testing"
)

func tick(s *Scheduler, n int) error {
	for i := 0; i < n; i++ {
		if err := s.Process(); err != nil {
			return err
		}
	}
	return nil
}

func TestSchedulerPhaseAllEndTime(t *testing.T) {
	s := NewScheduler()
	s.AddPhase(nil, 0, 10)
	s.AddPhase(nil, 20, 30)
	if s.PhaseAllEndTime != 31 {
		t.Fatalf("expected 31, got %d", s.PhaseAllEndTime)
	}
	if s.Finish() != 31 {
		t.Fatalf("finish time should default to PhaseAllEndTime, got %d", s.Finish())
	}
}

func TestSchedulerDispatchesMatchingPhases(t *testing.T) {
	var calls []string
	record := func(name string) PhaseFunc {
		return func() error {
			calls = append(calls, name)
			return nil
		}
	}

	s := NewScheduler()
	s.AddPhase(record("f1"), 0, 10)
	s.AddPhase(record("f2"), 20, 30)
	s.AddPhase(record("f3"), 25, 26)
	s.CurrentTime = 25

	if err := s.Process(); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if want := []string{"f2", "f3"}; !slices.Equal(calls, want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	if s.CurrentPhase() != 1 {
		t.Fatalf("expected current phase 1, got %d", s.CurrentPhase())
	}
}

func TestSchedulerTimeAdvance(t *testing.T) {
	s := NewScheduler()
	_ = tick(s, 59)
	if s.CurrentTime != 0 {
		t.Fatalf("time advanced early: %d", s.CurrentTime)
	}
	_ = tick(s, 1)
	if s.CurrentTime != 1 || s.CurrentTimeFrame != 0 {
		t.Fatalf("expected time 1 frame 0, got %d/%d", s.CurrentTime, s.CurrentTimeFrame)
	}
}

func TestSchedulerPauseAdvancesPlusTime(t *testing.T) {
	s := NewScheduler()
	s.CurrentTime = 4
	s.Pause()
	_ = tick(s, 120)
	if s.CurrentTime != 4 || s.PlusTime != 2 || s.TotalFrame != 120 {
		t.Fatalf("expected time 4 plus 2 total 120, got %d/%d/%d", s.CurrentTime, s.PlusTime, s.TotalFrame)
	}

	s.Resume()
	_ = tick(s, 60)
	if s.CurrentTime != 5 || s.PlusTime != 2 {
		t.Fatalf("expected time 5 plus 2 after resume, got %d/%d", s.CurrentTime, s.PlusTime)
	}
}

func TestSchedulerPausedStillDispatches(t *testing.T) {
	n := 0
	s := NewScheduler()
	s.AddPhase(func() error { n++; return nil }, 0, 0)
	s.Pause()
	_ = tick(s, 90)
	if n != 90 {
		t.Fatalf("expected dispatch on every paused tick, got %d", n)
	}
}

func TestSchedulerPauseCondition(t *testing.T) {
	blocked := true
	s := NewScheduler()
	s.AddPauseCondition(func() bool { return blocked })
	_ = tick(s, 100)
	if s.CurrentTime != 0 || s.PlusTime != 1 {
		t.Fatalf("condition did not pause: time=%d plus=%d", s.CurrentTime, s.PlusTime)
	}
	blocked = false
	_ = tick(s, 60)
	if s.CurrentTime != 1 {
		t.Fatalf("expected time 1 once the condition clears, got %d", s.CurrentTime)
	}
}

func TestSchedulerHoldUntilClear(t *testing.T) {
	hostiles := 1
	s := NewScheduler()
	s.SetClearCheck(func() bool { return hostiles == 0 })
	s.HoldUntilClear(2)
	s.HoldUntilClear(2)

	_ = tick(s, 120)
	if s.CurrentTime != 2 {
		t.Fatalf("expected to reach the hold at 2, got %d", s.CurrentTime)
	}
	_ = tick(s, 300)
	if s.CurrentTime != 2 || !s.IsPaused() {
		t.Fatalf("hold did not freeze time: %d", s.CurrentTime)
	}

	hostiles = 0
	_ = tick(s, 60)
	if s.CurrentTime != 3 {
		t.Fatalf("expected time 3 after clearing, got %d", s.CurrentTime)
	}

	hostiles = 1
	_ = tick(s, 60)
	if s.CurrentTime != 4 {
		t.Fatalf("a released hold must not pause again, got %d", s.CurrentTime)
	}
}

func TestSchedulerBossModeRelease(t *testing.T) {
	hostiles := 1
	s := NewScheduler()
	s.SetClearCheck(func() bool { return hostiles == 0 })
	s.CurrentTime = 5
	s.RequestBossMode()

	_ = tick(s, 100)
	if s.CurrentTime != 5 || !s.BossMode {
		t.Fatalf("boss mode did not freeze time: %d", s.CurrentTime)
	}

	hostiles = 0
	_ = tick(s, 1)
	if s.BossMode || s.CurrentTime != 6 {
		t.Fatalf("expected release with a +1 nudge, got boss=%v time=%d", s.BossMode, s.CurrentTime)
	}
	if s.CurrentTimeFrame != 1 {
		t.Fatalf("expected the unit to restart on release, frame=%d", s.CurrentTimeFrame)
	}
}

func TestSchedulerEvery(t *testing.T) {
	cases := []struct {
		name       string
		time       int
		total      int
		start, end int
		n          int
		want       bool
	}{
		{"multiple_in_range", 3, 20, 0, 5, 10, true},
		{"not_multiple", 3, 21, 0, 5, 10, false},
		{"before_range", 3, 20, 4, 5, 10, false},
		{"after_range", 6, 20, 0, 5, 10, false},
		{"inclusive_end", 5, 20, 0, 5, 10, true},
		{"zero_interval", 3, 20, 0, 5, 0, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := NewScheduler()
			s.CurrentTime = c.time
			s.TotalFrame = c.total
			if got := s.Every(c.start, c.end, c.n); got != c.want {
				t.Fatalf("expected %v, got %v", c.want, got)
			}
		})
	}
}

func TestSchedulerCurrentPhase(t *testing.T) {
	s := NewScheduler()
	s.AddPhase(nil, 0, 10)
	s.AddPhase(nil, 5, 15)
	for _, c := range []struct{ time, want int }{{7, 0}, {12, 1}, {20, -1}} {
		s.CurrentTime = c.time
		if got := s.CurrentPhase(); got != c.want {
			t.Fatalf("time %d: expected phase %d, got %d", c.time, c.want, got)
		}
	}
}

func TestSchedulerIsComplete(t *testing.T) {
	s := NewScheduler()
	s.AddPhase(nil, 0, 30)
	s.CurrentTime = 30
	if s.IsComplete() {
		t.Fatalf("complete before the finish time")
	}
	s.CurrentTime = 31
	if !s.IsComplete() {
		t.Fatalf("expected complete at PhaseAllEndTime")
	}
	s.FinishTime = 40
	if s.IsComplete() {
		t.Fatalf("FinishTime must override PhaseAllEndTime")
	}
}

func TestSchedulerPhaseError(t *testing.T) {
	boom := errors.New("boom")
	s := NewScheduler()
	s.AddNamedPhase("opening", func() error { return boom }, 0, 0)
	if err := s.Process(); !errors.Is(err, boom) {
		t.Fatalf("expected phase error, got %v", err)
	}
}
