package round

// State is the persisted progress of a round.
type State struct {
	Name             string         `yaml:"name"`
	CurrentTime      int            `yaml:"current_time"`
	CurrentTimeFrame int            `yaml:"current_time_frame"`
	PlusTime         int            `yaml:"plus_time"`
	PlusTimeFrame    int            `yaml:"plus_time_frame"`
	TotalFrame       int            `yaml:"total_frame"`
	BossMode         bool           `yaml:"boss_mode"`
	Paused           bool           `yaml:"paused"`
	HoldsDone        []int          `yaml:"holds_done,omitempty"`
	Background       string         `yaml:"background,omitempty"`
	Vars             map[string]any `yaml:"vars,omitempty"`
}

// Snapshot captures the round's progress.
func (r *Round) Snapshot() State {
	s := r.Sched
	st := State{
		Name:             r.Name,
		CurrentTime:      s.CurrentTime,
		CurrentTimeFrame: s.CurrentTimeFrame,
		PlusTime:         s.PlusTime,
		PlusTimeFrame:    s.PlusTimeFrame,
		TotalFrame:       s.TotalFrame,
		BossMode:         s.BossMode,
		Paused:           s.paused,
		Background:       r.Background,
		Vars:             r.script.vars(),
	}
	for _, h := range s.holds {
		if h.done {
			st.HoldsDone = append(st.HoldsDone, h.time)
		}
	}
	return st
}

// Restore rewinds the round to st. Phases and holds come from the loaded
// script; only their progress is restored. A failed Restore changes nothing.
func (r *Round) Restore(st State) error {
	if err := restoreState(r.Sched, r.script, st); err != nil {
		return err
	}
	if st.Background != "" {
		r.Background = st.Background
	}
	return nil
}

// restoreState applies st to a scheduler and script pair. Script variables go
// first since they are the only part that can fail.
func restoreState(s *Scheduler, sc script, st State) error {
	if err := sc.setVars(st.Vars); err != nil {
		return err
	}
	s.CurrentTime = st.CurrentTime
	s.CurrentTimeFrame = st.CurrentTimeFrame
	s.PlusTime = st.PlusTime
	s.PlusTimeFrame = st.PlusTimeFrame
	s.TotalFrame = st.TotalFrame
	s.BossMode = st.BossMode
	s.paused = st.Paused
	for _, t := range st.HoldsDone {
		s.HoldUntilClear(t)
		for i := range s.holds {
			if s.holds[i].time == t {
				s.holds[i].done = true
			}
		}
	}
	return nil
}
