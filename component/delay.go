package component

// Delay is a frame-counted interval. Owners call Check once per update tick
// and act when it trips.
type Delay struct {
	// Delay is the threshold in ticks.
	Delay int
	// Count accumulates ticks since the last reset.
	Count int
}

// NewDelay creates a Delay that trips every `delay` ticks.
func NewDelay(delay int) *Delay {
	return &Delay{Delay: delay}
}

// Check advances the counter and reports whether it reached the threshold,
// resetting it when it does.
func (d *Delay) Check() bool {
	return d.CheckWith(true, true)
}

// CheckWith is Check with the reset and count-up steps individually
// suppressible. CheckWith(false, false) is a pure read.
func (d *Delay) CheckWith(reset, countUp bool) bool {
	if d == nil {
		return false
	}
	if countUp {
		d.Count++
	}
	if d.Count < d.Delay {
		return false
	}
	if reset {
		d.Count = 0
	}
	return true
}

// DivCheck reports whether the current count is a multiple of n. It never
// mutates the delay.
func (d *Delay) DivCheck(n int) bool {
	if d == nil || n <= 0 {
		return false
	}
	return d.Count%n == 0
}

// SetDelay changes the threshold without touching the counter.
func (d *Delay) SetDelay(delay int) {
	if d == nil {
		return
	}
	d.Delay = delay
}

// SetCountMax fills the counter so the next Check trips.
func (d *Delay) SetCountMax() {
	if d == nil {
		return
	}
	d.Count = d.Delay
}

// Reset clears the counter.
func (d *Delay) Reset() {
	if d == nil {
		return
	}
	d.Count = 0
}
