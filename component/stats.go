package component

// Stats holds the combat numbers shared by every entity.
type Stats struct {
	Attack  int
	Defense int
	HP      int
	HPMax   int
	// IFrames is the number of ticks the owner ignores damage for.
	IFrames int
}

// NewStats creates Stats with HP filled to hpMax.
func NewStats(attack, defense, hpMax int) Stats {
	if hpMax <= 0 {
		hpMax = 1
	}
	return Stats{Attack: attack, Defense: defense, HP: hpMax, HPMax: hpMax}
}

// DamageFrom computes the damage an attack value deals against these stats.
// Any landed hit deals at least 1.
func (s *Stats) DamageFrom(attack int) int {
	if s == nil || attack <= 0 {
		return 0
	}
	dmg := attack - s.Defense
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

// ApplyDamage subtracts damage for the given attack value unless i-frames are
// active. It returns the damage dealt and whether this hit emptied HP.
func (s *Stats) ApplyDamage(attack int) (int, bool) {
	if s == nil || s.HP <= 0 || s.IFrames > 0 {
		return 0, false
	}
	dmg := s.DamageFrom(attack)
	if dmg == 0 {
		return 0, false
	}
	s.HP -= dmg
	if s.HP < 0 {
		s.HP = 0
	}
	return dmg, s.HP == 0
}

// Heal restores HP up to HPMax.
func (s *Stats) Heal(amount int) {
	if s == nil || s.HP <= 0 || amount <= 0 {
		return
	}
	s.HP += amount
	if s.HP > s.HPMax {
		s.HP = s.HPMax
	}
}

// StartIFrames sets invulnerability ticks.
func (s *Stats) StartIFrames(frames int) {
	if s == nil || frames <= 0 {
		return
	}
	s.IFrames = frames
}

// Tick advances the i-frame timer by one tick.
func (s *Stats) Tick() {
	if s == nil || s.IFrames <= 0 {
		return
	}
	s.IFrames--
}
