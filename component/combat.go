package component

// Faction identifies teams for friendly-fire checks.
type Faction int

const (
	FactionNeutral Faction = iota
	FactionPlayer
	FactionEnemy
)

// Hostile reports whether attacks from f may hit target.
func (f Faction) Hostile(target Faction) bool {
	return f != FactionNeutral && target != FactionNeutral && f != target
}

// CombatEventType defines the kind of combat event.
type CombatEventType string

const (
	EventHit   CombatEventType = "hit"
	EventDeath CombatEventType = "death"
)

// CombatEvent is emitted when a hit lands or an entity dies.
type CombatEvent struct {
	Type       CombatEventType
	AttackerID int
	TargetID   int
	Damage     int
	Frame      int
	PosX       float64
	PosY       float64
}

// CombatEventHandler handles combat events.
type CombatEventHandler func(evt CombatEvent)

// CombatEventEmitter fans combat events out to handlers.
type CombatEventEmitter struct {
	Handlers []CombatEventHandler
}

// Subscribe adds a handler.
func (e *CombatEventEmitter) Subscribe(h CombatEventHandler) {
	if e == nil || h == nil {
		return
	}
	e.Handlers = append(e.Handlers, h)
}

// Emit sends a combat event to all handlers.
func (e *CombatEventEmitter) Emit(evt CombatEvent) {
	if e == nil || len(e.Handlers) == 0 {
		return
	}
	for _, h := range e.Handlers {
		if h != nil {
			h(evt)
		}
	}
}
