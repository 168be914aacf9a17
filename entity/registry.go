package entity

import (
	"fmt"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/shmup/component"
	"go.uber.org/zap"
)

// Registry owns the live entities. Entities spawned while the registry is
// processing are admitted after the pass; deleted entities are compacted out
// at the end of every pass.
type Registry struct {
	log *zap.Logger

	active     []*Entity
	pending    []*Entity
	drawOrder  []*Entity
	processing bool
	nextID     int
	frame      int
	player     *Entity
}

// NewRegistry creates an empty registry.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{log: log}
}

// Spawn places e at (x, y), assigns its CreateID and admits it.
func (r *Registry) Spawn(e *Entity, x, y float64) (*Entity, error) {
	if r == nil || e == nil {
		return nil, fmt.Errorf("entity: spawn: nil entity")
	}
	if err := e.SetPosition(x, y); err != nil {
		return nil, fmt.Errorf("entity: spawn %s: %w", e.Name, err)
	}
	r.nextID++
	e.CreateID = r.nextID
	r.admit(e)
	return e, nil
}

// admit tracks an already placed entity under its current CreateID.
func (r *Registry) admit(e *Entity) {
	if e.ObjectType == TypePlayer {
		r.player = e
	}

	if r.processing {
		r.pending = append(r.pending, e)
	} else {
		r.active = append(r.active, e)
	}
	r.log.Debug("spawn",
		zap.String("name", e.Name),
		zap.Stringer("type", e.ObjectType),
		zap.Int("create_id", e.CreateID),
		zap.Float64("x", e.X),
		zap.Float64("y", e.Y),
	)
}

// Process runs one tick for every live entity, then admits pending spawns and
// drops deleted entities.
func (r *Registry) Process(ctx *Context) error {
	if r == nil {
		return nil
	}
	r.processing = true
	for _, e := range r.active {
		if e.IsDeleted {
			continue
		}
		if err := e.Process(ctx); err != nil {
			r.processing = false
			return fmt.Errorf("entity: %s#%d: %w", e.Name, e.CreateID, err)
		}
	}
	r.processing = false

	if len(r.pending) > 0 {
		r.active = append(r.active, r.pending...)
		clear(r.pending)
		r.pending = r.pending[:0]
	}
	r.compact()
	r.frame++
	return nil
}

func (r *Registry) compact() {
	n := 0
	for _, e := range r.active {
		if e.IsDeleted {
			continue
		}
		r.active[n] = e
		n++
	}
	clear(r.active[n:])
	r.active = r.active[:n]

	if r.player != nil && r.player.IsDeleted {
		r.player = nil
	}
}

// Draw displays live entities ordered by object type. Spawn order breaks ties.
func (r *Registry) Draw(dst *ebiten.Image, images component.ImageSource) {
	if r == nil {
		return
	}
	r.drawOrder = append(r.drawOrder[:0], r.active...)
	slices.SortStableFunc(r.drawOrder, func(a, b *Entity) int {
		return int(a.ObjectType) - int(b.ObjectType)
	})
	for _, e := range r.drawOrder {
		e.Display(dst, images)
	}
	clear(r.drawOrder)
}

// Each calls fn for every admitted, non-deleted entity until fn returns
// false.
func (r *Registry) Each(fn func(*Entity) bool) {
	if r == nil {
		return
	}
	for _, e := range r.active {
		if e.IsDeleted {
			continue
		}
		if !fn(e) {
			return
		}
	}
}

// Entities returns the live entities, pending spawns included.
func (r *Registry) Entities() []*Entity {
	if r == nil {
		return nil
	}
	out := make([]*Entity, 0, len(r.active)+len(r.pending))
	for _, e := range r.active {
		if !e.IsDeleted {
			out = append(out, e)
		}
	}
	for _, e := range r.pending {
		if !e.IsDeleted {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of live entities, pending spawns included.
func (r *Registry) Count() int {
	return len(r.Entities())
}

// IsEmpty reports whether no live entity remains.
func (r *Registry) IsEmpty() bool {
	return r.Count() == 0
}

// HostileCount returns the number of enemies that are neither deleted nor
// dying.
func (r *Registry) HostileCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, e := range r.Entities() {
		if e.ObjectType == TypeEnemy && !e.IsDied {
			n++
		}
	}
	return n
}

// Player returns the live player entity, or nil.
func (r *Registry) Player() *Entity {
	if r == nil || r.player == nil || r.player.IsDeleted {
		return nil
	}
	return r.player
}

// Frame returns the number of completed Process passes.
func (r *Registry) Frame() int {
	if r == nil {
		return 0
	}
	return r.frame
}

// SetFrame restores the pass counter.
func (r *Registry) SetFrame(frame int) {
	if r == nil {
		return
	}
	r.frame = frame
}

// Clear removes every entity.
func (r *Registry) Clear() {
	if r == nil {
		return
	}
	clear(r.active)
	clear(r.pending)
	r.active = r.active[:0]
	r.pending = r.pending[:0]
	r.player = nil
}
