package entity

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/shmup/component"
)

// Behavior holds the per-variant override points of an entity. Embed
// BaseBehavior to inherit the defaults.
type Behavior interface {
	AfterInit(ctx *Context, e *Entity) error
	Move(ctx *Context, e *Entity) error
	Update(ctx *Context, e *Entity) error
	Attack(ctx *Context, e *Entity) error
	// Die runs once when the entity's death transition starts.
	Die(ctx *Context, e *Entity)
	Draw(dst *ebiten.Image, images component.ImageSource, e *Entity) bool
}

// BaseBehavior moves by velocity, removes the entity on death and draws its
// sprite.
type BaseBehavior struct{}

func (BaseBehavior) AfterInit(*Context, *Entity) error { return nil }

func (BaseBehavior) Move(_ *Context, e *Entity) error {
	e.MoveDefault()
	return nil
}

func (BaseBehavior) Update(*Context, *Entity) error { return nil }

func (BaseBehavior) Attack(*Context, *Entity) error { return nil }

func (BaseBehavior) Die(_ *Context, e *Entity) {
	e.IsDeleted = true
}

func (BaseBehavior) Draw(dst *ebiten.Image, images component.ImageSource, e *Entity) bool {
	return e.DrawDefault(dst, images)
}

var (
	behaviorsMu sync.RWMutex
	behaviors   = map[string]func() Behavior{}
)

// RegisterBehavior adds a behavior constructor to the table used by the
// factory. Registering an existing name replaces it.
func RegisterBehavior(name string, ctor func() Behavior) {
	behaviorsMu.Lock()
	defer behaviorsMu.Unlock()
	behaviors[name] = ctor
}

// NewBehavior builds the named behavior. The empty name is the base behavior.
func NewBehavior(name string) (Behavior, bool) {
	if name == "" {
		return BaseBehavior{}, true
	}
	behaviorsMu.RLock()
	ctor, ok := behaviors[name]
	behaviorsMu.RUnlock()
	if !ok {
		return nil, false
	}
	return ctor(), true
}

func init() {
	RegisterBehavior("base", func() Behavior { return BaseBehavior{} })
	RegisterBehavior("player", func() Behavior { return &PlayerBehavior{} })
	RegisterBehavior("shooter", func() Behavior { return &ShooterBehavior{} })
	RegisterBehavior("shot", func() Behavior { return &ShotBehavior{} })
	RegisterBehavior("effect", func() Behavior { return &EffectBehavior{} })
}
