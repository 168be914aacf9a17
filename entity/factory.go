package entity

import (
	"errors"
	"fmt"
	"maps"

	"github.com/milk9111/shmup/component"
	"github.com/milk9111/shmup/prefabs"
	"go.uber.org/zap"
)

var (
	// ErrUnknownPrefab is returned when no prefab has the requested name.
	ErrUnknownPrefab = errors.New("entity: unknown prefab")
	// ErrUnknownBehavior is returned when a prefab names an unregistered behavior.
	ErrUnknownBehavior = errors.New("entity: unknown behavior")
)

// Factory builds entities from prefab specs. Placement is left to
// Registry.Spawn.
type Factory struct {
	log   *zap.Logger
	specs map[string]prefabs.EntitySpec
}

// NewFactory creates a factory over specs. Every spec is validated up front.
func NewFactory(log *zap.Logger, specs map[string]prefabs.EntitySpec) (*Factory, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Factory{log: log}
	if err := f.SetSpecs(specs); err != nil {
		return nil, err
	}
	return f, nil
}

// SetSpecs replaces the prefab table. On error the previous table is kept.
func (f *Factory) SetSpecs(specs map[string]prefabs.EntitySpec) error {
	for name, spec := range specs {
		if _, err := build(spec); err != nil {
			return fmt.Errorf("entity: prefab %s: %w", name, err)
		}
	}
	f.specs = maps.Clone(specs)
	f.log.Info("prefabs loaded", zap.Int("count", len(f.specs)))
	return nil
}

// Has reports whether a prefab exists.
func (f *Factory) Has(name string) bool {
	if f == nil {
		return false
	}
	_, ok := f.specs[name]
	return ok
}

// Create builds a fresh, unplaced entity from the named prefab.
func (f *Factory) Create(name string) (*Entity, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrefab, name)
	}
	spec, ok := f.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrefab, name)
	}
	return build(spec)
}

func build(spec prefabs.EntitySpec) (*Entity, error) {
	t, err := ParseObjectType(spec.Type)
	if err != nil {
		return nil, err
	}
	b, ok := NewBehavior(spec.Behavior)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBehavior, spec.Behavior)
	}

	e := New(t)
	e.Name = spec.Name
	e.Behavior = b
	e.MainType = spec.MainType
	e.SubType = spec.SubType
	e.ID = spec.ID
	e.Width = spec.Width
	e.Height = spec.Height

	e.Image = spec.Sprite.Image
	e.SrcX = spec.Sprite.SrcX
	e.SrcY = spec.Sprite.SrcY
	if spec.Sprite.Alpha != nil {
		e.Alpha = *spec.Sprite.Alpha
	}

	e.Stats = component.NewStats(spec.Stats.Attack, spec.Stats.Defense, spec.Stats.HP)
	e.IFramesOnHit = spec.Stats.IFramesOnHit

	if spec.Move.Enabled != nil {
		e.IsMoveEnable = *spec.Move.Enabled
	}
	e.MoveSpeedX = spec.Move.SpeedX
	e.MoveSpeedY = spec.Move.SpeedY
	if e.MoveDirectionX, err = parseDirection(spec.Move.DirectionX, DirLeft, DirRight); err != nil {
		return nil, err
	}
	if e.MoveDirectionY, err = parseDirection(spec.Move.DirectionY, DirUp, DirDown); err != nil {
		return nil, err
	}
	if spec.Move.Delay > 0 {
		e.MoveDelay = component.NewDelay(spec.Move.Delay)
	}

	e.IsAttackEnable = spec.Attack.Enabled
	e.Shot = spec.Attack.Shot
	if spec.Attack.Delay > 0 {
		e.AttackDelay = component.NewDelay(spec.Attack.Delay)
	}
	if spec.Delay > 0 {
		e.Delay = component.NewDelay(spec.Delay)
	}

	if a := spec.Animation; a != nil {
		img := a.Image
		if img == "" {
			img = spec.Sprite.Image
		}
		repeat := a.FrameRepeat
		if repeat == 0 {
			repeat = component.RepeatForever
		}
		e.SetAnimation(component.NewAnimation(img, a.SrcX, a.SrcY, a.FrameW, a.FrameH, a.FrameCount, repeat, a.FrameDelay))
	}

	e.DeathEffect = spec.DeathEffect
	e.CullMargin = spec.CullMargin
	e.Params = maps.Clone(spec.Params)
	return e, nil
}

func parseDirection(s string, neg, pos Direction) (Direction, error) {
	switch Direction(s) {
	case DirNone:
		return DirNone, nil
	case neg, pos:
		return Direction(s), nil
	}
	return DirNone, fmt.Errorf("entity: direction %q, want %q or %q", s, neg, pos)
}
