package entity

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/shmup/common"
	"github.com/milk9111/shmup/component"
	"go.uber.org/zap"
)

// PlayerBehavior moves from input, stays inside the playfield and fires its
// Shot prefab while the fire button is held.
type PlayerBehavior struct {
	BaseBehavior
}

func (p *PlayerBehavior) Move(ctx *Context, e *Entity) error {
	if !e.IsMoveEnable || ctx.Input == nil {
		return nil
	}
	dx, dy := ctx.Input.Axis()
	e.X += dx * e.MoveSpeedX
	e.Y += dy * e.MoveSpeedY

	field := ctx.Bounds()
	if field.Width > 0 && field.Height > 0 {
		e.X = common.Clamp(e.X, 0, field.Width-e.Width)
		e.Y = common.Clamp(e.Y, 0, field.Height-e.Height)
	}
	return nil
}

func (p *PlayerBehavior) Attack(ctx *Context, e *Entity) error {
	if e.IsDied || e.Shot == "" {
		return nil
	}
	// Count while idle so the first shot after a pause leaves immediately.
	if e.AttackDelay != nil && !e.AttackDelay.CheckWith(false, true) {
		return nil
	}
	if ctx.Input == nil || !ctx.Input.Firing() {
		return nil
	}
	e.AttackDelay.Reset()

	shot, err := ctx.SpawnCentered(e.Shot, e.CenterX(), e.Y)
	if err != nil {
		return err
	}
	return Launch(shot, -90, e.Param("shot_speed", 8), false)
}

func (p *PlayerBehavior) Die(ctx *Context, e *Entity) {
	spawnDeathEffect(ctx, e)
	e.IsDeleted = true
}

func (p *PlayerBehavior) Draw(dst *ebiten.Image, images component.ImageSource, e *Entity) bool {
	// Blink while invulnerable.
	if e.IFrames > 0 && (e.IFrames/4)%2 == 1 {
		return false
	}
	return e.DrawDefault(dst, images)
}

// ShooterBehavior is an enemy that sways sideways on its MoveDelay, rams the player
// and fires bursts of aimed shots on its AttackDelay.
type ShooterBehavior struct {
	BaseBehavior
}

func (s *ShooterBehavior) Move(ctx *Context, e *Entity) error {
	e.MoveDefault()
	if !e.IsMoveEnable {
		return nil
	}
	if e.MoveDelay.Check() {
		if e.MoveDirectionX == DirLeft {
			e.MoveDirectionX = DirRight
		} else {
			e.MoveDirectionX = DirLeft
		}
	}
	if stop := e.Param("stop_y", -1); stop >= 0 && e.Y >= stop {
		e.Y = stop
		e.MoveSpeedY = 0
	}
	return nil
}

func (s *ShooterBehavior) Update(ctx *Context, e *Entity) error {
	if e.IsDied {
		return nil
	}
	player := ctx.Registry.Player()
	if player != nil && !player.IsDied && e.Collides(player) {
		player.Damage(ctx, e.CreateID, e.Attack)
	}
	return nil
}

func (s *ShooterBehavior) Attack(ctx *Context, e *Entity) error {
	if e.IsDied || e.Shot == "" {
		return nil
	}
	if e.AttackDelay != nil && !e.AttackDelay.Check() {
		return nil
	}
	// Hold fire until the shooter has entered the playfield.
	if !ctx.Bounds().Contains(e.CenterX(), e.CenterY()) {
		return nil
	}

	aim := 90.0
	if player := ctx.Registry.Player(); player != nil && !player.IsDied {
		aim = common.AngleTo(e.CenterX(), e.CenterY(), player.CenterX(), player.CenterY())
	}

	burst := int(e.Param("burst", 1))
	spread := e.Param("spread", 15)
	speed := e.Param("shot_speed", 3)
	for i := 0; i < burst; i++ {
		deg := aim + (float64(i)-float64(burst-1)/2)*spread
		shot, err := ctx.SpawnCentered(e.Shot, e.CenterX(), e.CenterY())
		if err != nil {
			return err
		}
		if err := Launch(shot, deg, speed, true); err != nil {
			return err
		}
	}
	return nil
}

func (s *ShooterBehavior) Die(ctx *Context, e *Entity) {
	spawnDeathEffect(ctx, e)
	e.IsDeleted = true
}

// ShotBehavior is a projectile that damages the first hostile body it
// touches and disappears.
type ShotBehavior struct {
	BaseBehavior
}

func (s *ShotBehavior) Update(ctx *Context, e *Entity) error {
	ctx.Registry.Each(func(target *Entity) bool {
		if target.ObjectType != TypePlayer && target.ObjectType != TypeEnemy {
			return true
		}
		if target.IsDied || !e.Faction().Hostile(target.Faction()) {
			return true
		}
		if !e.Collides(target) {
			return true
		}
		target.Damage(ctx, e.CreateID, e.Attack)
		e.IsDeleted = true
		return false
	})
	return nil
}

// EffectBehavior removes itself once its animation finishes, or when its
// Delay trips if it has no animation.
type EffectBehavior struct {
	BaseBehavior
}

func (f *EffectBehavior) Update(_ *Context, e *Entity) error {
	if e.Animation != nil {
		if e.Animation.Finished {
			e.IsDeleted = true
		}
		return nil
	}
	if e.Delay.Check() {
		e.IsDeleted = true
	}
	return nil
}

// Launch points e along deg (degrees, screen space) at speed pixels per
// tick. When rotate is set the sprite and hitbox turn with it.
func Launch(e *Entity, deg, speed float64, rotate bool) error {
	if rotate {
		if err := e.SetDegree(deg); err != nil {
			return err
		}
	}
	rad := common.DegToRad(deg)
	e.MoveSpeedX = math.Cos(rad) * speed
	e.MoveSpeedY = math.Sin(rad) * speed
	e.MoveDirectionX = DirRight
	e.MoveDirectionY = DirDown
	e.IsMoveEnable = true
	return nil
}

func spawnDeathEffect(ctx *Context, e *Entity) {
	if e.DeathEffect == "" || ctx.Factory == nil {
		return
	}
	if _, err := ctx.SpawnCentered(e.DeathEffect, e.CenterX(), e.CenterY()); err != nil {
		ctx.logger().Warn("death effect spawn failed", zap.String("entity", e.Name), zap.Error(err))
	}
}
