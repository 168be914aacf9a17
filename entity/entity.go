package entity

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/shmup/common"
	"github.com/milk9111/shmup/component"
)

var (
	// ErrInvalidRotation is returned when a rotation is NaN or infinite.
	ErrInvalidRotation = errors.New("entity: invalid rotation")
	// ErrInvalidPosition is returned when a placement coordinate is NaN or infinite.
	ErrInvalidPosition = errors.New("entity: invalid position")
)

// ObjectType is the coarse category of an entity. Values are ordered by draw
// layer, back to front.
type ObjectType int

const (
	TypeSprite ObjectType = iota
	TypeEnemy
	TypePlayer
	TypePlayerShot
	TypeEnemyShot
	TypeEffect
)

var objectTypeNames = map[ObjectType]string{
	TypeSprite:     "sprite",
	TypeEnemy:      "enemy",
	TypePlayer:     "player",
	TypePlayerShot: "player_shot",
	TypeEnemyShot:  "enemy_shot",
	TypeEffect:     "effect",
}

func (t ObjectType) String() string {
	if name, ok := objectTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ObjectType(%d)", int(t))
}

// ParseObjectType maps a prefab type name to an ObjectType.
func ParseObjectType(name string) (ObjectType, error) {
	for t, n := range objectTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("entity: unknown object type %q", name)
}

// Faction returns the team the object type fights for.
func (t ObjectType) Faction() component.Faction {
	switch t {
	case TypePlayer, TypePlayerShot:
		return component.FactionPlayer
	case TypeEnemy, TypeEnemyShot:
		return component.FactionEnemy
	default:
		return component.FactionNeutral
	}
}

// Direction is a movement sign. The empty direction moves right or down.
type Direction string

const (
	DirNone  Direction = ""
	DirLeft  Direction = "left"
	DirRight Direction = "right"
	DirUp    Direction = "up"
	DirDown  Direction = "down"
)

// Entity is the shared object model of everything on screen.
type Entity struct {
	ObjectType ObjectType
	Name       string
	MainType   int
	SubType    int
	ID         int
	// CreateID is assigned by the registry on spawn.
	CreateID int

	X, Y, Z       float64
	Width, Height float64
	Degree        float64
	Flip          component.Flip
	Alpha         float64

	MoveSpeedX     float64
	MoveSpeedY     float64
	MoveDirectionX Direction
	MoveDirectionY Direction
	IsMoveEnable   bool
	IsAttackEnable bool

	component.Stats

	IsDeleted    bool
	IsDied       bool
	ElapsedFrame int

	Delay       *component.Delay
	MoveDelay   *component.Delay
	AttackDelay *component.Delay
	Animation   *component.Animation

	// Static atlas region drawn when there is no Animation.
	Image string
	SrcX  int
	SrcY  int

	// Prefabs spawned by the attack and death hooks.
	Shot        string
	DeathEffect string
	// IFramesOnHit is the invulnerability granted after a non-lethal hit.
	IFramesOnHit int

	// CullMargin overrides the context margin when > 0.
	CullMargin float64
	// Params carries behavior tuning from the prefab.
	Params map[string]float64

	Behavior Behavior

	centerX     float64
	centerY     float64
	initialized bool
}

// New creates an entity of the given type with the base behavior.
func New(t ObjectType) *Entity {
	return &Entity{
		ObjectType:   t,
		Alpha:        1,
		IsMoveEnable: true,
		Behavior:     BaseBehavior{},
	}
}

// CenterX is x + floor(width/2) as of the last Process or placement.
func (e *Entity) CenterX() float64 { return e.centerX }

// CenterY is y + floor(height/2) as of the last Process or placement.
func (e *Entity) CenterY() float64 { return e.centerY }

// Initialized reports whether AfterInit has run.
func (e *Entity) Initialized() bool { return e.initialized }

// Faction returns the entity's team.
func (e *Entity) Faction() component.Faction { return e.ObjectType.Faction() }

// Param returns a behavior parameter or def when unset.
func (e *Entity) Param(name string, def float64) float64 {
	if v, ok := e.Params[name]; ok {
		return v
	}
	return def
}

// SetDegree sets the rotation in degrees.
func (e *Entity) SetDegree(deg float64) error {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidRotation, deg)
	}
	e.Degree = deg
	return nil
}

// SetPosition moves the entity and refreshes its center.
func (e *Entity) SetPosition(x, y float64) error {
	if !finite(x) || !finite(y) {
		return fmt.Errorf("%w: (%v, %v)", ErrInvalidPosition, x, y)
	}
	e.X, e.Y = x, y
	e.updateCenter()
	return nil
}

// SetAnimation replaces the owned animation.
func (e *Entity) SetAnimation(a *component.Animation) {
	e.Animation = a
	if a != nil && (a.OutputW == 0 || a.OutputH == 0) {
		a.SetOutputSize(e.Width, e.Height)
	}
}

// Box returns the collision rectangle.
func (e *Entity) Box() component.Box {
	return component.Box{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height, Degree: e.Degree}
}

// Collides tests e against other, using the oriented test when either is
// rotated.
func (e *Entity) Collides(other *Entity) bool {
	if e == nil || other == nil {
		return false
	}
	if e.Degree != 0 || other.Degree != 0 {
		return component.IntersectsOBB(e.Box(), other.Box())
	}
	return component.IntersectsAABB(e.Box(), other.Box())
}

// IsOffscreen reports whether e lies more than margin pixels outside b. A
// margin of 0 is the exact edge.
func (e *Entity) IsOffscreen(b common.Bounds, margin float64) bool {
	return b.Outside(e.X, e.Y, e.Width, e.Height, margin)
}

// MoveDefault applies the signed per-tick velocity.
func (e *Entity) MoveDefault() {
	if !e.IsMoveEnable {
		return
	}
	if e.MoveDirectionX == DirLeft {
		e.X -= e.MoveSpeedX
	} else {
		e.X += e.MoveSpeedX
	}
	if e.MoveDirectionY == DirUp {
		e.Y -= e.MoveSpeedY
	} else {
		e.Y += e.MoveSpeedY
	}
}

// Process runs one simulation tick.
func (e *Entity) Process(ctx *Context) error {
	if e == nil || e.IsDeleted {
		return nil
	}
	if ctx == nil {
		ctx = &Context{}
	}
	b := e.behavior()

	if !e.initialized {
		e.initialized = true
		if err := b.AfterInit(ctx, e); err != nil {
			return fmt.Errorf("after init: %w", err)
		}
	}

	if err := b.Move(ctx, e); err != nil {
		return fmt.Errorf("move: %w", err)
	}
	e.updateCenter()

	if e.Animation != nil {
		e.Animation.Degree = e.Degree
		e.Animation.Flip = e.Flip
		e.Animation.Process()
	}

	if err := b.Update(ctx, e); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if e.IsAttackEnable {
		if err := b.Attack(ctx, e); err != nil {
			return fmt.Errorf("attack: %w", err)
		}
	}

	if e.IsOffscreen(ctx.Field, ctx.cullMargin(e)) {
		e.IsDeleted = true
	}

	e.Stats.Tick()
	e.ElapsedFrame++
	return nil
}

// Display draws the entity. It reports whether anything was drawn.
func (e *Entity) Display(dst *ebiten.Image, images component.ImageSource) bool {
	if e == nil || e.IsDeleted || e.Alpha <= 0 {
		return false
	}
	return e.behavior().Draw(dst, images, e)
}

// DrawDefault draws the animation, or the static atlas region when there is
// none.
func (e *Entity) DrawDefault(dst *ebiten.Image, images component.ImageSource) bool {
	if images == nil {
		return false
	}
	if e.Animation != nil {
		e.Animation.Alpha = e.Alpha
		e.Animation.Degree = e.Degree
		e.Animation.Flip = e.Flip
		return e.Animation.Display(dst, images, e.X, e.Y)
	}
	if e.Image == "" {
		return false
	}
	img := images.Image(e.Image)
	if img == nil {
		return false
	}
	w, h := int(e.Width), int(e.Height)
	return component.DrawRegion(dst, img, component.Blit{
		Src:    image.Rect(e.SrcX, e.SrcY, e.SrcX+w, e.SrcY+h),
		X:      e.X,
		Y:      e.Y,
		W:      e.Width,
		H:      e.Height,
		Degree: e.Degree,
		Flip:   e.Flip,
		Alpha:  e.Alpha,
	})
}

// Damage applies an attack value. A lethal hit runs the death transition.
func (e *Entity) Damage(ctx *Context, attackerID, attack int) (int, bool) {
	if e == nil || e.IsDied || e.IsDeleted {
		return 0, false
	}
	dmg, dead := e.Stats.ApplyDamage(attack)
	if dmg > 0 && ctx != nil {
		ctx.emit(component.CombatEvent{
			Type:       component.EventHit,
			AttackerID: attackerID,
			TargetID:   e.CreateID,
			Damage:     dmg,
			PosX:       e.centerX,
			PosY:       e.centerY,
		})
	}
	if dead {
		e.Kill(ctx)
	} else if dmg > 0 {
		e.StartIFrames(e.IFramesOnHit)
	}
	return dmg, dead
}

// Kill marks the entity dead and runs its Die hook once.
func (e *Entity) Kill(ctx *Context) {
	if e == nil || e.IsDied {
		return
	}
	e.IsDied = true
	if ctx == nil {
		ctx = &Context{}
	}
	ctx.emit(component.CombatEvent{
		Type:     component.EventDeath,
		TargetID: e.CreateID,
		PosX:     e.centerX,
		PosY:     e.centerY,
	})
	e.behavior().Die(ctx, e)
}

func (e *Entity) behavior() Behavior {
	if e.Behavior == nil {
		return BaseBehavior{}
	}
	return e.Behavior
}

func (e *Entity) updateCenter() {
	e.centerX = e.X + math.Floor(e.Width/2)
	e.centerY = e.Y + math.Floor(e.Height/2)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
