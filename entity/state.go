package entity

import (
	"fmt"

	"github.com/milk9111/shmup/component"
)

// State is the persisted plain data of an entity. Behavior, sub-object
// ownership and atlas configuration come back from the prefab on restore.
type State struct {
	Name         string  `yaml:"name"`
	CreateID     int     `yaml:"create_id"`
	X            float64 `yaml:"x"`
	Y            float64 `yaml:"y"`
	Z            float64 `yaml:"z,omitempty"`
	Degree       float64 `yaml:"degree,omitempty"`
	Flip         int     `yaml:"flip,omitempty"`
	Alpha        float64 `yaml:"alpha"`
	MoveSpeedX   float64 `yaml:"move_speed_x"`
	MoveSpeedY   float64 `yaml:"move_speed_y"`
	DirectionX   string  `yaml:"direction_x,omitempty"`
	DirectionY   string  `yaml:"direction_y,omitempty"`
	MoveEnable   bool    `yaml:"move_enable"`
	AttackEnable bool    `yaml:"attack_enable"`

	Attack  int `yaml:"attack"`
	Defense int `yaml:"defense"`
	HP      int `yaml:"hp"`
	HPMax   int `yaml:"hp_max"`
	IFrames int `yaml:"iframes,omitempty"`

	ElapsedFrame int  `yaml:"elapsed_frame"`
	Died         bool `yaml:"died,omitempty"`

	DelayCount       int `yaml:"delay_count,omitempty"`
	MoveDelayCount   int `yaml:"move_delay_count,omitempty"`
	AttackDelayCount int `yaml:"attack_delay_count,omitempty"`

	// Thresholds; 0 means the entity has no such delay.
	DelayMax       int `yaml:"delay_max,omitempty"`
	MoveDelayMax   int `yaml:"move_delay_max,omitempty"`
	AttackDelayMax int `yaml:"attack_delay_max,omitempty"`

	AnimFrame  int  `yaml:"anim_frame,omitempty"`
	AnimRepeat int  `yaml:"anim_repeat,omitempty"`
	AnimDone   bool `yaml:"anim_done,omitempty"`
}

// Snapshot captures e's plain data.
func (e *Entity) Snapshot() State {
	s := State{
		Name:         e.Name,
		CreateID:     e.CreateID,
		X:            e.X,
		Y:            e.Y,
		Z:            e.Z,
		Degree:       e.Degree,
		Flip:         int(e.Flip),
		Alpha:        e.Alpha,
		MoveSpeedX:   e.MoveSpeedX,
		MoveSpeedY:   e.MoveSpeedY,
		DirectionX:   string(e.MoveDirectionX),
		DirectionY:   string(e.MoveDirectionY),
		MoveEnable:   e.IsMoveEnable,
		AttackEnable: e.IsAttackEnable,
		Attack:       e.Attack,
		Defense:      e.Defense,
		HP:           e.HP,
		HPMax:        e.HPMax,
		IFrames:      e.IFrames,
		ElapsedFrame: e.ElapsedFrame,
		Died:         e.IsDied,
	}
	s.DelayMax, s.DelayCount = delayState(e.Delay)
	s.MoveDelayMax, s.MoveDelayCount = delayState(e.MoveDelay)
	s.AttackDelayMax, s.AttackDelayCount = delayState(e.AttackDelay)
	if e.Animation != nil {
		s.AnimFrame = e.Animation.ElapsedFrame
		s.AnimRepeat = e.Animation.FrameRepeatCount
		s.AnimDone = e.Animation.Finished
	}
	return s
}

// Restore overwrites e's plain data from s. The entity counts as initialized
// so AfterInit does not run a second time.
func (e *Entity) Restore(s State) error {
	if err := e.SetDegree(s.Degree); err != nil {
		return err
	}
	if err := e.SetPosition(s.X, s.Y); err != nil {
		return err
	}
	e.Z = s.Z
	e.Flip = component.Flip(s.Flip)
	e.Alpha = s.Alpha
	e.MoveSpeedX = s.MoveSpeedX
	e.MoveSpeedY = s.MoveSpeedY
	e.MoveDirectionX = Direction(s.DirectionX)
	e.MoveDirectionY = Direction(s.DirectionY)
	e.IsMoveEnable = s.MoveEnable
	e.IsAttackEnable = s.AttackEnable
	e.Stats = component.Stats{
		Attack:  s.Attack,
		Defense: s.Defense,
		HP:      s.HP,
		HPMax:   s.HPMax,
		IFrames: s.IFrames,
	}
	e.ElapsedFrame = s.ElapsedFrame
	e.IsDied = s.Died
	e.CreateID = s.CreateID
	e.Delay = restoreDelay(e.Delay, s.DelayMax, s.DelayCount)
	e.MoveDelay = restoreDelay(e.MoveDelay, s.MoveDelayMax, s.MoveDelayCount)
	e.AttackDelay = restoreDelay(e.AttackDelay, s.AttackDelayMax, s.AttackDelayCount)
	if e.Animation != nil {
		e.Animation.ElapsedFrame = s.AnimFrame
		e.Animation.FrameRepeatCount = s.AnimRepeat
		e.Animation.Finished = s.AnimDone
	}
	e.initialized = true
	return nil
}

func delayState(d *component.Delay) (int, int) {
	if d == nil {
		return 0, 0
	}
	return d.Delay, d.Count
}

// restoreDelay applies a saved threshold and count. A saved threshold of 0
// keeps the prefab's delay, so saves without thresholds still load.
func restoreDelay(d *component.Delay, threshold, count int) *component.Delay {
	if threshold > 0 {
		if d == nil {
			d = component.NewDelay(threshold)
		}
		d.Delay = threshold
	}
	if d != nil {
		d.Count = count
	}
	return d
}

// Snapshot captures every live entity in spawn order.
func (r *Registry) Snapshot() []State {
	live := r.Entities()
	out := make([]State, 0, len(live))
	for _, e := range live {
		out = append(out, e.Snapshot())
	}
	return out
}

// Restore replaces the registry contents with entities rebuilt from states.
// Saved CreateIDs are kept and new spawns continue past the highest one. On
// error the registry is left unchanged.
func (r *Registry) Restore(f *Factory, states []State) error {
	rebuilt := make([]*Entity, 0, len(states))
	for _, s := range states {
		e, err := f.Create(s.Name)
		if err != nil {
			return err
		}
		if err := e.Restore(s); err != nil {
			return fmt.Errorf("entity: restore %s#%d: %w", s.Name, s.CreateID, err)
		}
		rebuilt = append(rebuilt, e)
	}

	r.Clear()
	r.nextID = 0
	for _, e := range rebuilt {
		if e.CreateID <= 0 {
			continue
		}
		r.nextID = max(r.nextID, e.CreateID)
	}
	for _, e := range rebuilt {
		if e.CreateID <= 0 {
			r.nextID++
			e.CreateID = r.nextID
		}
		r.admit(e)
	}
	return nil
}
