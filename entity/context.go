package entity

import (
	"fmt"

	"github.com/milk9111/shmup/common"
	"github.com/milk9111/shmup/component"
	"go.uber.org/zap"
)

// Input is the player control state for the current tick.
type Input interface {
	// Axis returns the movement direction, each component in [-1, 1].
	Axis() (float64, float64)
	Firing() bool
}

// Context is passed to every behavior hook. It gives entities access to the
// world without holding references to it.
type Context struct {
	Registry *Registry
	Factory  *Factory
	Field    common.Bounds
	Input    Input
	Events   *component.CombatEventEmitter
	// CullMargin is the default off-screen margin; 0 means
	// common.DefaultCullMargin.
	CullMargin float64
	Log        *zap.Logger
}

// Spawn creates the named prefab and places it at (x, y).
func (c *Context) Spawn(name string, x, y float64) (*Entity, error) {
	if c == nil || c.Factory == nil || c.Registry == nil {
		return nil, fmt.Errorf("entity: spawn %s: no world", name)
	}
	e, err := c.Factory.Create(name)
	if err != nil {
		return nil, err
	}
	return c.Registry.Spawn(e, x, y)
}

// SpawnCentered spawns the named prefab with its center at (cx, cy).
func (c *Context) SpawnCentered(name string, cx, cy float64) (*Entity, error) {
	if c == nil || c.Factory == nil || c.Registry == nil {
		return nil, fmt.Errorf("entity: spawn %s: no world", name)
	}
	e, err := c.Factory.Create(name)
	if err != nil {
		return nil, err
	}
	return c.Registry.Spawn(e, cx-float64(int(e.Width/2)), cy-float64(int(e.Height/2)))
}

// HostileCount returns the number of live enemies.
func (c *Context) HostileCount() int {
	if c == nil {
		return 0
	}
	return c.Registry.HostileCount()
}

// Bounds returns the playfield.
func (c *Context) Bounds() common.Bounds {
	if c == nil {
		return common.Bounds{}
	}
	return c.Field
}

// Frame returns the registry tick count.
func (c *Context) Frame() int {
	if c == nil {
		return 0
	}
	return c.Registry.Frame()
}

func (c *Context) logger() *zap.Logger {
	if c == nil || c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

func (c *Context) emit(evt component.CombatEvent) {
	if c == nil || c.Events == nil {
		return
	}
	evt.Frame = c.Frame()
	c.Events.Emit(evt)
}

func (c *Context) cullMargin(e *Entity) float64 {
	if e.CullMargin > 0 {
		return e.CullMargin
	}
	if c.CullMargin > 0 {
		return c.CullMargin
	}
	return common.DefaultCullMargin
}
