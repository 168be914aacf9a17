package entity

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/milk9111/shmup/component"
	"github.com/milk9111/shmup/prefabs"
)

type spawner struct {
	BaseBehavior
	name string
	done bool
}

func (s *spawner) Update(ctx *Context, e *Entity) error {
	if s.done {
		return nil
	}
	s.done = true
	_, err := ctx.Spawn(s.name, e.X, e.Y)
	return err
}

func testSpecs() map[string]prefabs.EntitySpec {
	return map[string]prefabs.EntitySpec{
		"drone": {
			Name:   "drone",
			Type:   "enemy",
			Width:  20,
			Height: 20,
			Stats:  prefabs.StatsSpec{Attack: 1, HP: 2},
		},
		"pellet": {
			Name:     "pellet",
			Type:     "player_shot",
			Behavior: "shot",
			Width:    4,
			Height:   4,
			Stats:    prefabs.StatsSpec{Attack: 1, HP: 1},
		},
		"spark": {
			Name:     "spark",
			Type:     "effect",
			Behavior: "effect",
			Delay:    3,
		},
	}
}

func newTestWorld(t *testing.T) *Context {
	t.Helper()
	f, err := NewFactory(nil, testSpecs())
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	return &Context{Registry: NewRegistry(nil), Factory: f, Field: testField}
}

func TestRegistrySpawnAssignsIDs(t *testing.T) {
	ctx := newTestWorld(t)
	a, err := ctx.Spawn("drone", 10, 20)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	b, _ := ctx.Spawn("drone", 30, 40)
	if a.CreateID == 0 || b.CreateID != a.CreateID+1 {
		t.Fatalf("unexpected create ids %d, %d", a.CreateID, b.CreateID)
	}
	if a.X != 10 || a.Y != 20 || a.CenterX() != 20 {
		t.Fatalf("spawn did not place entity: (%v,%v) center %v", a.X, a.Y, a.CenterX())
	}
	if ctx.Registry.Count() != 2 || ctx.Registry.HostileCount() != 2 {
		t.Fatalf("expected 2 hostiles, got count=%d hostiles=%d", ctx.Registry.Count(), ctx.Registry.HostileCount())
	}
}

func TestRegistryDefersMidTickSpawns(t *testing.T) {
	ctx := newTestWorld(t)
	parent := New(TypeEffect)
	parent.Name = "parent"
	parent.Behavior = &spawner{name: "drone"}
	if _, err := ctx.Registry.Spawn(parent, 100, 100); err != nil {
		t.Fatalf("spawn: %v", err)
	}

	if err := ctx.Registry.Process(ctx); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if ctx.Registry.Count() != 2 {
		t.Fatalf("expected child admitted after the pass, count=%d", ctx.Registry.Count())
	}
	var child *Entity
	ctx.Registry.Each(func(e *Entity) bool {
		if e.Name == "drone" {
			child = e
		}
		return true
	})
	if child == nil {
		t.Fatalf("child not iterable after the pass")
	}
	if child.ElapsedFrame != 0 || child.Initialized() {
		t.Fatalf("child must not be processed in the tick it was spawned")
	}

	_ = ctx.Registry.Process(ctx)
	if child.ElapsedFrame != 1 {
		t.Fatalf("expected child processed on the next tick, elapsed=%d", child.ElapsedFrame)
	}
}

func TestRegistryCompactsDeleted(t *testing.T) {
	ctx := newTestWorld(t)
	a, _ := ctx.Spawn("drone", 10, 10)
	b, _ := ctx.Spawn("drone", 50, 10)
	c, _ := ctx.Spawn("drone", 90, 10)

	b.IsDeleted = true
	_ = ctx.Registry.Process(ctx)
	if ctx.Registry.Count() != 2 {
		t.Fatalf("expected 2 after compaction, got %d", ctx.Registry.Count())
	}
	if b.ElapsedFrame != 0 {
		t.Fatalf("deleted entity was processed")
	}

	c.IsDied = true
	if ctx.Registry.HostileCount() != 1 {
		t.Fatalf("dying enemies are not hostile, got %d", ctx.Registry.HostileCount())
	}

	a.IsDeleted = true
	c.IsDeleted = true
	_ = ctx.Registry.Process(ctx)
	if !ctx.Registry.IsEmpty() {
		t.Fatalf("expected empty registry")
	}
	if ctx.Registry.Frame() != 2 {
		t.Fatalf("expected 2 passes, got %d", ctx.Registry.Frame())
	}
}

func TestRegistryShotDamagesHostile(t *testing.T) {
	ctx := newTestWorld(t)
	drone, _ := ctx.Spawn("drone", 100, 100)
	first, _ := ctx.Spawn("pellet", 105, 105)

	_ = ctx.Registry.Process(ctx)
	if drone.HP != 1 {
		t.Fatalf("expected drone hp 1, got %d", drone.HP)
	}
	if !first.IsDeleted {
		t.Fatalf("shot must be removed after a hit")
	}

	second, _ := ctx.Spawn("pellet", 105, 105)
	_ = ctx.Registry.Process(ctx)
	if !drone.IsDied || !drone.IsDeleted || !second.IsDeleted {
		t.Fatalf("expected lethal hit: died=%v deleted=%v", drone.IsDied, drone.IsDeleted)
	}
	if ctx.Registry.HostileCount() != 0 {
		t.Fatalf("expected no hostiles left")
	}
}

func TestRegistryShotIgnoresFriendly(t *testing.T) {
	ctx := newTestWorld(t)
	player := New(TypePlayer)
	player.Width, player.Height = 20, 20
	player.Stats.HP, player.Stats.HPMax = 3, 3
	_, _ = ctx.Registry.Spawn(player, 100, 100)
	shot, _ := ctx.Spawn("pellet", 105, 105)

	_ = ctx.Registry.Process(ctx)
	if player.HP != 3 || shot.IsDeleted {
		t.Fatalf("player shot hit the player: hp=%d shot deleted=%v", player.HP, shot.IsDeleted)
	}
	if ctx.Registry.Player() != player {
		t.Fatalf("registry did not track the player")
	}
}

func TestEffectExpiresOnDelay(t *testing.T) {
	ctx := newTestWorld(t)
	spark, _ := ctx.Spawn("spark", 10, 10)
	for i := 0; i < 2; i++ {
		_ = ctx.Registry.Process(ctx)
	}
	if spark.IsDeleted {
		t.Fatalf("spark expired early")
	}
	_ = ctx.Registry.Process(ctx)
	if !spark.IsDeleted || !ctx.Registry.IsEmpty() {
		t.Fatalf("expected spark removed after 3 ticks")
	}
}

func TestFactoryErrors(t *testing.T) {
	ctx := newTestWorld(t)
	if _, err := ctx.Factory.Create("missing"); !errors.Is(err, ErrUnknownPrefab) {
		t.Fatalf("expected ErrUnknownPrefab, got %v", err)
	}
	if _, err := ctx.Spawn("missing", 0, 0); !errors.Is(err, ErrUnknownPrefab) {
		t.Fatalf("expected spawn to surface ErrUnknownPrefab, got %v", err)
	}

	bad := testSpecs()
	bad["broken"] = prefabs.EntitySpec{Name: "broken", Type: "enemy", Behavior: "teleporter"}
	if _, err := NewFactory(nil, bad); !errors.Is(err, ErrUnknownBehavior) {
		t.Fatalf("expected ErrUnknownBehavior, got %v", err)
	}
	if err := ctx.Factory.SetSpecs(bad); err == nil || !ctx.Factory.Has("drone") {
		t.Fatalf("failed reload must keep the previous table")
	}
}

func TestRegistrySnapshotRestore(t *testing.T) {
	ctx := newTestWorld(t)
	drone, _ := ctx.Spawn("drone", 40, 50)
	drone.HP = 1
	drone.MoveDirectionX = DirLeft
	_ = drone.SetDegree(30)

	states := ctx.Registry.Snapshot()
	other := NewRegistry(nil)
	if err := other.Restore(ctx.Factory, states); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got := other.Entities()
	if len(got) != 1 {
		t.Fatalf("expected 1 restored entity, got %d", len(got))
	}
	r := got[0]
	if r.X != 40 || r.Y != 50 || r.HP != 1 || r.MoveDirectionX != DirLeft || r.Degree != 30 || !r.Initialized() {
		t.Fatalf("restore lost state: %+v", r.Snapshot())
	}
}

func TestRegistryRestoreKeepsIdentityAndDeath(t *testing.T) {
	ctx := newTestWorld(t)
	alive, _ := ctx.Spawn("drone", 10, 10)
	dying, _ := ctx.Spawn("drone", 60, 10)
	dying.IsDied = true
	alive.MoveDelay = component.NewDelay(5)
	alive.MoveDelay.SetDelay(9)
	alive.MoveDelay.Count = 4
	if ctx.Registry.HostileCount() != 1 {
		t.Fatalf("expected 1 hostile before save, got %d", ctx.Registry.HostileCount())
	}

	states := ctx.Registry.Snapshot()
	other := NewRegistry(nil)
	if err := other.Restore(ctx.Factory, states); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := other.HostileCount(); got != 1 {
		t.Fatalf("dying enemy came back alive: hostiles=%d", got)
	}

	byID := map[int]*Entity{}
	for _, e := range other.Entities() {
		byID[e.CreateID] = e
	}
	a, d := byID[alive.CreateID], byID[dying.CreateID]
	if a == nil || d == nil {
		t.Fatalf("create ids not kept: %v", byID)
	}
	if !d.IsDied || a.IsDied {
		t.Fatalf("died flags swapped: alive=%v dying=%v", a.IsDied, d.IsDied)
	}
	if a.MoveDelay == nil || a.MoveDelay.Delay != 9 || a.MoveDelay.Count != 4 {
		t.Fatalf("move delay not restored: %+v", a.MoveDelay)
	}

	fresh, err := ctx.Factory.Create("drone")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := other.Spawn(fresh, 0, 0); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if fresh.CreateID != dying.CreateID+1 {
		t.Fatalf("next id = %d, want %d", fresh.CreateID, dying.CreateID+1)
	}
}

func TestRegistryRestoreUnknownPrefabKeepsWorld(t *testing.T) {
	ctx := newTestWorld(t)
	_, _ = ctx.Spawn("drone", 10, 10)
	err := ctx.Registry.Restore(ctx.Factory, []State{{Name: "ghost", Alpha: 1}})
	if !errors.Is(err, ErrUnknownPrefab) {
		t.Fatalf("expected ErrUnknownPrefab, got %v", err)
	}
	if ctx.Registry.Count() != 1 {
		t.Fatalf("failed restore changed the registry: count=%d", ctx.Registry.Count())
	}
}

type stubInput struct {
	dx, dy float64
	fire   bool
}

func (s *stubInput) Axis() (float64, float64) { return s.dx, s.dy }
func (s *stubInput) Firing() bool             { return s.fire }

func boolPtr(b bool) *bool { return &b }

func behaviorSpecs() map[string]prefabs.EntitySpec {
	specs := testSpecs()
	specs["ship"] = prefabs.EntitySpec{
		Name:     "ship",
		Type:     "player",
		Behavior: "player",
		Width:    10,
		Height:   10,
		Stats:    prefabs.StatsSpec{HP: 3},
		Move:     prefabs.MoveSpec{SpeedX: 2, SpeedY: 2},
		Attack:   prefabs.AttackSpec{Enabled: true, Delay: 3, Shot: "pellet"},
	}
	specs["bolt"] = prefabs.EntitySpec{
		Name:     "bolt",
		Type:     "enemy_shot",
		Behavior: "shot",
		Width:    4,
		Height:   4,
		Stats:    prefabs.StatsSpec{Attack: 1, HP: 1},
	}
	specs["turret"] = prefabs.EntitySpec{
		Name:     "turret",
		Type:     "enemy",
		Behavior: "shooter",
		Width:    20,
		Height:   20,
		Stats:    prefabs.StatsSpec{Attack: 1, HP: 5},
		Move:     prefabs.MoveSpec{Enabled: boolPtr(false)},
		Attack:   prefabs.AttackSpec{Enabled: true, Delay: 1, Shot: "bolt"},
		Params:   map[string]float64{"burst": 3, "spread": 10, "shot_speed": 2},
	}
	specs["swayer"] = prefabs.EntitySpec{
		Name:     "swayer",
		Type:     "enemy",
		Behavior: "shooter",
		Width:    20,
		Height:   20,
		Stats:    prefabs.StatsSpec{Attack: 1, HP: 5},
		Move:     prefabs.MoveSpec{SpeedX: 1, SpeedY: 5, DirectionX: "left", DirectionY: "down", Delay: 3},
		Params:   map[string]float64{"stop_y": 20},
	}
	return specs
}

func newBehaviorWorld(t *testing.T, in *stubInput) *Context {
	t.Helper()
	f, err := NewFactory(nil, behaviorSpecs())
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	return &Context{Registry: NewRegistry(nil), Factory: f, Field: testField, Input: in}
}

func countNamed(r *Registry, name string) int {
	n := 0
	r.Each(func(e *Entity) bool {
		if e.Name == name {
			n++
		}
		return true
	})
	return n
}

func TestPlayerClampedToField(t *testing.T) {
	tests := []struct {
		name         string
		x, y, dx, dy float64
		wantX, wantY float64
	}{
		{"free", 100, 100, 1, -1, 102, 98},
		{"bottom right", 629, 469, 1, 1, 630, 470},
		{"top left", 1, 0, -1, -1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &stubInput{dx: tt.dx, dy: tt.dy}
			ctx := newBehaviorWorld(t, in)
			ship, err := ctx.Spawn("ship", tt.x, tt.y)
			if err != nil {
				t.Fatalf("spawn: %v", err)
			}
			if err := ctx.Registry.Process(ctx); err != nil {
				t.Fatalf("Process: %v", err)
			}
			if ship.X != tt.wantX || ship.Y != tt.wantY {
				t.Fatalf("position = (%v,%v), want (%v,%v)", ship.X, ship.Y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestPlayerFireCadence(t *testing.T) {
	in := &stubInput{}
	ctx := newBehaviorWorld(t, in)
	if _, err := ctx.Spawn("ship", 300, 400); err != nil {
		t.Fatalf("spawn: %v", err)
	}

	// Idle ticks still count up, so the first press fires at once.
	for i := 0; i < 5; i++ {
		_ = ctx.Registry.Process(ctx)
	}
	if n := countNamed(ctx.Registry, "pellet"); n != 0 {
		t.Fatalf("fired without input: %d shots", n)
	}

	in.fire = true
	tests := []struct {
		tick  int
		shots int
	}{
		{1, 1},
		{2, 1},
		{3, 1},
		{4, 2},
		{7, 3},
	}
	tick := 0
	for _, tt := range tests {
		for tick < tt.tick {
			if err := ctx.Registry.Process(ctx); err != nil {
				t.Fatalf("Process: %v", err)
			}
			tick++
		}
		if n := countNamed(ctx.Registry, "pellet"); n != tt.shots {
			t.Fatalf("after %d firing ticks: %d shots, want %d", tt.tick, n, tt.shots)
		}
	}

	var shot *Entity
	ctx.Registry.Each(func(e *Entity) bool {
		if e.Name == "pellet" {
			shot = e
			return false
		}
		return true
	})
	if shot.MoveSpeedY >= 0 || math.Abs(shot.MoveSpeedX) > 1e-9 {
		t.Fatalf("player shot not launched upward: vx=%v vy=%v", shot.MoveSpeedX, shot.MoveSpeedY)
	}
}

func TestShooterAimedBurst(t *testing.T) {
	ctx := newBehaviorWorld(t, &stubInput{})
	player := New(TypePlayer)
	player.Width, player.Height = 20, 20
	player.Stats.HP, player.Stats.HPMax = 3, 3
	if _, err := ctx.Registry.Spawn(player, 100, 300); err != nil {
		t.Fatalf("spawn player: %v", err)
	}
	if _, err := ctx.Spawn("turret", 100, 100); err != nil {
		t.Fatalf("spawn turret: %v", err)
	}

	if err := ctx.Registry.Process(ctx); err != nil {
		t.Fatalf("Process: %v", err)
	}
	var degrees []float64
	ctx.Registry.Each(func(e *Entity) bool {
		if e.Name == "bolt" {
			degrees = append(degrees, e.Degree)
		}
		return true
	})
	slices.Sort(degrees)
	want := []float64{80, 90, 100}
	if len(degrees) != len(want) {
		t.Fatalf("burst fired %d shots, want %d", len(degrees), len(want))
	}
	for i := range want {
		if math.Abs(degrees[i]-want[i]) > 1e-6 {
			t.Fatalf("shot angles = %v, want %v", degrees, want)
		}
	}
}

func TestShooterHoldsFireOutsideField(t *testing.T) {
	ctx := newBehaviorWorld(t, &stubInput{})
	turret, _ := ctx.Spawn("turret", 100, -50)
	for i := 0; i < 3; i++ {
		_ = ctx.Registry.Process(ctx)
	}
	if n := countNamed(ctx.Registry, "bolt"); n != 0 {
		t.Fatalf("fired from outside the field: %d shots", n)
	}

	_ = turret.SetPosition(100, 100)
	_ = ctx.Registry.Process(ctx)
	if n := countNamed(ctx.Registry, "bolt"); n != 3 {
		t.Fatalf("expected a burst once inside, got %d shots", n)
	}
}

func TestShooterSwayAndStop(t *testing.T) {
	ctx := newBehaviorWorld(t, &stubInput{})
	e, _ := ctx.Spawn("swayer", 100, 0)

	tests := []struct {
		tick int
		x, y float64
		dir  Direction
	}{
		{1, 99, 5, DirLeft},
		{3, 97, 15, DirRight},
		{4, 98, 20, DirRight},
		{6, 100, 20, DirLeft},
	}
	tick := 0
	for _, tt := range tests {
		for tick < tt.tick {
			if err := ctx.Registry.Process(ctx); err != nil {
				t.Fatalf("Process: %v", err)
			}
			tick++
		}
		if e.X != tt.x || e.Y != tt.y || e.MoveDirectionX != tt.dir {
			t.Fatalf("tick %d: (%v,%v) dir %q, want (%v,%v) dir %q", tt.tick, e.X, e.Y, e.MoveDirectionX, tt.x, tt.y, tt.dir)
		}
	}
	if e.MoveSpeedY != 0 {
		t.Fatalf("stop_y must cancel vertical speed, got %v", e.MoveSpeedY)
	}
}

func TestShooterRamsPlayer(t *testing.T) {
	ctx := newBehaviorWorld(t, &stubInput{})
	player := New(TypePlayer)
	player.Width, player.Height = 20, 20
	player.Stats.HP, player.Stats.HPMax = 3, 3
	player.IFramesOnHit = 10
	_, _ = ctx.Registry.Spawn(player, 100, 100)
	e, _ := ctx.Spawn("swayer", 105, 105)
	e.IsMoveEnable = false

	_ = ctx.Registry.Process(ctx)
	if player.HP != 2 {
		t.Fatalf("ram did not damage the player: hp=%d", player.HP)
	}
	_ = ctx.Registry.Process(ctx)
	if player.HP != 2 {
		t.Fatalf("iframes did not protect the player: hp=%d", player.HP)
	}
}
