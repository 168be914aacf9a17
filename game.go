package main

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/milk9111/shmup/assets"
	"github.com/milk9111/shmup/component"
	"github.com/milk9111/shmup/config"
	"github.com/milk9111/shmup/entity"
	"github.com/milk9111/shmup/prefabs"
	"github.com/milk9111/shmup/round"
	"github.com/milk9111/shmup/save"
	"go.uber.org/zap"
	"golang.org/x/image/colornames"
)

type Game struct {
	cfg *config.Config
	log *zap.Logger

	input    *Input
	images   *assets.Resolver
	factory  *entity.Factory
	registry *entity.Registry
	events   *component.CombatEventEmitter
	ctx      *entity.Context
	saves    *save.Store
	watcher  *prefabs.Watcher

	spec  prefabs.RoundSpec
	round *round.Round

	pauseUI *ebitenui.UI
	paused  bool
	quit    bool
	over    bool
	cleared bool

	kills int
	hits  int
}

func NewGame(cfg *config.Config, log *zap.Logger) (*Game, error) {
	specs, err := prefabs.LoadEntitySpecs()
	if err != nil {
		return nil, err
	}
	factory, err := entity.NewFactory(log.Named("factory"), specs)
	if err != nil {
		return nil, err
	}

	g := &Game{
		cfg:      cfg,
		log:      log,
		input:    NewInput(),
		images:   assets.NewResolver(log.Named("assets"), cfg.Assets.Dir),
		factory:  factory,
		registry: entity.NewRegistry(log.Named("registry")),
		events:   &component.CombatEventEmitter{},
		saves:    save.Open(log.Named("save"), cfg.Save.AppName),
	}
	g.ctx = &entity.Context{
		Registry:   g.registry,
		Factory:    g.factory,
		Field:      cfg.Bounds(),
		Input:      g.input,
		Events:     g.events,
		CullMargin: cfg.Field.CullMargin,
		Log:        log.Named("entity"),
	}
	g.events.Subscribe(g.onCombat)
	g.registerFallbacks(specs)

	if err := g.startRound(cfg.Game.Round); err != nil {
		g.images.Close()
		return nil, err
	}

	if cfg.Game.HotReload {
		dirs := append(prefabs.DiskDirs(), assets.Dirs(cfg.Assets.Dir)...)
		if len(dirs) > 0 {
			w, err := prefabs.NewWatcher(dirs...)
			if err != nil {
				log.Warn("prefab hot reload disabled", zap.Error(err))
			} else {
				g.watcher = w
				log.Info("watching prefabs", zap.Strings("dirs", dirs))
			}
		}
	}

	g.pauseUI = NewPauseUI(g)
	return g, nil
}

// startRound resets the world and loads the named round. The running round and
// world are kept when anything fails to load.
func (g *Game) startRound(name string) error {
	spec, err := prefabs.LoadRoundSpec(name)
	if err != nil {
		return err
	}
	src, err := prefabs.LoadScript(spec.Script)
	if err != nil {
		return fmt.Errorf("round %s: %w", name, err)
	}
	next, err := g.prepareRound(spec, src)
	if err != nil {
		return err
	}
	g.commitRound(next)
	return nil
}

// pendingRound is a loaded round and placed player not yet in the world.
type pendingRound struct {
	spec   prefabs.RoundSpec
	round  *round.Round
	player *entity.Entity
}

// prepareRound builds everything a round needs without touching the world.
func (g *Game) prepareRound(spec prefabs.RoundSpec, src []byte) (*pendingRound, error) {
	var player *entity.Entity
	if spec.Player != "" {
		p, err := g.factory.Create(spec.Player)
		if err != nil {
			return nil, fmt.Errorf("round %s: player: %w", spec.Name, err)
		}
		if err := p.SetPosition(spec.PlayerX, spec.PlayerY); err != nil {
			return nil, fmt.Errorf("round %s: player: %w", spec.Name, err)
		}
		player = p
	}

	r, err := round.New(g.log, g.ctx, round.Options{
		Name:         spec.Name,
		ScriptName:   spec.Script,
		Source:       src,
		FinishTime:   spec.FinishTime,
		TicksPerUnit: g.cfg.Game.TicksPerUnit,
		Background:   spec.Background,
	})
	if err != nil {
		return nil, err
	}
	return &pendingRound{spec: spec, round: r, player: player}, nil
}

// commitRound replaces the running round and clears the world.
func (g *Game) commitRound(next *pendingRound) {
	if g.round != nil {
		g.round.Close()
	}
	g.registry.Clear()
	g.registry.SetFrame(0)
	if next.player != nil {
		// Position was checked in prepareRound.
		if _, err := g.registry.Spawn(next.player, next.player.X, next.player.Y); err != nil {
			g.log.Error("player spawn failed", zap.Error(err))
		}
	}

	spec := next.spec
	g.spec = spec
	g.round = next.round
	g.over, g.cleared = false, false
	g.kills, g.hits = 0, 0
	if spec.Background != "" {
		g.images.SetFallback(spec.Background, assets.Sheet{
			Width:  int(g.cfg.Field.Width),
			Height: int(g.cfg.Field.Height),
			Color:  colornames.Midnightblue,
		})
		g.images.Preload(spec.Background)
	}
}

func (g *Game) Update() error {
	g.input.Update()
	if g.input.QuitPressed || g.quit {
		return ebiten.Termination
	}
	g.drainWatcher()

	if g.input.PausePressed {
		g.setPaused(!g.paused)
	}
	if g.input.SavePressed {
		g.saveGame()
	}
	if g.input.LoadPressed {
		g.loadGame()
	}
	if g.input.RestartPressed {
		if err := g.startRound(g.spec.Name); err != nil {
			g.log.Error("restart failed", zap.Error(err))
		}
	}

	if g.paused {
		g.pauseUI.Update()
		return nil
	}

	if err := g.round.Process(); err != nil {
		return err
	}
	if err := g.registry.Process(g.ctx); err != nil {
		return err
	}

	if !g.over && g.spec.Player != "" && g.registry.Player() == nil {
		g.over = true
		g.log.Info("game over", zap.String("round", g.spec.Name), zap.Int("kills", g.kills))
	}
	if !g.cleared && g.round.IsComplete() {
		g.cleared = true
		g.log.Info("round complete", zap.String("round", g.spec.Name), zap.Int("kills", g.kills), zap.Int("hits", g.hits))
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Black)
	if bg := g.images.Image(g.round.Background); bg != nil {
		op := &ebiten.DrawImageOptions{}
		b := bg.Bounds()
		op.GeoM.Scale(g.cfg.Field.Width/float64(b.Dx()), g.cfg.Field.Height/float64(b.Dy()))
		screen.DrawImage(bg, op)
	}

	g.registry.Draw(screen, g.images)

	switch {
	case g.over:
		ebitenutil.DebugPrintAt(screen, "GAME OVER  (R to retry)", int(g.cfg.Field.Width)/2-70, int(g.cfg.Field.Height)/2)
	case g.cleared:
		ebitenutil.DebugPrintAt(screen, "ROUND CLEAR", int(g.cfg.Field.Width)/2-35, int(g.cfg.Field.Height)/2)
	}

	if g.cfg.Game.Debug {
		s := g.round.Sched
		ebitenutil.DebugPrint(screen, fmt.Sprintf(
			"FPS: %.1f  t=%d+%d  phase=%d  boss=%v\nentities=%d  hostiles=%d  kills=%d",
			ebiten.ActualFPS(), s.CurrentTime, s.PlusTime, s.CurrentPhase(), s.BossMode,
			g.registry.Count(), g.registry.HostileCount(), g.kills,
		))
	}

	if g.paused {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return int(g.cfg.Field.Width), int(g.cfg.Field.Height)
}

// Close stops background goroutines and the script VM.
func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	g.images.Close()
	g.round.Close()
}

// setPaused freezes the whole simulation. The scheduler's own pause is left
// to scripts.
func (g *Game) setPaused(p bool) {
	g.paused = p
}

func (g *Game) onCombat(evt component.CombatEvent) {
	switch evt.Type {
	case component.EventHit:
		g.hits++
	case component.EventDeath:
		if p := g.registry.Player(); p == nil || p.CreateID != evt.TargetID {
			g.kills++
		}
	}
	g.log.Debug("combat",
		zap.String("type", string(evt.Type)),
		zap.Int("attacker", evt.AttackerID),
		zap.Int("target", evt.TargetID),
		zap.Int("damage", evt.Damage),
		zap.Int("frame", evt.Frame),
	)
}

func (g *Game) saveGame() {
	snap := save.Snapshot{
		Frame:    g.registry.Frame(),
		Round:    g.round.Snapshot(),
		Entities: g.registry.Snapshot(),
	}
	if err := g.saves.Save(g.cfg.Save.Slot, snap); err != nil {
		g.log.Error("save failed", zap.Error(err))
	}
}

func (g *Game) loadGame() {
	snap, err := g.saves.Load(g.cfg.Save.Slot)
	if errors.Is(err, save.ErrNoSave) {
		g.log.Info("nothing to load", zap.String("slot", g.cfg.Save.Slot))
		return
	}
	if err != nil {
		g.log.Error("load failed", zap.Error(err))
		return
	}
	if snap.Round.Name != g.spec.Name {
		if err := g.startRound(snap.Round.Name); err != nil {
			g.log.Error("load failed", zap.Error(err))
			return
		}
	}
	prev := g.round.Snapshot()
	if err := g.round.Restore(snap.Round); err != nil {
		g.log.Error("restore round", zap.Error(err))
		return
	}
	if err := g.registry.Restore(g.factory, snap.Entities); err != nil {
		g.log.Error("restore entities", zap.Error(err))
		if err := g.round.Restore(prev); err != nil {
			g.log.Error("roll back round", zap.Error(err))
		}
		return
	}
	g.registry.SetFrame(snap.Frame)
	g.over, g.cleared = false, false
	g.log.Info("loaded", zap.String("slot", g.cfg.Save.Slot), zap.Int("frame", snap.Frame))
}

// drainWatcher applies pending prefab edits without blocking the tick.
func (g *Game) drainWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case ch := <-g.watcher.Events:
			g.applyChange(ch)
		case err := <-g.watcher.Errors:
			g.log.Warn("prefab watcher", zap.Error(err))
		default:
			return
		}
	}
}

func (g *Game) applyChange(ch prefabs.Change) {
	log := g.log.With(zap.String("path", ch.Path))
	switch ch.Kind {
	case prefabs.ChangeEntity:
		specs, err := prefabs.LoadEntitySpecs()
		if err == nil {
			err = g.factory.SetSpecs(specs)
		}
		if err != nil {
			log.Error("prefab reload rejected", zap.Error(err))
			return
		}
		g.registerFallbacks(specs)
	case prefabs.ChangeScript:
		if filepath.Base(ch.Path) != filepath.Base(g.spec.Script) {
			return
		}
		src, err := prefabs.LoadScript(g.spec.Script)
		if err == nil {
			err = g.round.Reload(src)
		}
		if err != nil {
			log.Error("script reload rejected", zap.Error(err))
		}
	case prefabs.ChangeImage:
		rel, err := filepath.Rel(g.cfg.Assets.Dir, ch.Path)
		if err != nil {
			log.Warn("image outside the asset dir", zap.Error(err))
			return
		}
		g.images.Invalidate(filepath.ToSlash(rel))
		log.Debug("image reloading")
	case prefabs.ChangeRound:
		if filepath.Base(ch.Path) != g.spec.Name+".yaml" {
			return
		}
		if err := g.startRound(g.spec.Name); err != nil {
			log.Error("round reload rejected", zap.Error(err))
		}
	}
}

// registerFallbacks gives every sprite sheet named by a prefab a generated
// stand-in, so content renders before real art exists.
func (g *Game) registerFallbacks(specs map[string]prefabs.EntitySpec) {
	sheets := map[string]assets.Sheet{}
	grow := func(path string, w, h, fw, fh int, c color.RGBA) {
		if path == "" {
			return
		}
		s := sheets[path]
		s.Width, s.Height = max(s.Width, w), max(s.Height, h)
		if s.FrameW == 0 {
			s.FrameW, s.FrameH = fw, fh
		}
		if s.Color.A == 0 {
			s.Color = c
		}
		sheets[path] = s
	}
	for _, spec := range specs {
		t, _ := entity.ParseObjectType(spec.Type)
		c := placeholderColor(t)
		w, h := int(spec.Width), int(spec.Height)
		grow(spec.Sprite.Image, spec.Sprite.SrcX+w, spec.Sprite.SrcY+h, w, h, c)
		if a := spec.Animation; a != nil {
			img := a.Image
			if img == "" {
				img = spec.Sprite.Image
			}
			grow(img, a.SrcX+a.FrameW*max(a.FrameCount, 1), a.SrcY+a.FrameH, a.FrameW, a.FrameH, c)
		}
	}
	for path, s := range sheets {
		g.images.SetFallback(path, s)
	}
}

func placeholderColor(t entity.ObjectType) color.RGBA {
	switch t {
	case entity.TypePlayer:
		return colornames.Deepskyblue
	case entity.TypeEnemy:
		return colornames.Orangered
	case entity.TypePlayerShot:
		return colornames.Aquamarine
	case entity.TypeEnemyShot:
		return colornames.Yellow
	case entity.TypeEffect:
		return colornames.Orange
	default:
		return colornames.Lightgray
	}
}
