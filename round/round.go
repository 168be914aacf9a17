package round

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/milk9111/shmup/common"
	"github.com/milk9111/shmup/entity"
	"go.uber.org/zap"
)

// ErrUnsupportedScript is returned for script files with an unknown extension.
var ErrUnsupportedScript = errors.New("round: unsupported script")

// Host is the world a round script acts on.
type Host interface {
	Spawn(prefab string, x, y float64) (*entity.Entity, error)
	HostileCount() int
	Bounds() common.Bounds
}

// Options configures a round.
type Options struct {
	Name       string
	ScriptName string
	Source     []byte
	// FinishTime overrides the script's finish_time when > 0.
	FinishTime   int
	TicksPerUnit int
	Background   string
}

type phaseDef struct {
	name     string
	from, to int
}

// script is a loaded round script. Phase i of phases() is run by call(i).
type script interface {
	phases() []phaseDef
	finishTime() int
	holds() []int
	call(i int) error
	vars() map[string]any
	setVars(map[string]any) error
	close()
}

// Round binds a Scheduler to a round script and a host world.
type Round struct {
	Name       string
	ScriptName string
	Background string
	Sched      *Scheduler

	host   Host
	log    *zap.Logger
	opts   Options
	script script
}

// New loads the round script and registers its phases.
func New(log *zap.Logger, host Host, opts Options) (*Round, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if host == nil {
		return nil, fmt.Errorf("round: %s: nil host", opts.Name)
	}
	r := &Round{
		Name:       opts.Name,
		ScriptName: opts.ScriptName,
		Background: opts.Background,
		host:       host,
		log:        log.With(zap.String("round", opts.Name)),
		opts:       opts,
	}
	sc, err := r.load(opts.ScriptName, opts.Source)
	if err != nil {
		return nil, err
	}
	r.script = sc
	r.Sched = r.schedule(sc)
	r.log.Info("round loaded",
		zap.String("script", opts.ScriptName),
		zap.Int("phases", len(r.Sched.Phases())),
		zap.Int("finish_time", r.Sched.Finish()),
	)
	return r, nil
}

func (r *Round) load(name string, src []byte) (script, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tengo":
		return newTengoScript(r, name, src)
	case ".lua":
		return newLuaScript(r, name, src)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScript, name)
	}
}

// schedule builds a scheduler running the phases and holds of sc.
func (r *Round) schedule(sc script) *Scheduler {
	sched := NewScheduler()
	if r.opts.TicksPerUnit > 0 {
		sched.TicksPerUnit = r.opts.TicksPerUnit
	}
	sched.SetClearCheck(func() bool { return r.host.HostileCount() == 0 })
	for i, p := range sc.phases() {
		sched.AddNamedPhase(p.name, func() error { return sc.call(i) }, p.from, p.to)
	}
	for _, t := range sc.holds() {
		sched.HoldUntilClear(t)
	}
	sched.FinishTime = sc.finishTime()
	if r.opts.FinishTime > 0 {
		sched.FinishTime = r.opts.FinishTime
	}
	return sched
}

// Reload swaps in a new version of the script, keeping round time, boss mode
// and script variables. On error the running script is left untouched.
func (r *Round) Reload(src []byte) error {
	sc, err := r.load(r.ScriptName, src)
	if err != nil {
		return err
	}
	sched := r.schedule(sc)
	if err := restoreState(sched, sc, r.Snapshot()); err != nil {
		sc.close()
		return fmt.Errorf("round %s: reload: %w", r.Name, err)
	}
	old := r.script
	r.script = sc
	r.Sched = sched
	old.close()
	r.log.Info("round reloaded", zap.Int("time", r.Sched.CurrentTime))
	return nil
}

// Process advances the round by one tick.
func (r *Round) Process() error {
	if err := r.Sched.Process(); err != nil {
		return fmt.Errorf("round %s: %w", r.Name, err)
	}
	return nil
}

// IsComplete reports whether the round reached its finish time.
func (r *Round) IsComplete() bool {
	return r.Sched.IsComplete()
}

// Close releases the script VM.
func (r *Round) Close() {
	if r != nil && r.script != nil {
		r.script.close()
	}
}

// Host API shared by the script backends.

func (r *Round) spawn(name string, x, y float64) error {
	if _, err := r.host.Spawn(name, x, y); err != nil {
		return fmt.Errorf("spawn %s: %w", name, err)
	}
	return nil
}

func (r *Round) hold(t int) {
	r.Sched.HoldUntilClear(t)
}

func (r *Round) boss() {
	if !r.Sched.BossMode {
		r.log.Info("boss mode", zap.Int("time", r.Sched.CurrentTime))
	}
	r.Sched.RequestBossMode()
}

func (r *Round) setBackground(path string) {
	if path == r.Background {
		return
	}
	r.Background = path
	r.log.Debug("background", zap.String("image", path))
}

func (r *Round) scriptLog(msg string) {
	r.log.Info(msg, zap.Int("time", r.Sched.CurrentTime), zap.Int("frame", r.Sched.TotalFrame))
}
