package round

import (
	"fmt"
	"math"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// tengoDispatch is appended to every tengo round script. Each phase call
// re-runs the compiled script with __phase selecting the handler; __state
// survives between runs.
const tengoDispatch = `
if __phase >= 0 {
	phases[__phase].call(__engine, __state)
}
`

type tengoScript struct {
	name      string
	compiled  *tengo.Compiled
	engine    *tengo.ImmutableMap
	state     *tengo.Map
	defs      []phaseDef
	finish    int
	holdTimes []int
}

func newTengoScript(r *Round, name string, src []byte) (*tengoScript, error) {
	body := make([]byte, 0, len(src)+len(tengoDispatch)+1)
	body = append(body, src...)
	body = append(body, '\n')
	body = append(body, tengoDispatch...)

	script := tengo.NewScript(body)
	_ = script.Add("__phase", -1)
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("round: compile %s: %w", name, err)
	}

	ts := &tengoScript{
		name:     name,
		compiled: compiled,
		engine:   r.tengoEngine(),
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}
	if err := ts.run(-1); err != nil {
		return nil, fmt.Errorf("round: run %s: %w", name, err)
	}
	if err := ts.readDecls(); err != nil {
		return nil, fmt.Errorf("round: %s: %w", name, err)
	}
	return ts, nil
}

func (ts *tengoScript) readDecls() error {
	arr, ok := ts.compiled.Get("phases").Object().(*tengo.Array)
	if !ok {
		return fmt.Errorf("phases must be an array")
	}
	for i, obj := range arr.Value {
		fields, ok := tengoFields(obj)
		if !ok {
			return fmt.Errorf("phase %d: expected a map, found %s", i, obj.TypeName())
		}
		from, ok1 := tengo.ToInt(fields["from"])
		to, ok2 := tengo.ToInt(fields["to"])
		if !ok1 || !ok2 {
			return fmt.Errorf("phase %d: from and to must be ints", i)
		}
		if call := fields["call"]; call == nil || !call.CanCall() {
			return fmt.Errorf("phase %d: call must be a function", i)
		}
		name, _ := tengo.ToString(fields["name"])
		ts.defs = append(ts.defs, phaseDef{name: name, from: from, to: to})
	}

	if ts.compiled.IsDefined("finish_time") {
		ts.finish = ts.compiled.Get("finish_time").Int()
	}
	if ts.compiled.IsDefined("holds") {
		for _, v := range ts.compiled.Get("holds").Array() {
			t, ok := v.(int64)
			if !ok {
				return fmt.Errorf("holds must contain ints, found %T", v)
			}
			ts.holdTimes = append(ts.holdTimes, int(t))
		}
	}
	return nil
}

func tengoFields(obj tengo.Object) (map[string]tengo.Object, bool) {
	switch m := obj.(type) {
	case *tengo.Map:
		return m.Value, true
	case *tengo.ImmutableMap:
		return m.Value, true
	}
	return nil, false
}

func (ts *tengoScript) run(phase int) error {
	if err := ts.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := ts.compiled.Set("__engine", ts.engine); err != nil {
		return err
	}
	if err := ts.compiled.Set("__state", ts.state); err != nil {
		return err
	}
	return ts.compiled.Run()
}

func (ts *tengoScript) phases() []phaseDef { return ts.defs }
func (ts *tengoScript) finishTime() int    { return ts.finish }
func (ts *tengoScript) holds() []int       { return ts.holdTimes }
func (ts *tengoScript) close()             {}

func (ts *tengoScript) call(i int) error {
	if i < 0 || i >= len(ts.defs) {
		return fmt.Errorf("%s: no phase %d", ts.name, i)
	}
	if err := ts.run(i); err != nil {
		return fmt.Errorf("%s: %w", ts.name, err)
	}
	return nil
}

func (ts *tengoScript) vars() map[string]any {
	out := make(map[string]any, len(ts.state.Value))
	for k, v := range ts.state.Value {
		out[k] = tengo.ToInterface(v)
	}
	return out
}

func (ts *tengoScript) setVars(vars map[string]any) error {
	state := make(map[string]tengo.Object, len(vars))
	for k, v := range vars {
		obj, err := tengo.FromInterface(v)
		if err != nil {
			return fmt.Errorf("round: restore var %s: %w", k, err)
		}
		state[k] = obj
	}
	ts.state.Value = state
	return nil
}

func (r *Round) tengoEngine() *tengo.ImmutableMap {
	fn := func(name string, f tengo.CallableFunc) *tengo.UserFunction {
		return &tengo.UserFunction{Name: name, Value: f}
	}
	boolObj := func(b bool) tengo.Object {
		if b {
			return tengo.TrueValue
		}
		return tengo.FalseValue
	}

	return &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"spawn": fn("spawn", func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 3 {
				return nil, tengo.ErrWrongNumArguments
			}
			name, ok := args[0].(*tengo.String)
			if !ok {
				return nil, tengo.ErrInvalidArgumentType{Name: "name", Expected: "string", Found: args[0].TypeName()}
			}
			x, err := tengoNumber("x", args[1])
			if err != nil {
				return nil, err
			}
			y, err := tengoNumber("y", args[2])
			if err != nil {
				return nil, err
			}
			if err := r.spawn(name.Value, x, y); err != nil {
				return nil, err
			}
			return tengo.TrueValue, nil
		}),
		"enemies": fn("enemies", func(args ...tengo.Object) (tengo.Object, error) {
			return &tengo.Int{Value: int64(r.host.HostileCount())}, nil
		}),
		"every": fn("every", func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 3 {
				return nil, tengo.ErrWrongNumArguments
			}
			var v [3]int
			for i, name := range []string{"start", "end", "n"} {
				n, err := tengoInt(name, args[i])
				if err != nil {
					return nil, err
				}
				v[i] = n
			}
			return boolObj(r.Sched.Every(v[0], v[1], v[2])), nil
		}),
		"time": fn("time", func(args ...tengo.Object) (tengo.Object, error) {
			return &tengo.Int{Value: int64(r.Sched.CurrentTime)}, nil
		}),
		"frame": fn("frame", func(args ...tengo.Object) (tengo.Object, error) {
			return &tengo.Int{Value: int64(r.Sched.TotalFrame)}, nil
		}),
		"boss": fn("boss", func(args ...tengo.Object) (tengo.Object, error) {
			r.boss()
			return tengo.UndefinedValue, nil
		}),
		"hold": fn("hold", func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 1 {
				return nil, tengo.ErrWrongNumArguments
			}
			t, err := tengoInt("time", args[0])
			if err != nil {
				return nil, err
			}
			r.hold(t)
			return tengo.UndefinedValue, nil
		}),
		"background": fn("background", func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 1 {
				return nil, tengo.ErrWrongNumArguments
			}
			path, ok := args[0].(*tengo.String)
			if !ok {
				return nil, tengo.ErrInvalidArgumentType{Name: "image", Expected: "string", Found: args[0].TypeName()}
			}
			r.setBackground(path.Value)
			return tengo.UndefinedValue, nil
		}),
		"width": fn("width", func(args ...tengo.Object) (tengo.Object, error) {
			return &tengo.Float{Value: r.host.Bounds().Width}, nil
		}),
		"height": fn("height", func(args ...tengo.Object) (tengo.Object, error) {
			return &tengo.Float{Value: r.host.Bounds().Height}, nil
		}),
		"log": fn("log", func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 1 {
				return nil, tengo.ErrWrongNumArguments
			}
			msg, _ := tengo.ToString(args[0])
			r.scriptLog(msg)
			return tengo.UndefinedValue, nil
		}),
	}}
}

func tengoNumber(name string, obj tengo.Object) (float64, error) {
	switch v := obj.(type) {
	case *tengo.Int:
		return float64(v.Value), nil
	case *tengo.Float:
		return v.Value, nil
	}
	return 0, tengo.ErrInvalidArgumentType{Name: name, Expected: "int/float", Found: obj.TypeName()}
}

func tengoInt(name string, obj tengo.Object) (int, error) {
	f, err := tengoNumber(name, obj)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, tengo.ErrInvalidArgumentType{Name: name, Expected: "finite number", Found: obj.TypeName()}
	}
	return int(f), nil
}
