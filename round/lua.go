package round

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// luaScript runs a Lua round script on its own VM. Phase handlers are called
// as handler(engine, state).
type luaScript struct {
	name      string
	vm        *lua.LState
	log       *zap.Logger
	engine    *lua.LTable
	state     *lua.LTable
	fns       []*lua.LFunction
	defs      []phaseDef
	finish    int
	holdTimes []int
	// hostErr keeps the Go error behind the last raised Lua error so callers
	// can match it with errors.Is.
	hostErr error
}

func newLuaScript(r *Round, name string, src []byte) (*luaScript, error) {
	vm := lua.NewState()
	ls := &luaScript{name: name, vm: vm, log: r.log}
	ls.engine = r.luaEngine(ls)
	ls.state = vm.NewTable()

	if err := vm.DoString(string(src)); err != nil {
		vm.Close()
		return nil, fmt.Errorf("round: load %s: %w", name, err)
	}
	if err := ls.readDecls(); err != nil {
		vm.Close()
		return nil, fmt.Errorf("round: %s: %w", name, err)
	}
	return ls, nil
}

func (ls *luaScript) readDecls() error {
	tbl, ok := ls.vm.GetGlobal("phases").(*lua.LTable)
	if !ok {
		return fmt.Errorf("phases must be a table")
	}
	for i := 1; i <= tbl.Len(); i++ {
		p, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			return fmt.Errorf("phase %d: expected a table", i)
		}
		from, ok1 := p.RawGetString("from").(lua.LNumber)
		to, ok2 := p.RawGetString("to").(lua.LNumber)
		if !ok1 || !ok2 {
			return fmt.Errorf("phase %d: from and to must be numbers", i)
		}
		fn, ok := p.RawGetString("call").(*lua.LFunction)
		if !ok {
			return fmt.Errorf("phase %d: call must be a function", i)
		}
		name := ""
		if s, ok := p.RawGetString("name").(lua.LString); ok {
			name = string(s)
		}
		ls.fns = append(ls.fns, fn)
		ls.defs = append(ls.defs, phaseDef{name: name, from: int(from), to: int(to)})
	}

	if v, ok := ls.vm.GetGlobal("finish_time").(lua.LNumber); ok {
		ls.finish = int(v)
	}
	if holds, ok := ls.vm.GetGlobal("holds").(*lua.LTable); ok {
		var err error
		holds.ForEach(func(_, v lua.LValue) {
			n, ok := v.(lua.LNumber)
			if !ok {
				err = fmt.Errorf("holds must contain numbers, found %s", v.Type())
				return
			}
			ls.holdTimes = append(ls.holdTimes, int(n))
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (ls *luaScript) phases() []phaseDef { return ls.defs }
func (ls *luaScript) finishTime() int    { return ls.finish }
func (ls *luaScript) holds() []int       { return ls.holdTimes }
func (ls *luaScript) close()             { ls.vm.Close() }

func (ls *luaScript) call(i int) error {
	if i < 0 || i >= len(ls.fns) {
		return fmt.Errorf("%s: no phase %d", ls.name, i)
	}
	ls.hostErr = nil
	err := ls.vm.CallByParam(lua.P{
		Fn:      ls.fns[i],
		NRet:    0,
		Protect: true,
	}, ls.engine, ls.state)
	if err == nil {
		return nil
	}
	if ls.hostErr != nil {
		return fmt.Errorf("%s: %w", ls.name, ls.hostErr)
	}
	return fmt.Errorf("%s: %w", ls.name, err)
}

// raise records err and raises it inside the VM.
func (ls *luaScript) raise(L *lua.LState, err error) int {
	ls.hostErr = err
	L.RaiseError("%v", err)
	return 0
}

// maxVarDepth bounds nested tables so self-referencing state cannot recurse
// forever.
const maxVarDepth = 16

func (ls *luaScript) vars() map[string]any {
	out := map[string]any{}
	ls.state.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			ls.log.Warn("script var key is not a string, dropped", zap.String("key", k.String()))
			return
		}
		if conv := ls.fromLua(string(key), v, 0); conv != nil {
			out[string(key)] = conv
		}
	})
	return out
}

// fromLua converts v to a plain Go value. Sequences become []any and other
// tables become map[string]any. Values that cannot be saved are logged and
// dropped.
func (ls *luaScript) fromLua(path string, v lua.LValue, depth int) any {
	switch v := v.(type) {
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case lua.LBool:
		return bool(v)
	case *lua.LTable:
		if depth >= maxVarDepth {
			ls.log.Warn("script var too deep, dropped", zap.String("var", path))
			return nil
		}
		if n := v.MaxN(); n > 0 && n == countEntries(v) {
			list := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				list = append(list, ls.fromLua(fmt.Sprintf("%s[%d]", path, i), v.RawGetInt(i), depth+1))
			}
			return list
		}
		m := map[string]any{}
		v.ForEach(func(k, val lua.LValue) {
			key, ok := k.(lua.LString)
			if !ok {
				ls.log.Warn("script var key is not a string, dropped",
					zap.String("var", path), zap.String("key", k.String()))
				return
			}
			if conv := ls.fromLua(path+"."+string(key), val, depth+1); conv != nil {
				m[string(key)] = conv
			}
		})
		return m
	default:
		ls.log.Warn("script var cannot be saved, dropped",
			zap.String("var", path), zap.String("type", v.Type().String()))
		return nil
	}
}

func countEntries(t *lua.LTable) int {
	n := 0
	t.ForEach(func(_, _ lua.LValue) { n++ })
	return n
}

func (ls *luaScript) setVars(vars map[string]any) error {
	state := ls.vm.NewTable()
	for k, v := range vars {
		lv, err := ls.toLua(v)
		if err != nil {
			return fmt.Errorf("round: restore var %s: %w", k, err)
		}
		state.RawSetString(k, lv)
	}
	ls.state = state
	return nil
}

func (ls *luaScript) toLua(v any) (lua.LValue, error) {
	switch v := v.(type) {
	case nil:
		return lua.LNil, nil
	case int:
		return lua.LNumber(v), nil
	case int64:
		return lua.LNumber(v), nil
	case float64:
		return lua.LNumber(v), nil
	case string:
		return lua.LString(v), nil
	case bool:
		return lua.LBool(v), nil
	case []any:
		t := ls.vm.NewTable()
		for _, item := range v {
			lv, err := ls.toLua(item)
			if err != nil {
				return nil, err
			}
			t.Append(lv)
		}
		return t, nil
	case map[string]any:
		t := ls.vm.NewTable()
		for k, item := range v {
			lv, err := ls.toLua(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			t.RawSetString(k, lv)
		}
		return t, nil
	case map[any]any:
		t := ls.vm.NewTable()
		for k, item := range v {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("unsupported key %T", k)
			}
			lv, err := ls.toLua(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			t.RawSetString(key, lv)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported %T", v)
	}
}
