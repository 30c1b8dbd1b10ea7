package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
	"unsafe"

	"github.com/l1jgo/scenecore/internal/core/ecs"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM whose scripts define component kinds.
// Scripts call register_component(name, {create=, destroy=, update=}); each
// kind becomes an ecs.Descriptor once Bind runs.
// Single-goroutine access only (simulation thread).
type Engine struct {
	vm     *lua.LState
	log    *zap.Logger
	kinds  map[string]*kind
	order  []string
	bound  bool
	closed bool
}

// Instance is one live scripted component.
type Instance struct {
	Kind   string
	Entity ecs.EntityHandle
	State  *lua.LTable

	entity *lua.LTable
	index  uint32
}

type kind struct {
	name    string
	create  *lua.LFunction
	destroy *lua.LFunction
	update  *lua.LFunction

	desc      *ecs.Descriptor
	instances []*Instance
	free      []uint32
	live      int
}

// NewEngine creates a Lua engine and loads every .lua file under scriptsDir.
// A missing directory yields an engine with no kinds.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if scriptsDir == "" {
		return e, nil
	}
	if err := e.loadDir(scriptsDir); err != nil {
		e.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, kinds: make(map[string]*kind)}
	vm.SetGlobal("register_component", vm.NewFunction(e.luaRegisterComponent))
	vm.SetGlobal("log_info", vm.NewFunction(e.luaLogInfo))
	return e
}

// loadDir loads all .lua files in a directory tree in lexical order.
func (e *Engine) loadDir(dir string) error {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".lua" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	sort.Strings(files)
	for _, path := range files {
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source, e.g. to define kinds in tests.
func (e *Engine) LoadString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("load lua chunk: %w", err)
	}
	return nil
}

// Close shuts the VM down. Scripted components still alive afterwards are
// released without running their destroy hooks.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.vm.Close()
}

// Closed reports whether Close has run.
func (e *Engine) Closed() bool { return e.closed }

// Kinds returns registered kind names in registration order.
func (e *Engine) Kinds() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Live returns the number of live instances of a kind.
func (e *Engine) Live(name string) int {
	if k, ok := e.kinds[name]; ok {
		return k.live
	}
	return 0
}

// Descriptor returns the bound descriptor for a kind.
func (e *Engine) Descriptor(name string) (*ecs.Descriptor, bool) {
	k, ok := e.kinds[name]
	if !ok || k.desc == nil {
		return nil, false
	}
	return k.desc, true
}

// Bind registers one descriptor per kind in types. Kinds registered by
// scripts loaded afterwards are not bound.
func (e *Engine) Bind(types *ecs.TypeTable) error {
	if e.bound {
		return fmt.Errorf("scripting engine already bound")
	}
	for _, name := range e.order {
		k := e.kinds[name]
		desc, err := types.Register(ecs.Descriptor{
			Name:  name,
			Size:  unsafe.Sizeof(Instance{}),
			Align: unsafe.Alignof(Instance{}),
			Create: func(h ecs.EntityHandle, params any) any {
				inst := e.create(k, h, params)
				if inst == nil {
					return nil
				}
				return inst
			},
			GetHandle: func(c any) (ecs.ComponentHandle, bool) {
				inst, ok := c.(*Instance)
				if !ok || inst.Kind != k.name || int(inst.index) >= len(k.instances) || k.instances[inst.index] != inst {
					return ecs.ComponentHandle{}, false
				}
				return ecs.ComponentHandle{Type: k.desc.ID, Index: inst.index}, true
			},
			Destroy: func(h ecs.ComponentHandle) bool {
				return e.destroy(k, h)
			},
		})
		if err != nil {
			return fmt.Errorf("bind %s: %w", name, err)
		}
		k.desc = desc
	}
	e.bound = true
	return nil
}

// Update calls every kind's update(entity, state, dt) for each live instance.
func (e *Engine) Update(dt time.Duration) {
	if e.closed {
		return
	}
	secs := lua.LNumber(dt.Seconds())
	for _, name := range e.order {
		k := e.kinds[name]
		if k.update == nil {
			continue
		}
		for _, inst := range k.instances {
			if inst == nil {
				continue
			}
			if err := e.vm.CallByParam(lua.P{
				Fn:      k.update,
				NRet:    0,
				Protect: true,
			}, inst.entity, inst.State, secs); err != nil {
				e.log.Error("lua update error", zap.String("component", name), zap.Error(err))
			}
		}
	}
}

func (e *Engine) create(k *kind, h ecs.EntityHandle, params any) *Instance {
	if e.closed {
		e.log.Warn("scripted component create after close", zap.String("component", k.name))
		return nil
	}
	ptbl, err := e.paramsTable(params)
	if err != nil {
		e.log.Warn("scripted component params", zap.String("component", k.name), zap.Error(err))
		return nil
	}

	ent := e.vm.NewTable()
	ent.RawSetString("index", lua.LNumber(h.Index()))
	ent.RawSetString("generation", lua.LNumber(h.Generation()))

	state := ptbl
	if k.create != nil {
		if err := e.vm.CallByParam(lua.P{
			Fn:      k.create,
			NRet:    1,
			Protect: true,
		}, ent, ptbl); err != nil {
			e.log.Error("lua create error", zap.String("component", k.name), zap.Error(err))
			return nil
		}
		ret := e.vm.Get(-1)
		e.vm.Pop(1)
		switch v := ret.(type) {
		case *lua.LTable:
			state = v
		case *lua.LNilType:
			// keep params as state
		default:
			e.log.Error("lua create returned non-table", zap.String("component", k.name))
			return nil
		}
	}

	inst := &Instance{Kind: k.name, Entity: h, State: state, entity: ent}
	if n := len(k.free); n > 0 {
		inst.index = k.free[n-1]
		k.free = k.free[:n-1]
		k.instances[inst.index] = inst
	} else {
		inst.index = uint32(len(k.instances))
		k.instances = append(k.instances, inst)
	}
	k.live++
	return inst
}

func (e *Engine) destroy(k *kind, h ecs.ComponentHandle) bool {
	if int(h.Index) >= len(k.instances) || k.instances[h.Index] == nil {
		return false
	}
	inst := k.instances[h.Index]
	k.instances[h.Index] = nil
	k.free = append(k.free, h.Index)
	k.live--

	if e.closed {
		e.log.Debug("scripted component released after close", zap.String("component", k.name))
		return true
	}
	if k.destroy != nil {
		if err := e.vm.CallByParam(lua.P{
			Fn:      k.destroy,
			NRet:    0,
			Protect: true,
		}, inst.entity, inst.State); err != nil {
			e.log.Error("lua destroy error", zap.String("component", k.name), zap.Error(err))
		}
	}
	return true
}

func (e *Engine) paramsTable(params any) (*lua.LTable, error) {
	switch p := params.(type) {
	case nil:
		return e.vm.NewTable(), nil
	case *lua.LTable:
		return p, nil
	case map[string]any:
		return toLValue(e.vm, p).(*lua.LTable), nil
	case ecs.ParamDecoder:
		var m map[string]any
		if err := p.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
		return toLValue(e.vm, m).(*lua.LTable), nil
	default:
		return nil, fmt.Errorf("unsupported params %T", params)
	}
}

func (e *Engine) luaRegisterComponent(L *lua.LState) int {
	name := L.CheckString(1)
	spec := L.CheckTable(2)
	if e.bound {
		L.RaiseError("register_component(%q): engine already bound", name)
		return 0
	}
	if _, dup := e.kinds[name]; dup {
		L.RaiseError("register_component(%q): already registered", name)
		return 0
	}
	k := &kind{name: name}
	for field, dst := range map[string]**lua.LFunction{
		"create":  &k.create,
		"destroy": &k.destroy,
		"update":  &k.update,
	} {
		switch v := spec.RawGetString(field).(type) {
		case *lua.LFunction:
			*dst = v
		case *lua.LNilType:
		default:
			L.RaiseError("register_component(%q): %s must be a function", name, field)
			return 0
		}
	}
	e.kinds[name] = k
	e.order = append(e.order, name)
	return 0
}

func (e *Engine) luaLogInfo(L *lua.LState) int {
	e.log.Info(L.CheckString(1), zap.String("source", "lua"))
	return 0
}
