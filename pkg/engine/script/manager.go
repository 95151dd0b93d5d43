// Package script runs world-defined Lua handlers. Each script file gets its
// own VM with the bxe API table registered; the engine always calls through
// Call, which absorbs every script failure.
package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"github.com/zyedidia/generic/mapset"
	"go.uber.org/zap"

	"duskwalk/pkg/engine/resource"
)

// Manager owns one LState per script file, loaded lazily on first call.
// Everything runs on the tick goroutine, so no locking is needed.
type Manager struct {
	log    *zap.Logger
	ctx    *Context
	dir    string
	states map[string]*lua.LState
	broken mapset.Set[string]

	exitRequested bool
}

// NewManager creates a script registry for the world rooted at dir. Scripts
// call back into the engine through ctx.
func NewManager(dir string, ctx *Context, log *zap.Logger) *Manager {
	return &Manager{
		log:    log.Named("script"),
		ctx:    ctx,
		dir:    dir,
		states: make(map[string]*lua.LState),
		broken: mapset.New[string](),
	}
}

// Call invokes the named function in the named script file with string
// arguments. Failures of every kind are logged and absorbed; the engine
// loop never sees them. Satisfies the dispatcher's ScriptCaller.
func (m *Manager) Call(filename, function string, args ...string) {
	ret, err := m.call(filename, function, args...)
	if err != nil {
		m.log.Error("Script call failed",
			zap.String("file", filename),
			zap.String("function", function),
			zap.Error(err))
		return
	}
	m.log.Debug("Script call returned",
		zap.String("file", filename),
		zap.String("function", function),
		zap.String("result", ret.String()))
}

func (m *Manager) call(filename, function string, args ...string) (lua.LValue, error) {
	L, err := m.state(filename)
	if err != nil {
		return lua.LNil, err
	}

	fn := L.GetGlobal(function)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, fmt.Errorf("script: no such function %q in %q", function, filename)
	}

	luaArgs := make([]lua.LValue, len(args))
	for i, a := range args {
		luaArgs[i] = lua.LString(a)
	}
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, luaArgs...); err != nil {
		return lua.LNil, fmt.Errorf("script: error from %s:%s: %w", filename, function, err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// state returns the VM for a script file, loading and executing the file on
// first use.
func (m *Manager) state(filename string) (*lua.LState, error) {
	normalized, err := resource.NormalizePath(filename)
	if err != nil {
		return nil, err
	}

	if L, ok := m.states[normalized]; ok {
		return L, nil
	}
	if m.broken.Has(normalized) {
		return nil, fmt.Errorf("script: %q previously failed to load", normalized)
	}

	L := lua.NewState()
	m.register(L, normalized)
	if err := L.DoFile(m.dir + "/" + normalized); err != nil {
		L.Close()
		m.broken.Put(normalized)
		return nil, fmt.Errorf("script: loading %q: %w", normalized, err)
	}
	m.states[normalized] = L
	m.log.Info("Loaded script", zap.String("file", normalized))
	return L, nil
}

// ExitRequested reports whether a script asked the engine to shut down.
func (m *Manager) ExitRequested() bool {
	return m.exitRequested
}

// Close tears down every loaded VM.
func (m *Manager) Close() {
	for name, L := range m.states {
		L.Close()
		delete(m.states, name)
	}
}
