package script

import (
	"time"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"duskwalk/pkg/engine/audio"
	"duskwalk/pkg/engine/database"
	"duskwalk/pkg/engine/overlay"
	"duskwalk/pkg/engine/tick"
)

// UIService is the dialog capability handed to scripts.
type UIService interface {
	ShowText(contents string)
	Reset()
}

// WorldService is the navigation capability handed to scripts.
type WorldService interface {
	Navigate(direction string) bool
	ChangeRoomview(name string) bool
}

// Context bundles the engine capabilities a script may use. Nil members
// disable their part of the API: the corresponding bxe functions become
// logged no-ops instead of crashes.
type Context struct {
	DB      database.Store
	Audio   *audio.Manager
	Overlay *overlay.Manager
	Tick    *tick.Manager
	UI      UIService
	World   WorldService
}

// register defines the bxe global table in L. The filename is captured so
// timed callbacks can call back into the right VM.
func (m *Manager) register(L *lua.LState, filename string) {
	bxe := L.NewTable()
	L.SetGlobal("bxe", bxe)

	L.SetField(bxe, "delay", L.NewFunction(m.luaDelay(filename)))
	L.SetField(bxe, "cancel_delay", L.NewFunction(m.luaCancelDelay))

	L.SetField(bxe, "log", L.NewFunction(m.luaLog))
	L.SetField(bxe, "exit", L.NewFunction(m.luaExit))

	L.SetField(bxe, "db_has", L.NewFunction(m.luaDBHas))
	L.SetField(bxe, "db_get", L.NewFunction(m.luaDBGet))
	L.SetField(bxe, "db_put", L.NewFunction(m.luaDBPut))
	L.SetField(bxe, "db_remove", L.NewFunction(m.luaDBRemove))
	L.SetField(bxe, "funvalue", L.NewFunction(m.luaFunvalue))

	L.SetField(bxe, "play_sfx", L.NewFunction(m.luaPlaySFX))
	L.SetField(bxe, "stop_sfx", L.NewFunction(m.luaStopSFX))
	L.SetField(bxe, "play_music", L.NewFunction(m.luaPlayMusic))
	L.SetField(bxe, "stop_music", L.NewFunction(m.luaStopMusic))

	L.SetField(bxe, "text_box", L.NewFunction(m.luaTextBox))
	L.SetField(bxe, "reset_ui", L.NewFunction(m.luaResetUI))

	L.SetField(bxe, "navigate", L.NewFunction(m.luaNavigate))
	L.SetField(bxe, "change_roomview", L.NewFunction(m.luaChangeRoomview))

	L.SetField(bxe, "insert_overlay", L.NewFunction(m.luaInsertOverlay))
	L.SetField(bxe, "remove_overlay", L.NewFunction(m.luaRemoveOverlay))
}

func (m *Manager) luaLog(L *lua.LState) int {
	m.log.Info("Script log", zap.String("message", L.CheckString(1)))
	return 0
}

// luaExit flags a shutdown request. The tick loop notices the flag and exits
// the process with the script-exit code.
func (m *Manager) luaExit(L *lua.LState) int {
	m.log.Warn("Script requested engine exit")
	m.exitRequested = true
	return 0
}

func (m *Manager) luaDBHas(L *lua.LState) int {
	if m.ctx.DB == nil {
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LBool(m.ctx.DB.Has(L.CheckString(1))))
	return 1
}

func (m *Manager) luaDBGet(L *lua.LState) int {
	key := L.CheckString(1)
	if m.ctx.DB == nil {
		L.Push(lua.LNil)
		return 1
	}
	var value any
	if err := m.ctx.DB.Get(key, &value); err != nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(toLua(value))
	return 1
}

func (m *Manager) luaDBPut(L *lua.LState) int {
	key := L.CheckString(1)
	value := L.CheckAny(2)
	if m.ctx.DB == nil {
		return 0
	}
	goValue, ok := fromLua(value)
	if !ok {
		m.log.Error("Script stored an unsupported value type",
			zap.String("key", key),
			zap.String("type", value.Type().String()))
		return 0
	}
	if err := m.ctx.DB.Put(key, goValue); err != nil {
		m.log.Error("Script database put failed", zap.String("key", key), zap.Error(err))
	}
	return 0
}

func (m *Manager) luaDBRemove(L *lua.LState) int {
	if m.ctx.DB == nil {
		return 0
	}
	if err := m.ctx.DB.Remove(L.CheckString(1)); err != nil {
		m.log.Debug("Script removed a missing key", zap.Error(err))
	}
	return 0
}

func (m *Manager) luaFunvalue(L *lua.LState) int {
	if m.ctx.DB == nil {
		L.Push(lua.LNil)
		return 1
	}
	var funvalue int
	if err := m.ctx.DB.Get("funvalue", &funvalue); err != nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(funvalue))
	return 1
}

// luaPlaySFX starts a sound effect: play_sfx(file [, volume [, loop]]).
// Returns the channel handle as a string, or nil on failure.
func (m *Manager) luaPlaySFX(L *lua.LState) int {
	file := L.CheckString(1)
	volume := float64(L.OptNumber(2, -1))
	loop := L.OptInt(3, 0)
	if m.ctx.Audio == nil {
		L.Push(lua.LNil)
		return 1
	}
	id, err := m.ctx.Audio.PlaySFX(file, volume, loop)
	if err != nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(id.String()))
	return 1
}

// luaStopSFX stops a channel by handle: stop_sfx(id [, fade_seconds]).
func (m *Manager) luaStopSFX(L *lua.LState) int {
	raw := L.CheckString(1)
	fade := secondsToDuration(L.OptNumber(2, 0))
	if m.ctx.Audio == nil {
		return 0
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		m.log.Error("Script passed a bad sfx handle", zap.String("handle", raw))
		return 0
	}
	m.ctx.Audio.StopSFX(id, fade)
	return 0
}

func (m *Manager) luaPlayMusic(L *lua.LState) int {
	file := L.CheckString(1)
	volume := float64(L.OptNumber(2, -1))
	if m.ctx.Audio == nil {
		return 0
	}
	if err := m.ctx.Audio.PlayMusic(file, volume); err != nil {
		m.log.Error("Script music playback failed", zap.String("file", file), zap.Error(err))
	}
	return 0
}

func (m *Manager) luaStopMusic(L *lua.LState) int {
	fade := secondsToDuration(L.OptNumber(1, 0))
	if m.ctx.Audio == nil {
		return 0
	}
	m.ctx.Audio.StopMusic(fade)
	return 0
}

func (m *Manager) luaTextBox(L *lua.LState) int {
	contents := L.CheckString(1)
	if m.ctx.UI == nil {
		return 0
	}
	m.ctx.UI.ShowText(contents)
	return 0
}

func (m *Manager) luaResetUI(L *lua.LState) int {
	if m.ctx.UI == nil {
		return 0
	}
	m.ctx.UI.Reset()
	return 0
}

func (m *Manager) luaNavigate(L *lua.LState) int {
	direction := L.CheckString(1)
	if m.ctx.World == nil {
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LBool(m.ctx.World.Navigate(direction)))
	return 1
}

func (m *Manager) luaChangeRoomview(L *lua.LState) int {
	name := L.CheckString(1)
	if m.ctx.World == nil {
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LBool(m.ctx.World.ChangeRoomview(name)))
	return 1
}

// luaInsertOverlay places an overlay image:
// insert_overlay(file, x, y [, persistent]). Returns the handle string.
func (m *Manager) luaInsertOverlay(L *lua.LState) int {
	file := L.CheckString(1)
	x := L.CheckInt(2)
	y := L.CheckInt(3)
	persistent := L.OptBool(4, false)
	if m.ctx.Overlay == nil {
		L.Push(lua.LNil)
		return 1
	}
	id, err := m.ctx.Overlay.InsertFile(file, x, y, nil, persistent)
	if err != nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(id.String()))
	return 1
}

func (m *Manager) luaRemoveOverlay(L *lua.LState) int {
	raw := L.CheckString(1)
	if m.ctx.Overlay == nil {
		return 0
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		m.log.Error("Script passed a bad overlay handle", zap.String("handle", raw))
		return 0
	}
	m.ctx.Overlay.Remove(id)
	return 0
}

// luaDelay schedules a named function in the calling script to run later:
// delay(seconds, function_name [, continuous]). Returns the registration
// handle as a string.
func (m *Manager) luaDelay(filename string) lua.LGFunction {
	return func(L *lua.LState) int {
		delay := secondsToDuration(L.CheckNumber(1))
		function := L.CheckString(2)
		continuous := L.OptBool(3, false)
		if m.ctx.Tick == nil {
			L.Push(lua.LNil)
			return 1
		}
		id := m.ctx.Tick.Register(func() {
			m.Call(filename, function)
		}, delay, continuous)
		L.Push(lua.LString(id.String()))
		return 1
	}
}

func (m *Manager) luaCancelDelay(L *lua.LState) int {
	raw := L.CheckString(1)
	if m.ctx.Tick == nil {
		return 0
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		m.log.Error("Script passed a bad delay handle", zap.String("handle", raw))
		return 0
	}
	m.ctx.Tick.Unregister(id)
	return 0
}

func secondsToDuration(seconds lua.LNumber) time.Duration {
	return time.Duration(float64(seconds) * float64(time.Second))
}

// toLua converts a JSON-decoded database value into a Lua value. Only the
// scalar types scripts can round-trip are supported.
func toLua(v any) lua.LValue {
	switch t := v.(type) {
	case string:
		return lua.LString(t)
	case float64:
		return lua.LNumber(t)
	case bool:
		return lua.LBool(t)
	case nil:
		return lua.LNil
	}
	return lua.LNil
}

// fromLua converts a Lua scalar into a database-storable value.
func fromLua(v lua.LValue) (any, bool) {
	switch t := v.(type) {
	case lua.LString:
		return string(t), true
	case lua.LNumber:
		return float64(t), true
	case lua.LBool:
		return bool(t), true
	}
	return nil, false
}
