package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"duskwalk/pkg/engine/database"
	"duskwalk/pkg/engine/tick"
)

type fakeUI struct {
	shown  []string
	resets int
}

func (u *fakeUI) ShowText(contents string) { u.shown = append(u.shown, contents) }
func (u *fakeUI) Reset()                   { u.resets++ }

type fakeWorld struct {
	navigated []string
	changed   []string
}

func (w *fakeWorld) Navigate(direction string) bool {
	w.navigated = append(w.navigated, direction)
	return true
}

func (w *fakeWorld) ChangeRoomview(name string) bool {
	w.changed = append(w.changed, name)
	return true
}

const doorScript = `
function open(who)
    bxe.db_put("door_open", true)
    bxe.text_box("The door creaks open for " .. who .. ".")
end

function check()
    if bxe.db_has("door_open") then
        bxe.navigate("forward")
    end
end

function lucky()
    return bxe.funvalue()
end

function leave()
    bxe.exit()
end

function explode()
    error("scripted failure")
end
`

func newTestManager(t *testing.T) (*Manager, *fakeUI, *fakeWorld, database.Store) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "door.lua"), []byte(doorScript), 0o644))

	db, err := database.OpenFile(filepath.Join(dir, "session.db"), zap.NewNop())
	require.NoError(t, err)

	ui := &fakeUI{}
	world := &fakeWorld{}
	ctx := &Context{
		DB:    db,
		Tick:  tick.NewManager(zap.NewNop()),
		UI:    ui,
		World: world,
	}
	m := NewManager(dir, ctx, zap.NewNop())
	t.Cleanup(m.Close)
	return m, ui, world, db
}

func TestCall_RunsHandlerWithArgs(t *testing.T) {
	m, ui, _, db := newTestManager(t)

	m.Call("door.lua", "open", "the stranger")

	require.Len(t, ui.shown, 1)
	assert.Equal(t, "The door creaks open for the stranger.", ui.shown[0])

	var open bool
	require.NoError(t, db.Get("door_open", &open))
	assert.True(t, open)
}

func TestCall_StateSharedAcrossCalls(t *testing.T) {
	m, _, world, _ := newTestManager(t)

	m.Call("door.lua", "check")
	assert.Empty(t, world.navigated, "check navigated before the door opened")

	m.Call("door.lua", "open", "someone")
	m.Call("door.lua", "check")
	assert.Equal(t, []string{"forward"}, world.navigated)
}

func TestCall_FunvalueReadsDatabase(t *testing.T) {
	m, _, _, db := newTestManager(t)
	require.NoError(t, db.Put("funvalue", 42))

	ret, err := m.call("door.lua", "lucky")
	require.NoError(t, err)
	assert.Equal(t, "42", ret.String())
}

func TestCall_AbsorbsFailures(t *testing.T) {
	m, ui, world, _ := newTestManager(t)

	// None of these may panic or escape into the caller.
	m.Call("door.lua", "no_such_function")
	m.Call("missing.lua", "open")
	m.Call("../outside.lua", "open")
	m.Call("door.lua", "explode")

	assert.Empty(t, ui.shown)
	assert.Empty(t, world.navigated)
}

func TestCall_ScriptExitRequest(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	assert.False(t, m.ExitRequested())
	m.Call("door.lua", "leave")
	assert.True(t, m.ExitRequested())
}

func TestCall_BrokenScriptFileNeverLoads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.lua"), []byte("function ("), 0o644))

	m := NewManager(dir, &Context{}, zap.NewNop())
	t.Cleanup(m.Close)

	m.Call("bad.lua", "anything")
	_, err := m.call("bad.lua", "anything")
	assert.Error(t, err)
}
