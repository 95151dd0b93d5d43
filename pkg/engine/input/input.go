// Package input turns raw mouse state into completed clicks and routes them
// to navigation, text, and script effects.
package input

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"duskwalk/pkg/engine/room"
	"duskwalk/pkg/engine/zone"
)

// Button identifies a mouse button the dispatcher tracks.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
)

// Cursor is the per-frame pointer state: position and the zone under it.
type Cursor struct {
	X, Y int
	Zone zone.Zone
}

// Update records the pointer position and its resolved hover zone.
func (c *Cursor) Update(x, y int, z zone.Zone) {
	c.X, c.Y = x, y
	c.Zone = z
}

// Navigator is the slice of the world the dispatcher navigates through.
type Navigator interface {
	Navigate(direction string) bool
	ChangeRoomview(name string) bool
}

// UI is the slice of the dialog layer the dispatcher touches.
type UI interface {
	// ShowText opens the text dialog, replacing any open one.
	ShowText(contents string)
	// Reset closes the text dialog if one is open.
	Reset()
}

// ScriptCaller invokes a named function in a named script file. Failures are
// the callee's problem: they must be absorbed and logged, never raised.
type ScriptCaller interface {
	Call(filename, function string, args ...string)
}

// Dispatcher is the per-button click state machine. A press commits the zone
// under the cursor; the matching release dispatches only if the cursor is
// still over the same zone.
type Dispatcher struct {
	log     *zap.Logger
	nav     Navigator
	ui      UI
	scripts ScriptCaller

	pressed   map[Button]bool
	committed map[Button]zone.Zone
}

// NewDispatcher wires a dispatcher to its effect targets.
func NewDispatcher(nav Navigator, ui UI, scripts ScriptCaller, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		log:       log.Named("input"),
		nav:       nav,
		ui:        ui,
		scripts:   scripts,
		pressed:   make(map[Button]bool),
		committed: make(map[Button]zone.Zone),
	}
}

// Press commits the zone under the cursor for this button.
func (d *Dispatcher) Press(b Button, z zone.Zone) {
	d.pressed[b] = true
	d.committed[b] = z
}

// Release completes a click. The click dispatches only when the cursor is
// still over the zone committed at press time; any other completed click
// just closes the open text dialog.
func (d *Dispatcher) Release(b Button, z zone.Zone, rv *room.Roomview) {
	if !d.pressed[b] {
		return
	}
	d.pressed[b] = false

	if z.IsNone() || z != d.committed[b] {
		d.ui.Reset()
		return
	}

	switch z.Kind {
	case zone.Action:
		d.dispatchAction(b, z.Action, rv)
	case zone.Nav:
		d.dispatchNav(b, z.Nav)
	}
}

// dispatchAction picks the effect for the button and runs it. Left clicks
// prefer look over use over go; right clicks prefer use over go and never
// trigger look. A right click on a look-only zone does nothing at all.
func (d *Dispatcher) dispatchAction(b Button, index int, rv *room.Roomview) {
	if rv == nil || index < 0 || index >= len(rv.Actions) {
		return
	}
	a := &rv.Actions[index]

	var effect *room.Effect
	switch b {
	case ButtonLeft:
		switch {
		case a.Look != nil:
			effect = a.Look
		case a.Use != nil:
			effect = a.Use
		case a.Go != nil:
			effect = a.Go
		}
	case ButtonRight:
		switch {
		case a.Use != nil:
			effect = a.Use
		case a.Go != nil:
			effect = a.Go
		}
	}
	if effect == nil {
		return
	}
	d.runEffect(effect, index, rv)
}

func (d *Dispatcher) runEffect(effect *room.Effect, index int, rv *room.Roomview) {
	switch effect.Result {
	case room.ResultText:
		d.log.Debug("Action text result", zap.String("contents", effect.Contents))
		d.ui.ShowText(effect.Contents)

	case room.ResultExit:
		dest, ok := rv.ActionExits[index]
		if !ok {
			if effect.Exit != nil {
				// The conditional exit resolved absent at load time.
				d.log.Debug("Action exit not present", zap.Int("action", index))
				return
			}
			dest = effect.Contents
		}
		d.log.Debug("Action exit result", zap.String("destination", dest))
		d.nav.ChangeRoomview(dest)

	case room.ResultScript:
		file, function, args, err := parseScriptCall(effect.Contents)
		if err != nil {
			d.log.Error("Malformed script result contents",
				zap.String("contents", effect.Contents),
				zap.Error(err))
			return
		}
		d.scripts.Call(file, function, args...)

	default:
		d.log.Error("Unknown action result kind", zap.String("result", effect.Result))
	}
}

// dispatchNav follows a nav indicator. "double" goes forward on left-click;
// right-click goes backward and only acts on backward or double indicators.
func (d *Dispatcher) dispatchNav(b Button, dir string) {
	switch b {
	case ButtonLeft:
		if dir == "double" {
			dir = "forward"
		}
		d.nav.Navigate(dir)
		d.ui.Reset()

	case ButtonRight:
		if dir != "backward" && dir != "double" {
			d.ui.Reset()
			return
		}
		d.nav.Navigate("backward")
		d.ui.Reset()
	}
}

// parseScriptCall splits "file:func,arg1,arg2" into its parts: the text
// before the first colon is the script file, the first comma token after it
// is the function name, and the rest are string arguments.
func parseScriptCall(contents string) (file, function string, args []string, err error) {
	file, rest, found := strings.Cut(contents, ":")
	if !found {
		return "", "", nil, fmt.Errorf("input: script contents %q has no colon", contents)
	}
	parts := strings.Split(rest, ",")
	if parts[0] == "" {
		return "", "", nil, fmt.Errorf("input: script contents %q has no function name", contents)
	}
	return file, parts[0], parts[1:], nil
}
