// Package app assembles the engine subsystems into one running game and
// drives them once per frame. It is the App the frontend's frame loop calls
// into.
package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"duskwalk/pkg/engine/audio"
	"duskwalk/pkg/engine/config"
	"duskwalk/pkg/engine/database"
	"duskwalk/pkg/engine/input"
	"duskwalk/pkg/engine/overlay"
	"duskwalk/pkg/engine/resource"
	"duskwalk/pkg/engine/room"
	"duskwalk/pkg/engine/script"
	"duskwalk/pkg/engine/tick"
	"duskwalk/pkg/engine/world"
	"duskwalk/pkg/engine/zone"
	"duskwalk/pkg/game/renderer"
	"duskwalk/pkg/game/ui"
)

// ErrScriptExit ends the frame loop when a script asks the engine to shut
// down. main maps it to its own exit status.
var ErrScriptExit = errors.New("app: script requested exit")

// ErrCommonImages marks a failure to load the required shared indicator
// images at startup.
var ErrCommonImages = errors.New("app: unable to load required common images")

// requiredImages are the indicator icons every installation must ship under
// common/. Navigation and action zones cannot render without them.
var requiredImages = []string{
	"chevron_left",
	"chevron_right",
	"chevron_up",
	"chevron_down",
	"arrow_forward",
	"arrow_backward",
	"arrow_double",
	"look",
	"use",
	"lookuse",
	"lookgo",
	"go",
}

// App owns the per-frame pipeline: resolve the hover zone, feed the click
// dispatcher, fire timers, sweep audio, and flush the session database.
type App struct {
	log *zap.Logger
	cfg *config.Config

	res        *resource.Manager
	db         database.Store
	audio      *audio.Manager
	overlays   *overlay.Manager
	ticks      *tick.Manager
	scripts    *script.Manager
	world      *world.World
	dialog     *ui.Dialog
	dispatcher *input.Dispatcher

	cursor input.Cursor
	icons  map[string]resource.Surface

	prevLeft  bool
	prevRight bool
}

// New builds and wires every subsystem, loads the common indicator images,
// and loads the configured world up to its first roomview.
func New(cfg *config.Config, fe renderer.Renderer, db database.Store, log *zap.Logger) (*App, error) {
	res := resource.NewManager(log, fe)

	icons, err := loadCommonImages(res, cfg.Navigation.IndicatorSize)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	mixer := audio.NewManager(fe.Mixer(), cfg.World,
		cfg.Audio.SFXVolume, cfg.Audio.MusicVolume, log)
	overlays := overlay.NewManager(res, log)
	ticks := tick.NewManager(log)
	loader := room.NewLoader(res, mixer, cfg.Window.Size, rng, log)
	w := world.New(cfg.World, res, db, loader, overlays, rng, log)
	dialog := ui.NewDialog(log)

	scripts := script.NewManager(cfg.World, &script.Context{
		DB:      db,
		Audio:   mixer,
		Overlay: overlays,
		Tick:    ticks,
		UI:      dialog,
		World:   w,
	}, log)

	a := &App{
		log:        log.Named("app"),
		cfg:        cfg,
		res:        res,
		db:         db,
		audio:      mixer,
		overlays:   overlays,
		ticks:      ticks,
		scripts:    scripts,
		world:      w,
		dialog:     dialog,
		dispatcher: input.NewDispatcher(w, dialog, scripts, log),
		icons:      icons,
	}

	if err := w.Load(); err != nil {
		return nil, err
	}
	return a, nil
}

// loadCommonImages loads every required indicator icon scaled to the
// configured indicator size. Any missing or unloadable icon fails the whole
// set.
func loadCommonImages(res *resource.Manager, size []int) (map[string]resource.Surface, error) {
	icons := make(map[string]resource.Surface, len(requiredImages))
	for _, name := range requiredImages {
		img, err := res.LoadImage("common/"+name+".png", size)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrCommonImages, name, err)
		}
		icons[name] = img
	}
	return icons, nil
}

// WorldName returns the loaded world's display name for the window caption.
func (a *App) WorldName() string { return a.world.Name }

// Close shuts down the subsystems that hold external state.
func (a *App) Close() {
	a.scripts.Close()
	a.audio.StopAllSFX(0)
	a.audio.StopMusic(0)
}

// Step advances the engine by one frame: hover resolution, click edges,
// timers, audio sweep, database flush. Returns ErrScriptExit when a script
// asked to shut the engine down.
func (a *App) Step(mouse renderer.MouseState) error {
	z := zone.Resolve(mouse.X, mouse.Y,
		a.cfg.Window.Width(), a.cfg.Window.Height(),
		a.cfg.Navigation, a.world.Roomview)
	a.cursor.Update(mouse.X, mouse.Y, z)

	if mouse.LeftPressed && !a.prevLeft {
		a.dispatcher.Press(input.ButtonLeft, z)
	}
	if !mouse.LeftPressed && a.prevLeft {
		a.dispatcher.Release(input.ButtonLeft, z, a.world.Roomview)
	}
	if mouse.RightPressed && !a.prevRight {
		a.dispatcher.Press(input.ButtonRight, z)
	}
	if !mouse.RightPressed && a.prevRight {
		a.dispatcher.Release(input.ButtonRight, z, a.world.Roomview)
	}
	a.prevLeft, a.prevRight = mouse.LeftPressed, mouse.RightPressed

	a.ticks.Tick()
	a.audio.Cleanup()
	if err := a.db.Update(); err != nil {
		return err
	}

	if a.scripts.ExitRequested() {
		return ErrScriptExit
	}
	return nil
}

// Scene collects the current frame: room background, overlays, and the
// indicator for whatever the cursor hovers.
func (a *App) Scene() renderer.Scene {
	scene := renderer.Scene{}

	if rv := a.world.Roomview; rv != nil {
		scene.Background = rv.Image
	}

	a.overlays.Each(func(o *overlay.Overlay) {
		scene.Overlays = append(scene.Overlays, renderer.Sprite{
			Image: o.Image,
			X:     o.X,
			Y:     o.Y,
		})
	})

	scene.Indicator = a.indicator()

	if a.dialog.Open() {
		scene.DialogText = a.dialog.Text()
	}
	return scene
}

// indicator places the hover icon: action icons center in their zone
// rectangle, edge chevrons sit at their screen edge behind the configured
// padding, and forward/backward/double arrows center in the window.
func (a *App) indicator() *renderer.Sprite {
	z := a.cursor.Zone
	if z.IsNone() {
		return nil
	}

	winW, winH := a.cfg.Window.Width(), a.cfg.Window.Height()
	iw, ih := a.cfg.Navigation.IndicatorSize[0], a.cfg.Navigation.IndicatorSize[1]
	pad := a.cfg.Navigation.IndicatorPadding

	var name string
	var x, y int
	switch z.Kind {
	case zone.Action:
		rv := a.world.Roomview
		if rv == nil || z.Action >= len(rv.Actions) {
			return nil
		}
		r := rv.Actions[z.Action].Rect
		name = zone.Icon(&rv.Actions[z.Action])
		x = r[0] + (r[2]-r[0]-iw)/2
		y = r[1] + (r[3]-r[1]-ih)/2

	case zone.Nav:
		switch z.Nav {
		case "left":
			name, x, y = "chevron_left", pad, (winH-ih)/2
		case "right":
			name, x, y = "chevron_right", winW-iw-pad, (winH-ih)/2
		case "up":
			name, x, y = "chevron_up", (winW-iw)/2, pad
		case "down":
			name, x, y = "chevron_down", (winW-iw)/2, winH-ih-pad
		case "forward", "backward", "double":
			name, x, y = "arrow_"+z.Nav, (winW-iw)/2, (winH-ih)/2
		}
	}

	img, ok := a.icons[name]
	if !ok {
		return nil
	}
	return &renderer.Sprite{Image: img, X: x, Y: y}
}
