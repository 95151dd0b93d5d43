// Package world holds the running session: the loaded world descriptor, the
// persisted funvalue, and the current roomview.
package world

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"duskwalk/pkg/engine/database"
	"duskwalk/pkg/engine/overlay"
	"duskwalk/pkg/engine/resource"
	"duskwalk/pkg/engine/room"
)

// funvalueKey is the database key the session funvalue persists under.
const funvalueKey = "funvalue"

// Descriptor is the parsed world file.
type Descriptor struct {
	Name          string `json:"name"`
	FirstRoomview string `json:"first_roomview"`
	FunvalueRange []int  `json:"funvalue_range"`
}

// World is the live session state. Navigation always goes through it so that
// room-load failures can roll back to the previous roomview.
type World struct {
	log     *zap.Logger
	res     *resource.Manager
	db      database.Store
	loader  *room.Loader
	overlay *overlay.Manager
	rng     room.Rand
	dir     string

	// Name is the world's display name, used as the window caption.
	Name string
	// Funvalue is the per-playthrough random integer gating conditional
	// content. Drawn once and persisted; stable across restarts.
	Funvalue int
	// Roomview is the currently loaded view. Nil until Load succeeds.
	Roomview *room.Roomview
}

// New creates a world rooted at dir. The overlay manager may be nil; room
// changes then skip overlay cleanup.
func New(dir string, res *resource.Manager, db database.Store, loader *room.Loader, ov *overlay.Manager, rng room.Rand, log *zap.Logger) *World {
	return &World{
		log:     log.Named("world"),
		res:     res,
		db:      db,
		loader:  loader,
		overlay: ov,
		rng:     rng,
		dir:     dir,
	}
}

// Load parses the world descriptor, settles the funvalue, and loads the
// first roomview.
func (w *World) Load() error {
	var desc Descriptor
	if err := w.res.LoadJSON(w.dir+"/world.json", &desc); err != nil {
		w.log.Error("Unable to load game world", zap.String("dir", w.dir), zap.Error(err))
		return err
	}
	if desc.Name == "" || desc.FirstRoomview == "" {
		return fmt.Errorf("world: descriptor in %q is missing name or first_roomview", w.dir)
	}
	if len(desc.FunvalueRange) != 2 || desc.FunvalueRange[0] > desc.FunvalueRange[1] {
		return fmt.Errorf("world: descriptor in %q has a bad funvalue_range", w.dir)
	}
	w.Name = desc.Name

	if err := w.settleFunvalue(desc.FunvalueRange); err != nil {
		return err
	}

	w.log.Info("Finished loading game world",
		zap.String("name", w.Name),
		zap.Int("funvalue", w.Funvalue))

	if !w.ChangeRoomview(desc.FirstRoomview) {
		return fmt.Errorf("world: unable to load first roomview %q", desc.FirstRoomview)
	}
	return nil
}

// settleFunvalue reuses the persisted funvalue when one exists and otherwise
// draws one uniformly from the inclusive range and persists it.
func (w *World) settleFunvalue(r []int) error {
	if w.db.Has(funvalueKey) {
		if err := w.db.Get(funvalueKey, &w.Funvalue); err != nil {
			return fmt.Errorf("world: reading persisted funvalue: %w", err)
		}
		return nil
	}
	w.Funvalue = r[0] + w.rng.Intn(r[1]-r[0]+1)
	if err := w.db.Put(funvalueKey, w.Funvalue); err != nil {
		return fmt.Errorf("world: persisting funvalue: %w", err)
	}
	w.log.Info("Drew new funvalue", zap.Int("funvalue", w.Funvalue))
	return nil
}

// Navigate follows a named exit of the current roomview. An unknown
// direction logs a warning and changes nothing.
func (w *World) Navigate(direction string) bool {
	if w.Roomview == nil {
		return false
	}
	dest, ok := w.Roomview.Exits[direction]
	if !ok {
		w.log.Warn("Attempt to navigate through non-existent exit", zap.String("direction", direction))
		return false
	}
	return w.ChangeRoomview(dest)
}

// ChangeRoomview loads a roomview by destination string. A colon selects a
// view within the file ("room.json:nighttime"); otherwise the "default" view
// loads. On failure the previous roomview stays current.
func (w *World) ChangeRoomview(name string) bool {
	file, view, found := strings.Cut(name, ":")
	if !found {
		view = "default"
	}

	rv, err := w.loader.Load(w.dir+"/"+file, view, w.Funvalue)
	if err != nil {
		w.log.Error("Unable to change roomview",
			zap.String("file", file),
			zap.String("view", view),
			zap.Error(err))
		return false
	}
	w.Roomview = rv

	if w.overlay != nil {
		w.overlay.Cleanup()
	}
	return true
}
