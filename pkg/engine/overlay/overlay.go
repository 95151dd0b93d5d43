// Package overlay keeps the table of images drawn on top of the roomview
// background. Overlays are keyed by opaque handles; non-persistent ones are
// swept away whenever the roomview changes.
package overlay

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"duskwalk/pkg/engine/resource"
)

// Overlay is one image positioned over the background.
type Overlay struct {
	Filename   string
	Image      resource.Surface
	X, Y       int
	Persistent bool
}

// Manager owns the overlay table for the running session.
type Manager struct {
	log      *zap.Logger
	res      *resource.Manager
	overlays map[uuid.UUID]*Overlay
}

// NewManager returns an empty overlay table loading images through res.
func NewManager(res *resource.Manager, log *zap.Logger) *Manager {
	return &Manager{
		log:      log.Named("overlay"),
		res:      res,
		overlays: make(map[uuid.UUID]*Overlay),
	}
}

// InsertFile loads filename and places it at (x, y). A non-nil scale resizes
// the image to scale[0] by scale[1] first. Persistent overlays survive
// roomview changes.
func (m *Manager) InsertFile(filename string, x, y int, scale []int, persistent bool) (uuid.UUID, error) {
	img, err := m.res.LoadImage(filename, scale)
	if err != nil {
		m.log.Error("Cannot load overlay image", zap.String("file", filename), zap.Error(err))
		return uuid.Nil, fmt.Errorf("overlay: loading %q: %w", filename, err)
	}
	return m.insert(filename, img, x, y, persistent), nil
}

// InsertSurface places an already-loaded image at (x, y).
func (m *Manager) InsertSurface(img resource.Surface, x, y int, persistent bool) uuid.UUID {
	return m.insert("", img, x, y, persistent)
}

func (m *Manager) insert(filename string, img resource.Surface, x, y int, persistent bool) uuid.UUID {
	id := uuid.New()
	m.overlays[id] = &Overlay{
		Filename:   filename,
		Image:      img,
		X:          x,
		Y:          y,
		Persistent: persistent,
	}
	m.log.Debug("Inserted overlay",
		zap.String("id", id.String()),
		zap.String("file", filename),
		zap.Bool("persistent", persistent))
	return id
}

// Remove drops an overlay. It reports whether the handle was live.
func (m *Manager) Remove(id uuid.UUID) bool {
	if _, ok := m.overlays[id]; !ok {
		return false
	}
	delete(m.overlays, id)
	m.log.Debug("Removed overlay", zap.String("id", id.String()))
	return true
}

// Reposition moves an overlay to (x, y). It reports whether the handle was
// live.
func (m *Manager) Reposition(id uuid.UUID, x, y int) bool {
	o, ok := m.overlays[id]
	if !ok {
		return false
	}
	o.X, o.Y = x, y
	return true
}

// Rescale resizes an overlay to w by h. It reports whether the handle was
// live.
func (m *Manager) Rescale(id uuid.UUID, w, h int) bool {
	o, ok := m.overlays[id]
	if !ok {
		return false
	}
	o.Image = o.Image.Scaled(w, h)
	return true
}

// Contains reports whether id is a live overlay.
func (m *Manager) Contains(id uuid.UUID) bool {
	_, ok := m.overlays[id]
	return ok
}

// Len reports the number of live overlays.
func (m *Manager) Len() int {
	return len(m.overlays)
}

// Cleanup removes every non-persistent overlay. Called on roomview change.
func (m *Manager) Cleanup() {
	var stale []uuid.UUID
	for id, o := range m.overlays {
		if !o.Persistent {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		delete(m.overlays, id)
	}
	if len(stale) > 0 {
		m.log.Debug("Cleaned up overlays", zap.Int("removed", len(stale)))
	}
}

// Each calls fn for every live overlay. Iteration order is unspecified; the
// renderer treats overlays as unordered.
func (m *Manager) Each(fn func(o *Overlay)) {
	for _, o := range m.overlays {
		fn(o)
	}
}
