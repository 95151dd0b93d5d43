// Package tick schedules callbacks on the engine's main loop. Everything here
// runs on the single tick goroutine, so no locking is needed.
package tick

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Callback is a function scheduled to run on a future tick.
type Callback func()

type event struct {
	callback   Callback
	deadline   time.Time
	delay      time.Duration
	continuous bool
}

// Manager holds delayed and repeating callbacks and fires the due ones once
// per tick.
type Manager struct {
	log    *zap.Logger
	now    func() time.Time
	events map[uuid.UUID]*event
}

// NewManager returns an empty scheduler.
func NewManager(log *zap.Logger) *Manager {
	return &Manager{
		log:    log.Named("tick"),
		now:    time.Now,
		events: make(map[uuid.UUID]*event),
	}
}

// Register schedules cb to run after delay. Continuous callbacks re-arm
// themselves after every firing until unregistered. The returned handle
// identifies the registration for Unregister and Renew.
func (m *Manager) Register(cb Callback, delay time.Duration, continuous bool) uuid.UUID {
	id := uuid.New()
	m.events[id] = &event{
		callback:   cb,
		deadline:   m.now().Add(delay),
		delay:      delay,
		continuous: continuous,
	}
	m.log.Debug("Registered callback",
		zap.String("id", id.String()),
		zap.Duration("delay", delay),
		zap.Bool("continuous", continuous))
	return id
}

// Unregister drops a scheduled callback. Unregistering an unknown handle is
// harmless, so callbacks may unregister themselves while firing.
func (m *Manager) Unregister(id uuid.UUID) {
	if _, ok := m.events[id]; !ok {
		return
	}
	delete(m.events, id)
	m.log.Debug("Unregistered callback", zap.String("id", id.String()))
}

// Renew pushes a registration's deadline back by its full delay. It reports
// whether the handle was known.
func (m *Manager) Renew(id uuid.UUID) bool {
	ev, ok := m.events[id]
	if !ok {
		return false
	}
	ev.deadline = m.now().Add(ev.delay)
	return true
}

// Contains reports whether id is a live registration.
func (m *Manager) Contains(id uuid.UUID) bool {
	_, ok := m.events[id]
	return ok
}

// Len reports the number of live registrations.
func (m *Manager) Len() int {
	return len(m.events)
}

// Tick fires every callback whose deadline has passed. One-shot callbacks are
// removed before firing; continuous ones are re-armed. Callbacks may register
// and unregister freely, so the due set is collected up front.
func (m *Manager) Tick() {
	now := m.now()

	var due []uuid.UUID
	for id, ev := range m.events {
		if !now.Before(ev.deadline) {
			due = append(due, id)
		}
	}

	for _, id := range due {
		ev, ok := m.events[id]
		if !ok {
			continue
		}
		if ev.continuous {
			ev.deadline = now.Add(ev.delay)
		} else {
			delete(m.events, id)
		}
		ev.callback()
	}
}
