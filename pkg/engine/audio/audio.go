// Package audio tracks playing sound effects and music on top of a Mixer
// collaborator. The manager owns the channel table and the music state; the
// frontend owns the actual decoding and playback.
package audio

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// commonPrefix marks filenames resolved against the shared asset directory
// instead of the current world's directory.
const commonPrefix = "$COMMON$/"

// Player is a single playing sound as handed back by the Mixer.
type Player interface {
	// IsPlaying reports whether the sound is still audible.
	IsPlaying() bool
	// Stop ends playback, fading out over fade if nonzero.
	Stop(fade time.Duration)
	// SetVolume adjusts playback volume in [0.0, 1.0].
	SetVolume(volume float64)
	// Volume returns the current playback volume.
	Volume() float64
}

// Mixer starts sounds playing. The ebiten frontend implements it; tests use
// a fake.
type Mixer interface {
	// PlaySound starts a sound effect. A loop of 0 plays once, -1 loops
	// forever, n > 0 plays n+1 times.
	PlaySound(path string, volume float64, loop int) (Player, error)
	// PlayMusic starts a music track, looping forever.
	PlayMusic(path string, volume float64) (Player, error)
}

type channel struct {
	filename string
	player   Player
}

// Manager is the engine's audio front door: a table of live sfx channels
// keyed by opaque handles, plus at most one music track.
type Manager struct {
	log      *zap.Logger
	mixer    Mixer
	worldDir string

	defaultSFXVolume   float64
	defaultMusicVolume float64

	channels   map[uuid.UUID]*channel
	music      Player
	musicTrack string
}

// NewManager returns a manager playing through mixer. Filenames without the
// common prefix resolve relative to worldDir.
func NewManager(mixer Mixer, worldDir string, sfxVolume, musicVolume float64, log *zap.Logger) *Manager {
	return &Manager{
		log:                log.Named("audio"),
		mixer:              mixer,
		worldDir:           worldDir,
		defaultSFXVolume:   sfxVolume,
		defaultMusicVolume: musicVolume,
		channels:           make(map[uuid.UUID]*channel),
	}
}

func (m *Manager) resolve(filename string) string {
	if rest, ok := strings.CutPrefix(filename, commonPrefix); ok {
		return "common/" + rest
	}
	return m.worldDir + "/" + filename
}

// PlaySFX starts a sound effect and returns its channel handle. A negative
// volume selects the configured default.
func (m *Manager) PlaySFX(filename string, volume float64, loop int) (uuid.UUID, error) {
	if volume < 0 {
		volume = m.defaultSFXVolume
	}
	player, err := m.mixer.PlaySound(m.resolve(filename), volume, loop)
	if err != nil {
		m.log.Error("Cannot play sound effect", zap.String("file", filename), zap.Error(err))
		return uuid.Nil, fmt.Errorf("audio: playing %q: %w", filename, err)
	}

	id := uuid.New()
	m.channels[id] = &channel{filename: filename, player: player}
	m.log.Debug("Playing sound effect", zap.String("file", filename), zap.String("channel", id.String()))
	return id, nil
}

// StopSFX stops the channel with the given handle. It reports whether the
// handle was a live channel.
func (m *Manager) StopSFX(id uuid.UUID, fade time.Duration) bool {
	ch, ok := m.channels[id]
	if !ok {
		return false
	}
	ch.player.Stop(fade)
	delete(m.channels, id)
	return true
}

// StopSFXByFilename stops every live channel playing filename and reports how
// many it stopped.
func (m *Manager) StopSFXByFilename(filename string, fade time.Duration) int {
	var stale []uuid.UUID
	for id, ch := range m.channels {
		if ch.filename == filename {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		m.channels[id].player.Stop(fade)
		delete(m.channels, id)
	}
	return len(stale)
}

// StopAllSFX stops every live channel.
func (m *Manager) StopAllSFX(fade time.Duration) {
	for id, ch := range m.channels {
		ch.player.Stop(fade)
		delete(m.channels, id)
	}
}

// VolumeSFX adjusts the volume of one channel. It reports whether the handle
// was a live channel.
func (m *Manager) VolumeSFX(id uuid.UUID, volume float64) bool {
	ch, ok := m.channels[id]
	if !ok {
		return false
	}
	ch.player.SetVolume(volume)
	return true
}

// VolumeSFXByFilename adjusts every live channel playing filename and reports
// how many it touched.
func (m *Manager) VolumeSFXByFilename(filename string, volume float64) int {
	n := 0
	for _, ch := range m.channels {
		if ch.filename == filename {
			ch.player.SetVolume(volume)
			n++
		}
	}
	return n
}

// PlayingSFX reports whether the handle is a live channel.
func (m *Manager) PlayingSFX(id uuid.UUID) bool {
	_, ok := m.channels[id]
	return ok
}

// PlayMusic starts a music track, replacing any current one. Asking for the
// track that is already playing is a no-op, so room reloads do not restart
// their own music. A negative volume selects the configured default.
func (m *Manager) PlayMusic(filename string, volume float64) error {
	if m.musicTrack == filename && m.music != nil && m.music.IsPlaying() {
		return nil
	}
	if volume < 0 {
		volume = m.defaultMusicVolume
	}

	m.StopMusic(0)
	player, err := m.mixer.PlayMusic(m.resolve(filename), volume)
	if err != nil {
		m.log.Error("Cannot play music", zap.String("file", filename), zap.Error(err))
		return fmt.Errorf("audio: playing music %q: %w", filename, err)
	}
	m.music = player
	m.musicTrack = filename
	m.log.Info("Playing music", zap.String("file", filename))
	return nil
}

// StopMusic stops the current track, fading out over fade if nonzero.
func (m *Manager) StopMusic(fade time.Duration) {
	if m.music == nil {
		return
	}
	m.music.Stop(fade)
	m.music = nil
	m.musicTrack = ""
}

// PlayingMusic returns the filename of the playing track, or "" when silent.
func (m *Manager) PlayingMusic() string {
	if m.music == nil || !m.music.IsPlaying() {
		return ""
	}
	return m.musicTrack
}

// Cleanup drops channels whose players have finished. Called once per tick.
func (m *Manager) Cleanup() {
	var done []uuid.UUID
	for id, ch := range m.channels {
		if !ch.player.IsPlaying() {
			done = append(done, id)
		}
	}
	for _, id := range done {
		delete(m.channels, id)
	}
	if m.music != nil && !m.music.IsPlaying() {
		m.music = nil
		m.musicTrack = ""
	}
}

// Len reports the number of live sfx channels.
func (m *Manager) Len() int {
	return len(m.channels)
}
