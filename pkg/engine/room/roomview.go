package room

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"duskwalk/pkg/engine/resource"
)

// ErrNoSuchView is returned by Load when the room file has no view with the
// requested name.
var ErrNoSuchView = errors.New("room: no such view")

// AudioService is the slice of the audio manager the loader uses to apply a
// view's music directive.
type AudioService interface {
	// PlayMusic starts a track. A negative volume selects the default.
	// Requesting the already-playing track is a no-op.
	PlayMusic(filename string, volume float64) error
	// StopMusic stops the current track, fading over fade if nonzero.
	StopMusic(fade time.Duration)
}

// Roomview is a loaded, materialized view: background image loaded, all
// conditional exits already resolved for this session.
type Roomview struct {
	File  string
	View  string
	Title string
	Image resource.Surface

	// Exits maps direction to destination, present exits only.
	Exits map[string]string
	// ActionExits maps action indexes to resolved go-exit destinations,
	// present ones only.
	ActionExits map[int]string

	Actions []ActionZone
}

// Loader turns room files into Roomviews. Descriptor parses are cached by
// the resource manager; exit resolution runs fresh on every load.
type Loader struct {
	log        *zap.Logger
	res        *resource.Manager
	audio      AudioService
	windowSize []int
	rng        Rand
}

// NewLoader returns a loader that scales backgrounds to windowSize and
// applies music directives through audio. A nil audio skips music handling.
func NewLoader(res *resource.Manager, audio AudioService, windowSize []int, rng Rand, log *zap.Logger) *Loader {
	return &Loader{
		log:        log.Named("room"),
		res:        res,
		audio:      audio,
		windowSize: windowSize,
		rng:        rng,
	}
}

// Load materializes the named view of a room file against the session
// funvalue. Failures load nothing and touch nothing: the caller keeps
// whatever roomview it already had.
func (l *Loader) Load(roomFile, viewName string, funvalue int) (*Roomview, error) {
	l.log.Info("Loading room and view",
		zap.String("file", roomFile),
		zap.String("view", viewName))

	var desc Descriptor
	if err := l.res.LoadJSON(roomFile, &desc); err != nil {
		l.log.Error("Unable to load room descriptor", zap.String("file", roomFile), zap.Error(err))
		return nil, err
	}

	view, ok := desc[viewName]
	if !ok {
		l.log.Error("No such view in room",
			zap.String("file", roomFile),
			zap.String("view", viewName))
		return nil, fmt.Errorf("%w: %s:%s", ErrNoSuchView, roomFile, viewName)
	}
	if view.Image == "" {
		return nil, fmt.Errorf("room: view %s:%s has no image", roomFile, viewName)
	}

	img, err := l.res.LoadImage(view.Image, l.windowSize)
	if err != nil {
		l.log.Error("Unable to load room image", zap.String("image", view.Image), zap.Error(err))
		return nil, err
	}

	rv := &Roomview{
		File:        roomFile,
		View:        viewName,
		Title:       view.Title,
		Image:       img,
		Exits:       make(map[string]string),
		ActionExits: make(map[int]string),
		Actions:     view.Actions,
	}
	l.resolveExits(view, rv, funvalue)
	l.applyMusic(view.Music)

	l.log.Info("Finished loading room",
		zap.String("file", roomFile),
		zap.Int("exits", len(rv.Exits)),
		zap.Int("actions", len(rv.Actions)))
	return rv, nil
}

// resolveExits runs every named exit and every go-action exit through the
// conditional evaluator, keeping only the present ones.
func (l *Loader) resolveExits(view *ViewDescriptor, rv *Roomview, funvalue int) {
	for dir, spec := range view.Exits {
		dest, present := ResolveExit(&spec, funvalue, l.rng)
		if !present {
			l.log.Debug("Exit not present this load", zap.String("direction", dir))
			continue
		}
		rv.Exits[dir] = dest
	}

	for i, action := range view.Actions {
		if action.Go == nil || action.Go.Result != ResultExit {
			continue
		}
		spec := action.Go.Exit
		if spec == nil {
			spec = &ExitSpec{Literal: action.Go.Contents}
		}
		dest, present := ResolveExit(spec, funvalue, l.rng)
		if !present {
			l.log.Debug("Action exit not present this load", zap.Int("action", i))
			continue
		}
		rv.ActionExits[i] = dest
	}
}

// applyMusic applies a view's music directive: a named track starts playing
// unless it already is, null or a number stops the current track, and a view
// with no directive leaves the music alone.
func (l *Loader) applyMusic(music *Music) {
	if music == nil || l.audio == nil {
		return
	}
	if music.Play() {
		if err := l.audio.PlayMusic(music.Track, -1); err != nil {
			l.log.Error("Unable to start room music", zap.String("track", music.Track), zap.Error(err))
		}
		return
	}
	l.audio.StopMusic(time.Duration(music.Fade * float64(time.Second)))
}
