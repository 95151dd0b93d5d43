// Package renderer defines the contract between the engine core and a
// graphical frontend. The frontend owns the window, the frame clock, image
// decoding, and sound playback; the engine hands it a Scene to draw each
// frame and receives the sampled mouse state in return.
package renderer

import (
	"duskwalk/pkg/engine/audio"
	"duskwalk/pkg/engine/resource"
)

// MouseState is the raw pointer state sampled once per frame.
type MouseState struct {
	X, Y         int
	LeftPressed  bool
	RightPressed bool
}

// Sprite is one positioned image in a frame.
type Sprite struct {
	Image resource.Surface
	X, Y  int
}

// Scene is everything drawn for one frame, listed back to front: the room
// background, overlay images, at most one hover indicator, and the text
// dialog contents ("" when no dialog is open).
type Scene struct {
	Background resource.Surface
	Overlays   []Sprite
	Indicator  *Sprite
	DialogText string
}

// App is the engine side of the frame loop. The frontend calls Step once per
// frame with the current mouse state, then draws whatever Scene returns.
// Step returning an error ends the loop; the error propagates out of Run.
type App interface {
	Step(mouse MouseState) error
	Scene() Scene
}

// Renderer is a graphical frontend. It doubles as the engine's image decoder
// and supplies the mixer the audio manager plays through, so every
// backend-specific type stays behind this one interface.
type Renderer interface {
	resource.Decoder

	// Mixer returns the sound backend for the audio manager.
	Mixer() audio.Mixer

	// SetTitle sets the window caption.
	SetTitle(title string)

	// Run opens the window and drives the frame loop until app.Step returns
	// an error or the window closes.
	Run(app App) error
}
