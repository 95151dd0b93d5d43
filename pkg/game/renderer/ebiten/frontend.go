// Package ebiten is the graphical frontend: an Ebiten window that samples
// the mouse, steps the engine once per frame, and draws the returned scene.
package ebiten

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"go.uber.org/zap"

	"duskwalk/pkg/engine/audio"
	"duskwalk/pkg/engine/config"
	"duskwalk/pkg/engine/resource"
	"duskwalk/pkg/game/renderer"
)

// dialogFontSize is the point size dialog text renders at.
const dialogFontSize = 18

// textboxPadding is the pixel inset between the textbox edge and its text.
const textboxPadding = 12

// Renderer is the Ebiten-backed frontend. It owns the window, the audio
// context, and the dialog font.
type Renderer struct {
	log    *zap.Logger
	width  int
	height int
	gui    config.GUIConfig

	mixer *mixer
	face  *text.GoTextFace

	textboxBG *ebiten.Image
}

// New builds the frontend from the window and GUI configuration. The dialog
// font is loaded from fontPath, a TTF shipped with the common assets.
func New(cfg *config.Config, fontPath string, log *zap.Logger) (*Renderer, error) {
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("ebiten: reading dialog font %q: %w", fontPath, err)
	}
	src, err := text.NewGoTextFaceSource(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ebiten: parsing dialog font %q: %w", fontPath, err)
	}

	return &Renderer{
		log:    log.Named("ebiten"),
		width:  cfg.Window.Width(),
		height: cfg.Window.Height(),
		gui:    cfg.GUI,
		mixer:  newMixer(),
		face:   &text.GoTextFace{Source: src, Size: dialogFontSize},
	}, nil
}

// Mixer returns the sound backend for the audio manager.
func (r *Renderer) Mixer() audio.Mixer { return r.mixer }

// SetTitle sets the window caption.
func (r *Renderer) SetTitle(title string) { ebiten.SetWindowTitle(title) }

// Run opens the window and drives the frame loop until the app stops or the
// window closes.
func (r *Renderer) Run(app renderer.App) error {
	ebiten.SetWindowSize(r.width, r.height)
	r.log.Info("Opening window", zap.Int("width", r.width), zap.Int("height", r.height))
	return ebiten.RunGame(&game{fe: r, app: app})
}

// game adapts the engine app to Ebiten's fixed Update/Draw/Layout loop.
type game struct {
	fe  *Renderer
	app renderer.App
}

func (g *game) Update() error {
	x, y := ebiten.CursorPosition()
	return g.app.Step(renderer.MouseState{
		X:            x,
		Y:            y,
		LeftPressed:  ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		RightPressed: ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight),
	})
}

func (g *game) Draw(screen *ebiten.Image) {
	scene := g.app.Scene()

	if scene.Background != nil {
		blit(screen, scene.Background, 0, 0)
	}
	for _, o := range scene.Overlays {
		blit(screen, o.Image, o.X, o.Y)
	}
	if scene.Indicator != nil {
		blit(screen, scene.Indicator.Image, scene.Indicator.X, scene.Indicator.Y)
	}
	if scene.DialogText != "" {
		g.fe.drawDialog(screen, scene.DialogText)
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.fe.width, g.fe.height
}

// blit draws an engine surface at a pixel position. Surfaces always come
// from this frontend's own decoder, so the assertion cannot fail in a
// running engine.
func blit(screen *ebiten.Image, img resource.Surface, x, y int) {
	s, ok := img.(*Surface)
	if !ok {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(s.img, op)
}

// drawDialog renders the text dialog box above the bottom margin, wrapping
// the contents to the box width.
func (r *Renderer) drawDialog(screen *ebiten.Image, contents string) {
	boxW := r.width - 2*r.gui.TextboxMarginSides
	boxH := r.gui.TextboxHeight
	boxX := r.gui.TextboxMarginSides
	boxY := r.height - boxH - r.gui.TextboxMarginBottom

	if r.textboxBG == nil {
		r.textboxBG = ebiten.NewImage(boxW, boxH)
		r.textboxBG.Fill(color.RGBA{A: 0xc0})
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(boxX), float64(boxY))
	screen.DrawImage(r.textboxBG, op)

	lineHeight := r.face.Metrics().HAscent + r.face.Metrics().HDescent
	y := float64(boxY + textboxPadding)
	for _, line := range wrap(contents, r.face, float64(boxW-2*textboxPadding)) {
		top := &text.DrawOptions{}
		top.GeoM.Translate(float64(boxX+textboxPadding), y)
		top.ColorScale.ScaleWithColor(color.White)
		text.Draw(screen, line, r.face, top)
		y += lineHeight
	}
}

// wrap splits contents into lines no wider than maxWidth, breaking at word
// boundaries. A single word wider than the box gets a line of its own.
func wrap(contents string, face *text.GoTextFace, maxWidth float64) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(contents) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if w, _ := text.Measure(candidate, face, 0); w > maxWidth && line != "" {
			lines = append(lines, line)
			line = word
			continue
		}
		line = candidate
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
