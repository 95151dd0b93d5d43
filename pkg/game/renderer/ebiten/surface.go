package ebiten

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"duskwalk/pkg/engine/resource"
)

// Surface is a GPU-backed image behind the engine's Surface interface.
type Surface struct {
	img *ebiten.Image
}

// Size returns the surface dimensions in pixels.
func (s *Surface) Size() (w, h int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Scaled returns a copy of the surface scaled to the given size with linear
// filtering. The original surface is untouched.
func (s *Surface) Scaled(w, h int) resource.Surface {
	sw, sh := s.Size()
	dst := ebiten.NewImage(w, h)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(w)/float64(sw), float64(h)/float64(sh))
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(s.img, op)
	return &Surface{img: dst}
}

// DecodeImage loads an image file into a Surface. PNG and JPEG are
// supported.
func (r *Renderer) DecodeImage(path string) (resource.Surface, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ebiten: opening image %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("ebiten: decoding image %q: %w", path, err)
	}
	return &Surface{img: ebiten.NewImageFromImage(img)}, nil
}
