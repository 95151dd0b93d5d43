package ebiten

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	eaudio "github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"

	"duskwalk/pkg/engine/audio"
)

// sampleRate is the mixer's fixed output rate. Decoders resample to it.
const sampleRate = 48000

// pcmStream is the part of the ebiten decoders the mixer needs: a seekable
// PCM reader that knows its own length, so it can be looped.
type pcmStream interface {
	io.ReadSeeker
	Length() int64
}

// mixer plays decoded audio through a single ebiten audio context. It
// implements the engine's audio.Mixer.
type mixer struct {
	ctx *eaudio.Context
}

func newMixer() *mixer {
	return &mixer{ctx: eaudio.NewContext(sampleRate)}
}

func decode(file string) (pcmStream, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("ebiten: reading audio %q: %w", file, err)
	}

	switch path.Ext(file) {
	case ".ogg":
		return vorbis.DecodeWithSampleRate(sampleRate, bytes.NewReader(data))
	case ".wav":
		return wav.DecodeWithSampleRate(sampleRate, bytes.NewReader(data))
	}
	return nil, fmt.Errorf("ebiten: unsupported audio format %q", file)
}

// PlaySound starts a sound effect. A loop of 0 plays once, -1 loops forever,
// n > 0 plays n+1 times.
func (m *mixer) PlaySound(file string, volume float64, loop int) (audio.Player, error) {
	stream, err := decode(file)
	if err != nil {
		return nil, err
	}

	var src io.Reader = stream
	switch {
	case loop < 0:
		src = eaudio.NewInfiniteLoop(stream, stream.Length())
	case loop > 0:
		pcm, err := io.ReadAll(stream)
		if err != nil {
			return nil, fmt.Errorf("ebiten: decoding audio %q: %w", file, err)
		}
		src = bytes.NewReader(bytes.Repeat(pcm, loop+1))
	}

	return m.start(src, volume)
}

// PlayMusic starts a music track, looping forever.
func (m *mixer) PlayMusic(file string, volume float64) (audio.Player, error) {
	stream, err := decode(file)
	if err != nil {
		return nil, err
	}
	return m.start(eaudio.NewInfiniteLoop(stream, stream.Length()), volume)
}

func (m *mixer) start(src io.Reader, volume float64) (audio.Player, error) {
	p, err := m.ctx.NewPlayer(src)
	if err != nil {
		return nil, fmt.Errorf("ebiten: creating audio player: %w", err)
	}
	p.SetVolume(volume)
	p.Play()
	return &player{p: p}, nil
}

// player adapts an ebiten audio player to the engine's audio.Player.
type player struct {
	p *eaudio.Player
}

func (pl *player) IsPlaying() bool          { return pl.p.IsPlaying() }
func (pl *player) SetVolume(volume float64) { pl.p.SetVolume(volume) }
func (pl *player) Volume() float64          { return pl.p.Volume() }

// Stop ends playback. A nonzero fade ramps the volume down over that
// duration before pausing; the ramp runs on its own goroutine so the tick
// loop never blocks on it.
func (pl *player) Stop(fade time.Duration) {
	if fade <= 0 {
		pl.p.Pause()
		pl.p.Close()
		return
	}

	go func() {
		const steps = 25
		start := pl.p.Volume()
		ticker := time.NewTicker(fade / steps)
		defer ticker.Stop()
		for i := 1; i <= steps; i++ {
			<-ticker.C
			pl.p.SetVolume(start * float64(steps-i) / float64(steps))
		}
		pl.p.Pause()
		pl.p.Close()
	}()
}
