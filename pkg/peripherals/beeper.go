package peripherals

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

const (
	ToneHz     = 440
	SampleRate = 44100
	ToneVolume = 0.25
)

// SquareWave is an io.Reader producing mono float32 little-endian samples.
// It yields silence while switched off. Read runs on the audio goroutine;
// SetOn may be called from any goroutine.
type SquareWave struct {
	phase    float32
	phaseInc float32
	volume   float32
	on       atomic.Bool
}

// NewSquareWave returns a wave of freq Hz at the given sample rate and peak.
func NewSquareWave(freq, sampleRate int, volume float32) *SquareWave {
	return &SquareWave{
		phaseInc: float32(freq) / float32(sampleRate),
		volume:   volume,
	}
}

func (w *SquareWave) SetOn(on bool) {
	w.on.Store(on)
}

func (w *SquareWave) On() bool {
	return w.on.Load()
}

func (w *SquareWave) Read(p []byte) (int, error) {
	n := len(p) / 4 * 4
	on := w.on.Load()
	for i := 0; i < n; i += 4 {
		var sample float32
		if on {
			if w.phase < 0.5 {
				sample = w.volume
			} else {
				sample = -w.volume
			}
			w.phase += w.phaseInc
			if w.phase >= 1 {
				w.phase -= 1
			}
		}
		binary.LittleEndian.PutUint32(p[i:], math.Float32bits(sample))
	}
	return n, nil
}

// Beeper plays a 440Hz square wave through oto while the tone is on.
type Beeper struct {
	ctx    *oto.Context
	player *oto.Player
	wave   *SquareWave
}

// NewBeeper opens the audio device. Only one oto context may exist per
// process.
func NewBeeper() (*Beeper, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	wave := NewSquareWave(ToneHz, SampleRate, ToneVolume)
	player := ctx.NewPlayer(wave)
	player.Play()
	return &Beeper{ctx: ctx, player: player, wave: wave}, nil
}

// SetTone switches the tone on or off.
func (b *Beeper) SetTone(on bool) error {
	b.wave.SetOn(on)
	return nil
}

func (b *Beeper) Close() error {
	b.wave.SetOn(false)
	return b.player.Close()
}
