// Package machine drives the interpreter core at a fixed instruction rate and
// connects it to display, audio and input collaborators.
package machine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"gochip8/pkg/cpu"
	"gochip8/pkg/video"
)

// Display receives a copy of the framebuffer whenever it changes.
type Display interface {
	Present(frame video.Frame) error
}

// Beeper is switched on while the sound register counts down.
type Beeper interface {
	SetTone(on bool) error
}

// Input presses the currently held keys into the latch before each tick.
// Returning cpu.ErrQuit stops the run loop.
type Input interface {
	Poll(keys *cpu.Keypad) error
}

// Stats counts ticks since construction.
type Stats struct {
	Ticks     uint64
	Recovered uint64
	Dropped   uint64
	Frames    uint64
}

// Machine owns a CPU and steps it from a single goroutine. All collaborator
// calls happen on that goroutine.
type Machine struct {
	CPU *cpu.CPU

	cfg     Config
	clock   Clock
	logger  *slog.Logger
	display Display
	beeper  Beeper
	input   Input

	period  time.Duration
	next    time.Time
	started bool
	tone    bool

	presented bool
	lastFrame video.Frame

	stats Stats
}

// Option configures a Machine.
type Option func(*Machine)

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(m *Machine) { m.cfg = cfg }
}

// WithLogger sets the logger used for per-tick failures. The default
// discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithClock replaces SystemClock.
func WithClock(c Clock) Option {
	return func(m *Machine) { m.clock = c }
}

func WithDisplay(d Display) Option {
	return func(m *Machine) { m.display = d }
}

func WithBeeper(b Beeper) Option {
	return func(m *Machine) { m.beeper = b }
}

func WithInput(in Input) Option {
	return func(m *Machine) { m.input = in }
}

// WithRand sets the source of RND bytes.
func WithRand(r *rand.Rand) Option {
	return func(m *Machine) { m.CPU.Rand = r }
}

// New wraps c. Collaborators left unset are skipped.
func New(c *cpu.CPU, opts ...Option) (*Machine, error) {
	m := &Machine{
		CPU:    c,
		cfg:    DefaultConfig(),
		clock:  SystemClock(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.cfg.Validate(); err != nil {
		return nil, err
	}
	m.period = m.cfg.TickPeriod()
	m.CPU.KeyWait = m.cfg.KeyWait
	m.CPU.Timers.Period = m.cfg.TimerPeriod()
	return m, nil
}

// Config returns the active configuration.
func (m *Machine) Config() Config {
	return m.cfg
}

// Stats returns the counters so far.
func (m *Machine) Stats() Stats {
	return m.stats
}

// Reload resets the CPU, loads rom at cpu.ProgramStart and re-anchors the
// cadence on the next Update. It returns the number of bytes loaded.
func (m *Machine) Reload(rom []byte) (int, error) {
	m.CPU.Reset()
	n := m.CPU.LoadProgram(rom)
	m.started = false
	m.presented = false
	if m.tone {
		m.tone = false
		if m.beeper != nil {
			if err := m.beeper.SetTone(false); err != nil {
				return n, err
			}
		}
	}
	m.logger.Info("program loaded", slog.Int("bytes", n))
	return n, nil
}

// Restore loads a state archive written by cpu.HibernateToBytes and
// re-anchors the cadence on the next Update.
func (m *Machine) Restore(data []byte) error {
	if err := m.CPU.RestoreFromBytes(data); err != nil {
		return err
	}
	m.started = false
	m.presented = false
	m.logger.Info("state restored", slog.String("pc", hex16(m.CPU.PC)))
	return nil
}

// Tick runs one fetch-decode-execute cycle followed by the timer check, with
// now as the single clock reading for the tick. Recoverable failures are
// logged and counted; only fatal errors and cpu.ErrQuit are returned.
func (m *Machine) Tick(now time.Time) error {
	if m.input != nil {
		if err := m.input.Poll(&m.CPU.Keys); err != nil {
			return err
		}
	}

	pc := m.CPU.PC
	err := m.CPU.Step()
	m.CPU.Keys.Clear()
	m.stats.Ticks++

	if err != nil {
		if !cpu.IsRecoverable(err) {
			return err
		}
		m.stats.Recovered++
		m.logger.Warn("instruction skipped",
			slog.String("pc", hex16(pc)),
			slog.String("opcode", hex16(m.opcodeAt(pc))),
			slog.Any("error", err))
	}

	if tone := m.CPU.Timers.Update(now); tone != m.tone {
		m.tone = tone
		m.logger.Debug("sound", slog.Bool("on", tone))
		if m.beeper != nil {
			if err := m.beeper.SetTone(tone); err != nil {
				return err
			}
		}
	}

	return m.present()
}

func (m *Machine) present() error {
	if m.display == nil {
		return nil
	}
	frame := m.CPU.Display.Snapshot()
	if m.presented && frame == m.lastFrame {
		return nil
	}
	m.lastFrame = frame
	m.presented = true
	m.stats.Frames++
	return m.display.Present(frame)
}

// Update runs every tick that has come due by now and returns how many ran.
// The first call anchors the instruction cadence and the timers at now.
func (m *Machine) Update(now time.Time) (int, error) {
	if !m.started {
		m.started = true
		m.next = now
		m.CPU.Timers.Reset(now)
	}

	if lag := now.Sub(m.next); m.cfg.MaxLag > 0 && lag > m.cfg.MaxLag {
		skipped := uint64(lag / m.period)
		m.stats.Dropped += skipped
		m.logger.Debug("run loop behind, dropping ticks",
			slog.Duration("lag", lag), slog.Uint64("ticks", skipped))
		m.next = now
	}

	n := 0
	for !now.Before(m.next) {
		if err := m.Tick(now); err != nil {
			return n, err
		}
		n++
		m.next = m.next.Add(m.period)
	}
	return n, nil
}

// Run drives Update from the clock until ctx is done, the input asks to quit
// or a fatal error occurs. It returns cpu.ErrQuit, ctx.Err() or the fatal
// error. A stopped run is not resumable.
func (m *Machine) Run(ctx context.Context) error {
	m.logger.Info("machine started",
		slog.Int("hz", m.cfg.InstructionHz),
		slog.Int("timer_hz", m.cfg.TimerHz))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := m.Update(m.clock.Now()); err != nil {
			if errors.Is(err, cpu.ErrQuit) {
				m.logger.Info("quit requested", slog.Uint64("ticks", m.stats.Ticks))
			}
			return err
		}
		if wait := m.next.Sub(m.clock.Now()); wait > 0 {
			m.clock.Sleep(wait)
		}
	}
}

func (m *Machine) opcodeAt(pc uint16) uint16 {
	if pc > cpu.MaxPC {
		return 0
	}
	return uint16(m.CPU.Memory[pc])<<8 | uint16(m.CPU.Memory[pc+1])
}

func hex16(v uint16) string {
	return fmt.Sprintf("0x%04X", v)
}
