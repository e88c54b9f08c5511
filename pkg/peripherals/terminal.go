package peripherals

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"gochip8/pkg/cpu"
	"gochip8/pkg/video"
)

// DefaultKeyHold is how long a key stays pressed after its last byte arrives.
// Terminals report no key releases, only repeats.
const DefaultKeyHold = 150 * time.Millisecond

const (
	keyEscape = 0x1B
	keyCtrlC  = 0x03
	keyCtrlD  = 0x04
)

// ErrNotTerminal is returned by Start when stdin is not a terminal.
var ErrNotTerminal = errors.New("stdin is not a terminal")

// Terminal renders the framebuffer with half-block characters and turns
// stdin bytes into keypad presses. Bytes arrive on a reader goroutine; the
// run loop consumes them through Poll under a mutex.
type Terminal struct {
	in  *os.File
	out io.Writer

	Hold time.Duration
	now  func() time.Time

	mu    sync.Mutex
	until [cpu.KeyCount]time.Time
	quit  bool

	fd    int
	state *term.State
}

// NewTerminal wraps in and out. Call Start to switch in to raw mode.
func NewTerminal(in *os.File, out io.Writer) *Terminal {
	return &Terminal{
		in:   in,
		out:  out,
		Hold: DefaultKeyHold,
		now:  time.Now,
	}
}

// Start puts the terminal in raw mode, clears the screen and begins reading
// keys. The reader goroutine ends with the process.
func (t *Terminal) Start() error {
	t.fd = int(t.in.Fd())
	if !term.IsTerminal(t.fd) {
		return ErrNotTerminal
	}
	if w, h, err := term.GetSize(t.fd); err == nil && (w < video.Width || h < video.Height/2) {
		return fmt.Errorf("terminal is %dx%d, need at least %dx%d", w, h, video.Width, video.Height/2)
	}

	state, err := term.MakeRaw(t.fd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	t.state = state
	fmt.Fprint(t.out, "\x1b[2J\x1b[?25l")

	go t.readLoop()
	return nil
}

// Stop restores the terminal mode and cursor.
func (t *Terminal) Stop() {
	fmt.Fprint(t.out, "\x1b[?25h\r\n")
	if t.state != nil {
		_ = term.Restore(t.fd, t.state)
		t.state = nil
	}
}

func (t *Terminal) readLoop() {
	buf := make([]byte, 16)
	for {
		n, err := t.in.Read(buf)
		for _, b := range buf[:n] {
			t.handleByte(b)
		}
		if err != nil {
			t.mu.Lock()
			t.quit = true
			t.mu.Unlock()
			return
		}
	}
}

func (t *Terminal) handleByte(b byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch b {
	case keyEscape, keyCtrlC, keyCtrlD:
		t.quit = true
		return
	}
	if k, ok := KeyForRune(rune(b)); ok {
		t.until[k] = t.now().Add(t.Hold)
	}
}

// Poll presses every key seen within the hold window.
func (t *Terminal) Poll(keys *cpu.Keypad) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.quit {
		return cpu.ErrQuit
	}
	now := t.now()
	for i, deadline := range t.until {
		if now.Before(deadline) {
			keys.Press(cpu.Key(i))
		}
	}
	return nil
}

// Present redraws the whole frame from the home position.
func (t *Terminal) Present(frame video.Frame) error {
	_, err := io.WriteString(t.out, "\x1b[H"+RenderHalfBlocks(frame))
	return err
}

// SetTone rings the terminal bell when the tone starts.
func (t *Terminal) SetTone(on bool) error {
	if !on {
		return nil
	}
	_, err := io.WriteString(t.out, "\a")
	return err
}

// RenderHalfBlocks draws two framebuffer rows per text line. Lines end with
// CRLF since raw mode disables output translation.
func RenderHalfBlocks(frame video.Frame) string {
	var sb strings.Builder
	sb.Grow((video.Width*3 + 2) * video.Height / 2)
	for y := 0; y < video.Height; y += 2 {
		for x := 0; x < video.Width; x++ {
			top, bottom := frame.Pixel(x, y), frame.Pixel(x, y+1)
			switch {
			case top && bottom:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bottom:
				sb.WriteRune('▄')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteString("\r\n")
	}
	return sb.String()
}
