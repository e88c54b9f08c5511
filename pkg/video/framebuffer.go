// Package video holds the 64x32 monochrome framebuffer and the XOR sprite
// compositor that draws into it.
package video

import (
	"errors"
	"fmt"

	"gochip8/pkg/grid"
)

const (
	Width  = 64
	Height = 32

	// SpriteWidth is the fixed number of pixels in one sprite row.
	SpriteWidth = 8
	// MaxSpriteHeight is the tallest sprite DrawSprite accepts.
	MaxSpriteHeight = 15
)

// ErrSpriteTooTall is returned when a sprite has more than MaxSpriteHeight rows.
var ErrSpriteTooTall = errors.New("sprite height exceeds 15 rows")

// Framebuffer is the 1-bit pixel grid. Cells hold 0 or 1, row-major.
// Only Clear, DrawSprite and Restore mutate it.
type Framebuffer struct {
	cells [Width * Height]uint8
}

// New returns a blank framebuffer.
func New() *Framebuffer {
	return &Framebuffer{}
}

// Clear zeroes every cell.
func (f *Framebuffer) Clear() {
	f.cells = [Width * Height]uint8{}
}

// Pixel reports the cell at (x, y). Coordinates wrap.
func (f *Framebuffer) Pixel(x, y int) bool {
	return f.cells[grid.Index(grid.Wrap(x, Width), grid.Wrap(y, Height), Width)] != 0
}

// DrawSprite XORs rows onto the grid with its top-left corner at (x, y).
// Each byte is one 8-pixel row, most significant bit leftmost. Pixels past an
// edge wrap to the opposite side. The result reports whether any lit cell was
// turned off.
func (f *Framebuffer) DrawSprite(x, y int, rows []byte) (bool, error) {
	if len(rows) > MaxSpriteHeight {
		return false, fmt.Errorf("%w: %d", ErrSpriteTooTall, len(rows))
	}

	collision := false
	for row, bits := range rows {
		py := grid.Wrap(y+row, Height)
		for col := 0; col < SpriteWidth; col++ {
			bit := (bits >> (7 - col)) & 1
			if bit == 0 {
				continue
			}
			idx := grid.Index(grid.Wrap(x+col, Width), py, Width)
			if f.cells[idx] == 1 {
				collision = true
			}
			f.cells[idx] ^= 1
		}
	}
	return collision, nil
}

// Snapshot copies the grid for a renderer on another goroutine.
func (f *Framebuffer) Snapshot() Frame {
	return Frame(f.cells)
}

// Restore replaces the grid with a previously taken snapshot.
func (f *Framebuffer) Restore(frame Frame) {
	for i, c := range frame {
		f.cells[i] = c & 1
	}
}

// Lit counts the cells that are on.
func (f *Framebuffer) Lit() int {
	return Frame(f.cells).Lit()
}

// Frame is an immutable copy of the framebuffer cells.
type Frame [Width * Height]uint8

// Pixel reports the cell at (x, y) of the frame. Coordinates wrap.
func (fr Frame) Pixel(x, y int) bool {
	return fr[grid.Index(grid.Wrap(x, Width), grid.Wrap(y, Height), Width)] != 0
}

// Lit counts the cells that are on.
func (fr Frame) Lit() int {
	n := 0
	for _, c := range fr {
		n += int(c)
	}
	return n
}
