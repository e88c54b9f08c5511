package video

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"gochip8/pkg/grid"
)

// Palette maps unlit and lit cells to colours.
type Palette struct {
	Off color.RGBA
	On  color.RGBA
}

// DefaultPalette is white pixels on black.
var DefaultPalette = Palette{
	Off: color.RGBA{0x00, 0x00, 0x00, 0xFF},
	On:  color.RGBA{0xFF, 0xFF, 0xFF, 0xFF},
}

// RGBA decodes the frame into a Width*Height*4 byte RGBA8888 slice, suitable
// for ebiten.Image.WritePixels.
func (fr Frame) RGBA(p Palette) []byte {
	pixels := make([]byte, Width*Height*4)
	for i, cell := range fr {
		c := p.Off
		if cell != 0 {
			c = p.On
		}
		pixels[i*4+0] = c.R
		pixels[i*4+1] = c.G
		pixels[i*4+2] = c.B
		pixels[i*4+3] = c.A
	}
	return pixels
}

// Image returns the frame as a Width x Height *image.RGBA.
func (fr Frame) Image(p Palette) *image.RGBA {
	return &image.RGBA{
		Pix:    fr.RGBA(p),
		Stride: Width * 4,
		Rect:   image.Rect(0, 0, Width, Height),
	}
}

// Scaled returns the frame enlarged by an integer factor with hard pixel edges.
func (fr Frame) Scaled(p Palette, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	src := fr.Image(p)
	dst := image.NewRGBA(image.Rect(0, 0, Width*scale, Height*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// String renders the frame as text, one line per row, '#' for lit cells.
func (fr Frame) String() string {
	buf := make([]byte, 0, (Width+1)*Height)
	for i, cell := range fr {
		if cell != 0 {
			buf = append(buf, '#')
		} else {
			buf = append(buf, '.')
		}
		if x, _ := grid.GetGridCoords(i, Width); x == Width-1 {
			buf = append(buf, '\n')
		}
	}
	return string(buf)
}

// SaveScreenshot encodes the frame, enlarged by scale, as a PNG file.
func (fr Frame) SaveScreenshot(filename string, p Palette, scale int) error {
	img := fr.Scaled(p, scale)
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
