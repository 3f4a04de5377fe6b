package renderer

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

// Image is an 8-bit RGB raster stored top row first
type Image struct {
	Width, Height int
	Pix           []uint8 // 3 bytes per pixel, row-major
}

// NewImage allocates a black image
func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}
}

// Set stores the pixel at column x, row y (row 0 is the top of the image)
func (img *Image) Set(x, y int, r, g, b uint8) {
	i := (y*img.Width + x) * 3
	img.Pix[i], img.Pix[i+1], img.Pix[i+2] = r, g, b
}

// At returns the pixel at column x, row y
func (img *Image) At(x, y int) (r, g, b uint8) {
	i := (y*img.Width + x) * 3
	return img.Pix[i], img.Pix[i+1], img.Pix[i+2]
}

// ToRGBA converts the image to an opaque image.RGBA
func (img *Image) ToRGBA() *image.RGBA {
	rgba := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b := img.At(x, y)
			rgba.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return rgba
}

// WritePPM writes the image as plain-text P3: a header followed by one
// "R G B" line per pixel in raster order
func (img *Image) WritePPM(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", img.Width, img.Height); err != nil {
		return fmt.Errorf("write ppm header: %w", err)
	}
	for i := 0; i < len(img.Pix); i += 3 {
		if _, err := fmt.Fprintf(bw, "%d %d %d\n", img.Pix[i], img.Pix[i+1], img.Pix[i+2]); err != nil {
			return fmt.Errorf("write ppm pixel: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush ppm: %w", err)
	}
	return nil
}

// QuantizeChannel gamma-corrects a linear channel value with gamma 2 and
// maps it to 0..255: floor(256 * clamp(sqrt(c), 0, 0.999)).
// Negative and NaN inputs map to 0.
func QuantizeChannel(c float64) uint8 {
	if !(c > 0) {
		return 0
	}
	v := math.Min(math.Sqrt(c), 0.999)
	return uint8(256 * v)
}

// vec3ToColor converts an averaged linear color to 8-bit channels
func vec3ToColor(c core.Color) (r, g, b uint8) {
	return QuantizeChannel(c.X), QuantizeChannel(c.Y), QuantizeChannel(c.Z)
}
