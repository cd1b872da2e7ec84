// Package viz renders occupancy grids as heatmap images, checkpoint
// videos, and event charts.
package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/pthm-cable/drift/sim"
)

// labelMargin is the pixel band reserved for axis labels on the left
// and bottom edges.
const labelMargin = 24

// RenderHeatmap draws the grid as a heatmap with cellSize pixels per
// cell. Counts are scaled against the hottest cell; an all-zero grid
// renders entirely cold.
func RenderHeatmap(g *sim.Grid, cellSize int) *image.RGBA {
	size := g.Size()
	if cellSize < 1 {
		cellSize = 1
	}

	var maxCount uint64
	for _, c := range g.Counts() {
		if c > maxCount {
			maxCount = c
		}
	}

	w := labelMargin + size*cellSize
	h := size*cellSize + labelMargin
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	// Background including the label bands.
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			col := heatColor(g.At(y, x), maxCount)
			// Row 0 at the bottom, matching grid coordinates.
			px := labelMargin + x*cellSize
			py := (size - 1 - y) * cellSize
			for dy := 0; dy < cellSize; dy++ {
				for dx := 0; dx < cellSize; dx++ {
					img.Set(px+dx, py+dy, col)
				}
			}
		}
	}

	// Axis labels at the corners and midpoints.
	dark := color.RGBA{30, 30, 30, 255}
	addLabel(img, 2, size*cellSize-2, "0", dark)
	addLabel(img, 2, cellSize, fmt.Sprintf("%d", size-1), dark)
	addLabel(img, labelMargin, size*cellSize+16, "0", dark)
	addLabel(img, labelMargin+(size-1)*cellSize-8, size*cellSize+16, fmt.Sprintf("%d", size-1), dark)

	return img
}

// heatColor maps a count into a cold-to-hot ramp: dark blue through
// red to yellow-white.
func heatColor(count, maxCount uint64) color.RGBA {
	if maxCount == 0 || count == 0 {
		return color.RGBA{12, 12, 48, 255}
	}
	t := float64(count) / float64(maxCount)
	switch {
	case t < 0.5:
		// dark blue -> red
		f := t / 0.5
		return color.RGBA{
			R: uint8(12 + f*(255-12)),
			G: 12,
			B: uint8(48 * (1 - f)),
			A: 255,
		}
	default:
		// red -> yellow-white
		f := (t - 0.5) / 0.5
		return color.RGBA{
			R: 255,
			G: uint8(12 + f*(255-12)),
			B: uint8(f * 128),
			A: 255,
		}
	}
}

// addLabel draws a text label onto an image at the specified position.
func addLabel(img *image.RGBA, x, y int, label string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(label)
}

// SavePNG writes img to path.
func SavePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}
