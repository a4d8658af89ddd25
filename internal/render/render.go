// Package render turns raw sonar frames into raster images through a scan
// conversion table.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/aris2video/internal/aris"
	"github.com/banshee-data/aris2video/internal/scan"
)

// ErrFrameShape is returned when a frame's grid does not match the table the
// renderer was built for.
var ErrFrameShape = errors.New("render: frame shape does not match table")

// Option configures a Renderer.
type Option func(*Renderer)

// WithBlankSentinel zeroes the first oversampled sample before the gather so
// every pixel outside the fan renders black. Without it those pixels show the
// value of the first sample of the flattened grid.
func WithBlankSentinel(blank bool) Option {
	return func(r *Renderer) { r.blank = blank }
}

// Renderer maps frames to rasters of the table's size. The table is shared
// read-only; the scratch buffers are overwritten in full on every frame, so a
// frame's output depends only on the frame and the table. A Renderer is not
// safe for concurrent use.
type Renderer struct {
	table *scan.Table
	blank bool

	grid *mat.Dense
	row  []float64
	flat []float64
	pix  []float64
}

// NewRenderer returns a renderer bound to t.
func NewRenderer(t *scan.Table, opts ...Option) *Renderer {
	r := &Renderer{
		table: t,
		grid:  mat.NewDense(t.Bins, t.Oversampled, nil),
		row:   make([]float64, beamsFor(t)),
		flat:  make([]float64, t.SourceLen()),
		pix:   make([]float64, t.Len()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Table returns the table the renderer gathers through.
func (r *Renderer) Table() *scan.Table { return r.table }

// Bounds returns the raster rectangle every rendered frame occupies.
func (r *Renderer) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.table.Width, r.table.Height)
}

func beamsFor(t *scan.Table) int {
	return (t.Oversampled + scan.Oversample - 1) / scan.Oversample
}

func (r *Renderer) checkShape(f *aris.RawFrame) error {
	beams := beamsFor(r.table)
	if f.Bins != r.table.Bins || f.Beams != beams || len(f.Samples) != f.Bins*f.Beams {
		return fmt.Errorf("%w: frame %d is %dx%d (%d samples), table wants %dx%d",
			ErrFrameShape, f.Index, f.Bins, f.Beams, len(f.Samples), r.table.Bins, beams)
	}
	return nil
}

// Interpolate writes the 4x oversampled form of one range row into dst.
// src holds n beam values; dst must hold 4n-3. Position 4k carries src[k] and
// the three positions after it blend src[k] into src[k+1] at 1/4 steps.
func Interpolate(dst, src []float64) {
	n := len(src)
	for i := range dst {
		dst[i] = 0
	}
	for k := 0; k < n; k++ {
		dst[scan.Oversample*k] = src[k]
		if k == n-1 {
			break
		}
		a, b := src[k], src[k+1]
		dst[scan.Oversample*k+1] = 0.75*a + 0.25*b
		dst[scan.Oversample*k+2] = 0.50*a + 0.50*b
		dst[scan.Oversample*k+3] = 0.25*a + 0.75*b
	}
}

// fill mirrors the beam order of f and oversamples every range row into g.
func (r *Renderer) fill(g *mat.Dense, f *aris.RawFrame) {
	for bin := 0; bin < f.Bins; bin++ {
		for j := 0; j < f.Beams; j++ {
			r.row[j] = float64(f.At(bin, f.Beams-1-j))
		}
		Interpolate(g.RawRowView(bin), r.row)
	}
}

// Oversample returns the (bins x 4*beams-3) grid for f with the beam order
// mirrored.
func (r *Renderer) Oversample(f *aris.RawFrame) (*mat.Dense, error) {
	if err := r.checkShape(f); err != nil {
		return nil, err
	}
	g := mat.NewDense(r.table.Bins, r.table.Oversampled, nil)
	r.fill(g, f)
	return g, nil
}

// gather runs the oversample and table lookup into r.pix, which then holds
// the raster values column-major over (Height, Width).
func (r *Renderer) gather(f *aris.RawFrame) error {
	if err := r.checkShape(f); err != nil {
		return err
	}
	r.fill(r.grid, f)

	m, nout := r.grid.Dims()
	for j := 0; j < nout; j++ {
		for i := 0; i < m; i++ {
			r.flat[j*m+i] = r.grid.At(i, j)
		}
	}
	if r.blank {
		r.flat[0] = 0
	}
	return r.table.Gather(r.pix, r.flat)
}

func toByte(v float64) uint8 {
	v = math.RoundToEven(v)
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

// Render produces the single channel raster for f.
func (r *Renderer) Render(f *aris.RawFrame) (*image.Gray, error) {
	if err := r.gather(f); err != nil {
		return nil, err
	}
	img := image.NewGray(r.Bounds())
	ny := r.table.Height
	for k, v := range r.pix {
		x, y := k/ny, k%ny
		img.Pix[y*img.Stride+x] = toByte(v)
	}
	return img, nil
}

// RenderRGB produces the raster for f promoted to opaque RGB with equal
// channels, the form video sinks consume.
func (r *Renderer) RenderRGB(f *aris.RawFrame) (*image.RGBA, error) {
	gray, err := r.Render(f)
	if err != nil {
		return nil, err
	}
	return Promote(gray), nil
}

// Promote copies a gray raster into an opaque RGBA image.
func Promote(g *image.Gray) *image.RGBA {
	b := g.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := g.GrayAt(x, y).Y
			out.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 0xff})
		}
	}
	return out
}
