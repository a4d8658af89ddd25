// Package scan owns the polar to raster geometry: output dimensions, the
// lens distortion model and the scan conversion table that maps every output
// pixel to a sample of the 4x beam-oversampled polar grid.
//
// Index conventions are explicit rather than inherited from any array
// library:
//
//   - the oversampled grid has Bins rows and Oversampled columns and is
//     flattened column-major, so sample (bin b, virtual beam k), both
//     one-based, lives at linear index (k-1)*Bins + b;
//   - table entries are stored column-major over the raster, pixel (ix, iy)
//     (one-based) at offset (ix-1)*Height + (iy-1).
package scan

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/aris2video/internal/aris"
)

const (
	// HalfAngleDeg is the half fan angle of a version 5 sensor.
	HalfAngleDeg = 14.0

	// Oversample is the number of virtual beams per real beam gap.
	Oversample = 4

	// Sentinel is the table entry for pixels outside the fan.
	Sentinel = 1
)

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

// ErrInvalidWindow is returned when the range window cannot produce a raster.
var ErrInvalidWindow = errors.New("scan: invalid range window")

// Params are the inputs of the geometry engine.
type Params struct {
	Beams        int     // real beams n
	Bins         int     // range bins m
	MinRange     float64 // meters
	MaxRange     float64 // meters
	HalfAngleDeg float64
}

// ParamsFromHeaders derives geometry from the file header grid and the frame
// 0 range window. Every frame of a job is rendered with these parameters even
// though the format allows the window to change per frame.
func ParamsFromHeaders(h *aris.Headers) Params {
	return Params{
		Beams:        int(h.File.NumBeams),
		Bins:         int(h.File.SamplesPerChannel),
		MinRange:     h.Frame0.WindowStart,
		MaxRange:     h.Frame0.WindowStart + h.Frame0.WindowLength,
		HalfAngleDeg: HalfAngleDeg,
	}
}

// Oversampled returns the virtual beam count 4n-3.
func (p Params) Oversampled() int {
	return Oversample*p.Beams - (Oversample - 1)
}

// Lens returns the distortion model for p, or an *UnsupportedGeometryError.
func (p Params) Lens() (Lens, error) {
	l, ok := LensFor(p.Oversampled())
	if !ok {
		return Lens{}, &UnsupportedGeometryError{Beams: p.Beams, Oversampled: p.Oversampled()}
	}
	return l, nil
}

// Validate checks p before any table work. Unsupported beam counts are
// reported first since they are the common failure on real recordings.
func (p Params) Validate() error {
	if _, err := p.Lens(); err != nil {
		return err
	}
	if p.Bins < 1 {
		return fmt.Errorf("%w: %d range bins", ErrInvalidWindow, p.Bins)
	}
	if math.IsNaN(p.MinRange) || math.IsInf(p.MinRange, 0) || math.IsNaN(p.MaxRange) || math.IsInf(p.MaxRange, 0) {
		return fmt.Errorf("%w: non-finite range [%g, %g]", ErrInvalidWindow, p.MinRange, p.MaxRange)
	}
	if p.MaxRange <= p.MinRange || p.MaxRange <= 0 {
		return fmt.Errorf("%w: range [%g, %g] m", ErrInvalidWindow, p.MinRange, p.MaxRange)
	}
	if p.HalfAngleDeg <= 0 || p.HalfAngleDeg >= 90 {
		return fmt.Errorf("%w: half angle %g degrees", ErrInvalidWindow, p.HalfAngleDeg)
	}
	return nil
}

// Dimensions are the output raster size and the pixel density.
type Dimensions struct {
	Width  int     // nx
	Height int     // ny
	Gamma  float64 // pixels per meter
}

// Dimensions computes the raster size. The width is an empirical density
// calibration against the range resolution; the height follows from keeping
// the pixel aspect square.
func (p Params) Dimensions() Dimensions {
	nx := int(math.RoundToEven(0.1773*float64(p.Bins) + 309))
	half := p.HalfAngleDeg * degToRad
	d3 := p.MinRange * math.Cos(half)
	gamma := float64(nx) / (2 * p.MaxRange * math.Sin(half))
	ny := int(math.Floor(gamma*(p.MaxRange-d3) + 0.5))
	return Dimensions{Width: nx, Height: ny, Gamma: gamma}
}
