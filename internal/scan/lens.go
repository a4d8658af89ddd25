package scan

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrUnsupportedGeometry is returned for beam counts with no lens model.
var ErrUnsupportedGeometry = errors.New("scan: unsupported beam geometry")

// UnsupportedGeometryError names the beam count that has no lens
// distortion coefficients.
type UnsupportedGeometryError struct {
	Beams       int // sensor beam count from the file header
	Oversampled int // 4*Beams-3, the key of the coefficient table
}

func (e *UnsupportedGeometryError) Error() string {
	return fmt.Sprintf("scan: no lens distortion model for %d beams (%d oversampled; supported %v)",
		e.Beams, e.Oversampled, SupportedOversampled())
}

func (e *UnsupportedGeometryError) Unwrap() error { return ErrUnsupportedGeometry }

// Lens is the empirical cubic that maps a beam angle in degrees to a
// one-based virtual beam index:
//
//	index = round(Factor*(A[0]*θ³ + A[1]*θ² + A[2]*θ + A[3]) + 1)
type Lens struct {
	Factor float64
	A      [4]float64
}

// Two base transducer geometries, each with a native and scaled variants.
var (
	narrowLens = [4]float64{0.0015, -0.0036, 1.3351, 24.0976}
	wideLens   = [4]float64{0.0030, -0.0055, 2.6829, 48.04}
)

// lensTable is keyed by the oversampled beam count.
var lensTable = map[int]Lens{
	48:  {Factor: 1, A: narrowLens},
	189: {Factor: 4.026, A: narrowLens},
	96:  {Factor: 1.012, A: wideLens},
	381: {Factor: 4.05, A: wideLens},
	509: {Factor: 5.45, A: wideLens},
}

// LensFor returns the coefficients for an oversampled beam count.
func LensFor(oversampled int) (Lens, bool) {
	l, ok := lensTable[oversampled]
	return l, ok
}

// SupportedOversampled lists the oversampled beam counts with a lens model.
func SupportedOversampled() []int {
	out := make([]int, 0, len(lensTable))
	for k := range lensTable {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// BeamIndex evaluates the polynomial at theta degrees. Rounding is half to
// even so tables match the reference converter bit for bit.
func (l Lens) BeamIndex(theta float64) float64 {
	poly := l.A[0]*math.Pow(theta, 3) + l.A[1]*(theta*theta) + l.A[2]*theta + l.A[3]
	return math.RoundToEven(l.Factor*poly + 1)
}
