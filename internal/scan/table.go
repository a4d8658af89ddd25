package scan

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Table is the scan conversion lookup table. It is built once per job and
// is read-only afterwards, so one Table may back any number of renders.
type Table struct {
	Params      Params
	Width       int // nx
	Height      int // ny
	Bins        int // m
	Oversampled int // nout

	index []int32 // one-based, column-major over pixels
	valid int
}

// NewTable builds the lookup table for p. It fails before allocating
// anything if p has no lens model or an unusable window. The result is a pure
// function of p.
func NewTable(p Params) (*Table, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	lens, _ := p.Lens()
	dims := p.Dimensions()
	if dims.Width < 1 || dims.Height < 1 {
		return nil, fmt.Errorf("%w: empty %dx%d raster", ErrInvalidWindow, dims.Width, dims.Height)
	}

	m := p.Bins
	nout := p.Oversampled()
	t := &Table{
		Params:      p,
		Width:       dims.Width,
		Height:      dims.Height,
		Bins:        m,
		Oversampled: nout,
		index:       make([]int32, dims.Width*dims.Height),
	}

	c1 := float64(m-1) / (p.MaxRange - p.MinRange)
	gamma := dims.Gamma
	halfWidth := float64(dims.Width) / 2

	for ix := 1; ix <= dims.Width; ix++ {
		x := (float64(ix-1) - halfWidth) / gamma
		col := (ix - 1) * dims.Height
		for iy := 1; iy <= dims.Height; iy++ {
			y := p.MaxRange - float64(iy-1)/gamma
			r := math.Sqrt(y*y + x*x)
			theta := radToDeg * math.Atan2(x, y)

			bin := math.Floor((r-p.MinRange)*c1 + 1.5)
			beam := lens.BeamIndex(theta)

			entry := int32(Sentinel)
			if beam > 0 && beam <= float64(nout) && bin > 0 && bin <= float64(m) {
				entry = int32((int(beam)-1)*m + int(bin))
				t.valid++
			}
			t.index[col+iy-1] = entry
		}
	}
	return t, nil
}

// Len returns Width*Height.
func (t *Table) Len() int { return len(t.index) }

// SourceLen returns the size of the flattened oversampled grid, the upper
// bound of every entry.
func (t *Table) SourceLen() int { return t.Bins * t.Oversampled }

// Entry returns the one-based source index stored at table offset k.
func (t *Table) Entry(k int) int { return int(t.index[k]) }

// At returns the one-based source index for pixel (ix, iy), both one-based.
func (t *Table) At(ix, iy int) int {
	return int(t.index[(ix-1)*t.Height+(iy-1)])
}

// Valid returns the number of pixels inside the fan.
func (t *Table) Valid() int { return t.valid }

// OutsideFan returns the number of pixels mapped to the sentinel because
// they fall outside the fan.
func (t *Table) OutsideFan() int { return len(t.index) - t.valid }

// Gather fills dst (length Len) with src[entry-1] for every table entry. src
// is the column-major flattened oversampled grid (length SourceLen).
func (t *Table) Gather(dst, src []float64) error {
	if len(dst) != len(t.index) {
		return fmt.Errorf("scan: gather destination has %d cells, table has %d", len(dst), len(t.index))
	}
	if len(src) != t.SourceLen() {
		return fmt.Errorf("scan: gather source has %d samples, table expects %d", len(src), t.SourceLen())
	}
	for k, e := range t.index {
		dst[k] = src[e-1]
	}
	return nil
}

// Fingerprint hashes the table contents. Identical parameters always give
// the same fingerprint.
func (t *Table) Fingerprint() uint64 {
	d := xxhash.New()
	var b [4]byte
	for _, v := range [...]int{t.Width, t.Height, t.Bins, t.Oversampled} {
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		d.Write(b[:])
	}
	for _, e := range t.index {
		binary.LittleEndian.PutUint32(b[:], uint32(e))
		d.Write(b[:])
	}
	return d.Sum64()
}
