package scan_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/aris2video/internal/scan"
)

func smallParams() scan.Params {
	return scan.Params{Beams: 48, Bins: 4, MinRange: 1, MaxRange: 5, HalfAngleDeg: scan.HalfAngleDeg}
}

func TestLensCenterBeam(t *testing.T) {
	t.Parallel()

	cases := map[int]float64{48: 25, 189: 98, 96: 50, 381: 196, 509: 263}
	for nout, want := range cases {
		l, ok := scan.LensFor(nout)
		require.True(t, ok, nout)
		assert.Equal(t, want, l.BeamIndex(0), "nout=%d", nout)
	}

	_, ok := scan.LensFor(397)
	assert.False(t, ok)
	assert.Equal(t, []int{48, 96, 189, 381, 509}, scan.SupportedOversampled())
}

func TestLensIsMonotonicAcrossFan(t *testing.T) {
	t.Parallel()

	l, _ := scan.LensFor(189)
	prev := l.BeamIndex(-14)
	for theta := -13.5; theta <= 14; theta += 0.5 {
		cur := l.BeamIndex(theta)
		assert.GreaterOrEqual(t, cur, prev, "theta=%g", theta)
		prev = cur
	}
}

func TestDimensions(t *testing.T) {
	t.Parallel()

	p := smallParams()
	d := p.Dimensions()

	half := 14 * math.Pi / 180
	gamma := 310 / (2 * 5 * math.Sin(half))
	assert.Equal(t, 310, d.Width)
	assert.InDelta(t, gamma, d.Gamma, 1e-9)
	assert.Equal(t, int(math.Floor(gamma*(5-math.Cos(half))+0.5)), d.Height)
	assert.Equal(t, 516, d.Height)

	p.Bins = 1500
	assert.Equal(t, int(math.RoundToEven(0.1773*1500+309)), p.Dimensions().Width)
}

func TestOversampled(t *testing.T) {
	t.Parallel()

	for beams, want := range map[int]int{13: 49, 48: 189, 25: 97, 96: 381, 128: 509} {
		assert.Equal(t, want, scan.Params{Beams: beams}.Oversampled())
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("unsupported beams", func(t *testing.T) {
		p := smallParams()
		p.Beams = 100
		err := p.Validate()
		require.ErrorIs(t, err, scan.ErrUnsupportedGeometry)

		var ug *scan.UnsupportedGeometryError
		require.True(t, errors.As(err, &ug))
		assert.Equal(t, 100, ug.Beams)
		assert.Equal(t, 397, ug.Oversampled)
		assert.Contains(t, err.Error(), "397")
	})

	t.Run("inverted window", func(t *testing.T) {
		p := smallParams()
		p.MaxRange = 0.5
		assert.ErrorIs(t, p.Validate(), scan.ErrInvalidWindow)
	})

	t.Run("nan window", func(t *testing.T) {
		p := smallParams()
		p.MinRange = math.NaN()
		assert.ErrorIs(t, p.Validate(), scan.ErrInvalidWindow)
	})

	t.Run("no bins", func(t *testing.T) {
		p := smallParams()
		p.Bins = 0
		assert.ErrorIs(t, p.Validate(), scan.ErrInvalidWindow)
	})

	t.Run("ok", func(t *testing.T) {
		assert.NoError(t, smallParams().Validate())
	})
}

func TestNewTable(t *testing.T) {
	t.Parallel()

	p := smallParams()
	tbl, err := scan.NewTable(p)
	require.NoError(t, err)

	assert.Equal(t, 310, tbl.Width)
	assert.Equal(t, 516, tbl.Height)
	assert.Equal(t, 189, tbl.Oversampled)
	assert.Equal(t, tbl.Width*tbl.Height, tbl.Len())
	assert.Equal(t, 4*189, tbl.SourceLen())
	assert.Equal(t, tbl.Len(), tbl.Valid()+tbl.OutsideFan())
	assert.Positive(t, tbl.Valid())
	assert.Positive(t, tbl.OutsideFan())

	for k := 0; k < tbl.Len(); k++ {
		e := tbl.Entry(k)
		if e < 1 || e > tbl.SourceLen() {
			t.Fatalf("entry %d = %d out of [1, %d]", k, e, tbl.SourceLen())
		}
	}

	// The centre column looks straight down the boresight: beam 98 of 189,
	// far bin at the top row and near bin at the bottom.
	center := tbl.Width/2 + 1
	assert.Equal(t, 97*4+4, tbl.At(center, 1))
	assert.Equal(t, 97*4+1, tbl.At(center, tbl.Height))

	// Bottom corners lie outside the fan.
	assert.Equal(t, scan.Sentinel, tbl.At(1, tbl.Height))
	assert.Equal(t, scan.Sentinel, tbl.At(tbl.Width, tbl.Height))
}

func TestNewTableSentinelOutsideFan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    scan.Params
	}{
		{"48 beams", smallParams()},
		{"96 beams", scan.Params{Beams: 96, Bins: 128, MinRange: 0.5, MaxRange: 8, HalfAngleDeg: scan.HalfAngleDeg}},
		{"128 beams", scan.Params{Beams: 128, Bins: 64, MinRange: 2, MaxRange: 12, HalfAngleDeg: scan.HalfAngleDeg}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := tt.p
			tbl, err := scan.NewTable(p)
			require.NoError(t, err)
			lens, ok := scan.LensFor(p.Oversampled())
			require.True(t, ok)

			dims := p.Dimensions()
			m, nout := p.Bins, p.Oversampled()
			c1 := float64(m-1) / (p.MaxRange - p.MinRange)
			halfWidth := float64(dims.Width) / 2
			inside := 0
			for ix := 1; ix <= tbl.Width; ix++ {
				x := (float64(ix-1) - halfWidth) / dims.Gamma
				for iy := 1; iy <= tbl.Height; iy++ {
					y := p.MaxRange - float64(iy-1)/dims.Gamma
					r := math.Sqrt(y*y + x*x)
					theta := (180 / math.Pi) * math.Atan2(x, y)
					bin := math.Floor((r-p.MinRange)*c1 + 1.5)
					beam := lens.BeamIndex(theta)

					want := scan.Sentinel
					if beam > 0 && beam <= float64(nout) && bin > 0 && bin <= float64(m) {
						want = (int(beam)-1)*m + int(bin)
						inside++
					}
					if got := tbl.At(ix, iy); got != want {
						t.Fatalf("At(%d, %d) = %d, want %d (beam %g, bin %g)", ix, iy, got, want, beam, bin)
					}
				}
			}
			assert.Equal(t, inside, tbl.Valid())
			assert.Positive(t, tbl.OutsideFan())
		})
	}
}

func TestNewTableIsDeterministic(t *testing.T) {
	t.Parallel()

	a, err := scan.NewTable(smallParams())
	require.NoError(t, err)
	b, err := scan.NewTable(smallParams())
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	p := smallParams()
	p.MaxRange = 6
	c, err := scan.NewTable(p)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestNewTableRejectsUnsupportedBeams(t *testing.T) {
	t.Parallel()

	p := smallParams()
	p.Beams = 100
	tbl, err := scan.NewTable(p)
	assert.Nil(t, tbl)
	assert.ErrorIs(t, err, scan.ErrUnsupportedGeometry)
}

func TestGather(t *testing.T) {
	t.Parallel()

	tbl, err := scan.NewTable(smallParams())
	require.NoError(t, err)

	src := make([]float64, tbl.SourceLen())
	for i := range src {
		src[i] = float64(i + 1)
	}
	dst := make([]float64, tbl.Len())
	require.NoError(t, tbl.Gather(dst, src))

	for k := 0; k < tbl.Len(); k++ {
		if dst[k] != float64(tbl.Entry(k)) {
			t.Fatalf("dst[%d] = %g, want %d", k, dst[k], tbl.Entry(k))
		}
	}

	assert.Error(t, tbl.Gather(dst[:1], src))
	assert.Error(t, tbl.Gather(dst, src[:1]))
}
