// Package report accumulates per-frame statistics of rendered video frames
// and writes them as a PNG plot or an interactive HTML chart.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/aris2video/internal/fsutil"
)

// ErrNoFrames is returned when a report is written before any frame was
// observed.
var ErrNoFrames = errors.New("report: no frames observed")

// echartsAssetsPrefix is where the HTML report loads the echarts runtime.
const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// FrameStats summarises one rendered frame.
type FrameStats struct {
	Index int
	Mean  float64
	Max   uint8
	// ZeroFraction is the share of pixels with value 0.
	ZeroFraction float64
}

// Collector records FrameStats as frames are rendered. It is safe for
// concurrent use.
type Collector struct {
	mu     sync.Mutex
	title  string
	frames []FrameStats
}

// NewCollector returns an empty collector. title labels the written
// reports, typically the input file name.
func NewCollector(title string) *Collector {
	return &Collector{title: title}
}

// Observe records the statistics of frame index.
func (c *Collector) Observe(index int, img *image.Gray) {
	if c == nil || img == nil {
		return
	}
	s := Summarise(img)
	s.Index = index

	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, s)
}

// Summarise computes the statistics of one raster.
func Summarise(img *image.Gray) FrameStats {
	var s FrameStats
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return s
	}
	var sum, zeros int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y) : img.PixOffset(b.Min.X, y)+b.Dx()]
		for _, v := range row {
			sum += int(v)
			if v > s.Max {
				s.Max = v
			}
			if v == 0 {
				zeros++
			}
		}
	}
	s.Mean = float64(sum) / float64(n)
	s.ZeroFraction = float64(zeros) / float64(n)
	return s
}

// Frames returns a copy of the observed statistics in observation order.
func (c *Collector) Frames() []FrameStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]FrameStats, len(c.frames))
	copy(out, c.frames)
	return out
}

// Title returns the report title.
func (c *Collector) Title() string {
	return c.title
}

// WritePNG plots mean, max and zero fraction per frame into a PNG file.
func (c *Collector) WritePNG(fsys fsutil.FileSystem, path string) error {
	frames := c.Frames()
	if len(frames) == 0 {
		return ErrNoFrames
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - frame statistics", c.title)
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Amplitude"

	mean := make(plotter.XYs, len(frames))
	peak := make(plotter.XYs, len(frames))
	zero := make(plotter.XYs, len(frames))
	for i, s := range frames {
		x := float64(s.Index)
		mean[i] = plotter.XY{X: x, Y: s.Mean}
		peak[i] = plotter.XY{X: x, Y: float64(s.Max)}
		// Scaled onto the amplitude axis so all series share one plot.
		zero[i] = plotter.XY{X: x, Y: s.ZeroFraction * 255}
	}

	series := []struct {
		label string
		pts   plotter.XYs
		color color.Color
	}{
		{"mean", mean, color.RGBA{R: 31, G: 119, B: 180, A: 255}},
		{"max", peak, color.RGBA{R: 214, G: 39, B: 40, A: 255}},
		{"zero fraction x255", zero, color.RGBA{R: 44, G: 160, B: 44, A: 255}},
	}
	for _, s := range series {
		line, err := plotter.NewLine(s.pts)
		if err != nil {
			return err
		}
		line.Color = s.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.label, line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("report: png canvas: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return fmt.Errorf("report: render png: %w", err)
	}
	return writeFile(fsys, path, buf.Bytes())
}

// WriteHTML renders the same series as an interactive go-echarts page.
func (c *Collector) WriteHTML(fsys fsutil.FileSystem, path string) error {
	frames := c.Frames()
	if len(frames) == 0 {
		return ErrNoFrames
	}

	x := make([]int, len(frames))
	mean := make([]opts.LineData, len(frames))
	peak := make([]opts.LineData, len(frames))
	zero := make([]opts.LineData, len(frames))
	for i, s := range frames {
		x[i] = s.Index
		mean[i] = opts.LineData{Value: s.Mean}
		peak[i] = opts.LineData{Value: s.Max}
		zero[i] = opts.LineData{Value: s.ZeroFraction}
	}

	amp := charts.NewLine()
	amp.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: c.title, Width: "100%", Height: "480px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Frame amplitude", Subtitle: fmt.Sprintf("%s frames=%d", c.title, len(frames))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Amplitude", Min: 0, Max: 255}),
	)
	amp.SetXAxis(x).
		AddSeries("mean", mean).
		AddSeries("max", peak)

	cov := charts.NewLine()
	cov.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Zero fraction"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	cov.SetXAxis(x).AddSeries("zero fraction", zero)

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.AddCharts(amp, cov)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("report: render html: %w", err)
	}
	return writeFile(fsys, path, buf.Bytes())
}

// Save writes <dir>/<base>.png and <dir>/<base>.html.
func (c *Collector) Save(fsys fsutil.FileSystem, dir, base string) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: create %s: %w", dir, err)
	}
	if err := c.WritePNG(fsys, filepath.Join(dir, base+".png")); err != nil {
		return err
	}
	return c.WriteHTML(fsys, filepath.Join(dir, base+".html"))
}

func writeFile(fsys fsutil.FileSystem, path string, data []byte) error {
	if err := fsys.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
