// Package job converts one recording into one video file.
//
// A Job walks a fixed sequence of states:
//
//	Unopened -> HeaderDecoded -> GeometryReady -> Rendering -> Closed
//
// and lands in Failed from any of them. Conversion is a single forward pass
// over the source; frames are rendered and written in file order.
package job

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/banshee-data/aris2video/internal/aris"
	"github.com/banshee-data/aris2video/internal/catalog"
	"github.com/banshee-data/aris2video/internal/fsutil"
	"github.com/banshee-data/aris2video/internal/monitoring"
	"github.com/banshee-data/aris2video/internal/render"
	"github.com/banshee-data/aris2video/internal/scan"
	"github.com/banshee-data/aris2video/internal/timeutil"
	"github.com/banshee-data/aris2video/internal/video"
)

var (
	// ErrJobFinished is returned by Convert on a job that already ran.
	ErrJobFinished = errors.New("job: conversion already ran")
	// ErrSourceNotFound is returned when the input recording does not exist.
	ErrSourceNotFound = errors.New("job: source recording not found")
)

// State is the lifecycle position of a Job.
type State int

const (
	Unopened State = iota
	HeaderDecoded
	GeometryReady
	Rendering
	Closed
	Failed
)

func (s State) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case HeaderDecoded:
		return "header_decoded"
	case GeometryReady:
		return "geometry_ready"
	case Rendering:
		return "rendering"
	case Closed:
		return "closed"
	case Failed:
		return "failed"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// SinkFactory creates the video sink for an output path.
type SinkFactory func(path, codec string, fsys fsutil.FileSystem) video.Sink

// Catalog receives job bookkeeping. *catalog.Catalog implements it.
type Catalog interface {
	StartJob(r catalog.Run) (string, error)
	SaveHeader(id string, rec *aris.Record) error
	SetGeometry(id string, r catalog.Run) error
	FinishJob(id, status string, rendered int, jobErr error) error
}

// FrameObserver sees every rendered raster. *report.Collector implements it.
type FrameObserver interface {
	Observe(index int, img *image.Gray)
}

// Job converts Input into Output. A Job runs at most once.
type Job struct {
	Input  string
	Output string

	codec        string
	fs           fsutil.FileSystem
	log          *zap.Logger
	newSink      SinkFactory
	metrics      *monitoring.Metrics
	catalog      Catalog
	clock        timeutil.Clock
	renderOpts   []render.Option
	observer     FrameObserver
	frameHeaders bool

	mu       sync.Mutex
	started  bool
	state    State
	rendered int
	total    int
	id       string
	err      error
}

// Option configures a Job.
type Option func(*Job)

// WithLogger sets the job logger. The default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(j *Job) {
		if l != nil {
			j.log = l
		}
	}
}

// WithFileSystem sets the filesystem the source is read from and partial
// outputs are removed through.
func WithFileSystem(fsys fsutil.FileSystem) Option {
	return func(j *Job) { j.fs = fsys }
}

// WithCodec sets the output fourcc.
func WithCodec(codec string) Option {
	return func(j *Job) { j.codec = codec }
}

// WithSinkFactory replaces the sink chosen from the output extension.
func WithSinkFactory(f SinkFactory) Option {
	return func(j *Job) { j.newSink = f }
}

// WithMetrics records conversion metrics into m.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(j *Job) { j.metrics = m }
}

// WithCatalog records the job in c.
func WithCatalog(c Catalog) Option {
	return func(j *Job) { j.catalog = c }
}

// WithClock sets the clock used for durations.
func WithClock(c timeutil.Clock) Option {
	return func(j *Job) { j.clock = c }
}

// WithRenderOptions passes options to the frame renderer.
func WithRenderOptions(opts ...render.Option) Option {
	return func(j *Job) { j.renderOpts = append(j.renderOpts, opts...) }
}

// WithObserver hands every rendered raster to o.
func WithObserver(o FrameObserver) Option {
	return func(j *Job) { j.observer = o }
}

// WithFrameHeaders decodes every frame header instead of skipping it, so
// range window changes after frame 0 are logged.
func WithFrameHeaders(decode bool) Option {
	return func(j *Job) { j.frameHeaders = decode }
}

// New returns an unopened job.
func New(input, output string, opts ...Option) *Job {
	j := &Job{
		Input:  input,
		Output: output,
		codec:  video.DefaultCodec,
		fs:     fsutil.OSFileSystem{},
		log:    zap.NewNop(),
		clock:  timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.newSink == nil {
		j.newSink = func(path, codec string, fsys fsutil.FileSystem) video.Sink {
			return video.New(path, codec, fsys)
		}
	}
	j.log = j.log.With(zap.String("input", input), zap.String("output", output))
	return j
}

// State returns the current state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Progress returns frames written so far and the frame count of the source.
func (j *Job) Progress() (rendered, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.rendered, j.total
}

// Err returns the error the job failed with.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// ID returns the catalog id, empty when no catalog is attached.
func (j *Job) ID() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.id
}

func (j *Job) setState(s State) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
	j.log.Debug("job state", zap.Stringer("state", s))
}

// Convert runs the conversion.
func (j *Job) Convert() error {
	return j.ConvertContext(context.Background())
}

// ConvertContext runs the conversion, stopping between frames once ctx is
// done. A cancelled job fails and its partial output is removed.
func (j *Job) ConvertContext(ctx context.Context) error {
	j.mu.Lock()
	if j.started {
		j.mu.Unlock()
		return ErrJobFinished
	}
	j.started = true
	j.mu.Unlock()

	start := j.clock.Now()
	j.metrics.JobStarted()
	defer j.metrics.JobDone()

	j.catalogStart()
	err := j.run(ctx)

	status := catalog.StatusClosed
	if err != nil {
		status = catalog.StatusFailed
		j.mu.Lock()
		j.err = err
		j.mu.Unlock()
		j.setState(Failed)
	} else {
		j.setState(Closed)
	}

	rendered, total := j.Progress()
	elapsed := j.clock.Since(start)
	j.metrics.RecordJob(status, Reason(err), elapsed)
	j.catalogFinish(status, rendered, err)

	if err != nil {
		j.log.Error("conversion failed",
			zap.Error(err), zap.String("reason", Reason(err)),
			zap.Int("frames_rendered", rendered), zap.Int("frames_total", total))
		return err
	}
	j.log.Info("conversion finished",
		zap.Int("frames", rendered), zap.Duration("elapsed", elapsed))
	return nil
}

func (j *Job) run(ctx context.Context) error {
	f, err := j.fs.Open(j.Input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, j.Input)
		}
		return fmt.Errorf("job: open %s: %w", j.Input, err)
	}
	defer f.Close()
	src := bufio.NewReaderSize(f, 1<<16)

	h, err := aris.ReadHeaders(src)
	if err != nil {
		return err
	}
	if err := h.Validate(); err != nil {
		return err
	}
	j.mu.Lock()
	j.total = int(h.File.NumFrames)
	j.mu.Unlock()
	j.setState(HeaderDecoded)
	j.catalogHeader(h)

	p := scan.ParamsFromHeaders(h)
	if err := p.Validate(); err != nil {
		return err
	}
	tableStart := j.clock.Now()
	table, err := scan.NewTable(p)
	if err != nil {
		return err
	}
	j.metrics.RecordTable(table.Valid(), table.OutsideFan(), j.clock.Since(tableStart))
	renderer := render.NewRenderer(table, j.renderOpts...)

	format := video.Format{
		Codec:     j.codec,
		FrameRate: h.Frame0.FrameRate,
		Width:     table.Width,
		Height:    table.Height,
	}
	if err := format.Validate(); err != nil {
		return err
	}
	j.setState(GeometryReady)
	j.catalogGeometry(h, format, table)
	j.log.Info("geometry ready",
		zap.Int("beams", p.Beams), zap.Int("bins", p.Bins),
		zap.Float64("min_range_m", p.MinRange), zap.Float64("max_range_m", p.MaxRange),
		zap.Int("width", table.Width), zap.Int("height", table.Height),
		zap.Int("fan_pixels", table.Valid()), zap.Float64("frame_rate", format.FrameRate),
		zap.Int("frames", int(h.File.NumFrames)))

	sink := j.newSink(j.Output, j.codec, j.fs)
	if err := sink.Open(format); err != nil {
		sink.Close()
		j.removeOutput()
		return fmt.Errorf("job: open %s: %w", j.Output, err)
	}
	j.setState(Rendering)

	err = j.renderAll(ctx, h, h.Resume(src), renderer, sink)
	if cerr := sink.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("job: close %s: %w", j.Output, cerr)
	}
	if err != nil {
		j.removeOutput()
	}
	return err
}

func (j *Job) renderAll(ctx context.Context, h *aris.Headers, r io.Reader, renderer *render.Renderer, sink video.Sink) error {
	fr := aris.NewFrameReader(r, h, aris.WithFrameHeaders(j.frameHeaders))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := fr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if frame.Header != nil && windowChanged(frame.Header, &h.Frame0) {
			j.log.Warn("range window differs from frame 0; rendering with frame 0 geometry",
				zap.Int("frame", frame.Index),
				zap.Float64("window_start", frame.Header.WindowStart),
				zap.Float64("window_length", frame.Header.WindowLength))
		}

		t := j.clock.Now()
		gray, err := renderer.Render(frame)
		if err != nil {
			return err
		}
		if err := sink.WriteFrame(render.Promote(gray)); err != nil {
			return fmt.Errorf("job: write frame %d: %w", frame.Index, err)
		}
		if j.observer != nil {
			j.observer.Observe(frame.Index, gray)
		}
		j.metrics.RecordFrame(len(frame.Samples), j.clock.Since(t))

		j.mu.Lock()
		j.rendered = frame.Index + 1
		j.mu.Unlock()
	}
}

func windowChanged(fh, frame0 *aris.FrameHeader) bool {
	return fh.WindowStart != frame0.WindowStart || fh.WindowLength != frame0.WindowLength
}

func (j *Job) removeOutput() {
	if err := j.fs.Remove(j.Output); err != nil && !errors.Is(err, fs.ErrNotExist) {
		j.log.Warn("could not remove partial output", zap.Error(err))
	}
}

// catalogStart registers the job. Catalog failures are logged and never fail
// a conversion.
func (j *Job) catalogStart() {
	if j.catalog == nil {
		return
	}
	id, err := j.catalog.StartJob(catalog.Run{Input: j.Input, Output: j.Output})
	if err != nil {
		j.log.Warn("catalog start failed", zap.Error(err))
		return
	}
	j.mu.Lock()
	j.id = id
	j.mu.Unlock()
	j.log = j.log.With(zap.String("job_id", id))
}

func (j *Job) catalogHeader(h *aris.Headers) {
	id := j.ID()
	if id == "" || h.File.Raw == nil {
		return
	}
	if err := j.catalog.SaveHeader(id, h.File.Raw); err != nil {
		j.log.Warn("catalog header failed", zap.Error(err))
	}
}

func (j *Job) catalogGeometry(h *aris.Headers, f video.Format, t *scan.Table) {
	id := j.ID()
	if id == "" {
		return
	}
	err := j.catalog.SetGeometry(id, catalog.Run{
		FramesTotal: int(h.File.NumFrames),
		Beams:       int(h.File.NumBeams),
		Bins:        int(h.File.SamplesPerChannel),
		Width:       f.Width,
		Height:      f.Height,
		FrameRate:   f.FrameRate,
		TableHash:   strconv.FormatUint(t.Fingerprint(), 16),
	})
	if err != nil {
		j.log.Warn("catalog geometry failed", zap.Error(err))
	}
}

func (j *Job) catalogFinish(status string, rendered int, jobErr error) {
	id := j.ID()
	if id == "" {
		return
	}
	if err := j.catalog.FinishJob(id, status, rendered, jobErr); err != nil {
		j.log.Warn("catalog finish failed", zap.Error(err))
	}
}

// Reason classifies err into a short label for metrics and logs. It is
// empty for nil.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSourceNotFound):
		return "source_not_found"
	case errors.Is(err, aris.ErrTruncatedHeader):
		return "truncated_header"
	case errors.Is(err, aris.ErrTruncatedPayload):
		return "truncated_payload"
	case errors.Is(err, aris.ErrVersionMismatch):
		return "version_mismatch"
	case errors.Is(err, aris.ErrUnknownFormat):
		return "unknown_format"
	case errors.Is(err, scan.ErrUnsupportedGeometry):
		return "unsupported_geometry"
	case errors.Is(err, scan.ErrInvalidWindow):
		return "invalid_window"
	case errors.Is(err, video.ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "other"
}
