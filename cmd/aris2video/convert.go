package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/banshee-data/aris2video/internal/catalog"
	"github.com/banshee-data/aris2video/internal/config"
	"github.com/banshee-data/aris2video/internal/fsutil"
	"github.com/banshee-data/aris2video/internal/job"
	"github.com/banshee-data/aris2video/internal/monitoring"
	"github.com/banshee-data/aris2video/internal/render"
	"github.com/banshee-data/aris2video/internal/report"
	"github.com/banshee-data/aris2video/internal/security"
	"github.com/banshee-data/aris2video/internal/video"
)

type convertFlags struct {
	configPath      string
	codec           string
	ffmpeg          string
	blankSentinel   bool
	frameHeaders    bool
	workers         int
	catalogPath     string
	metricsTextfile string
	reportDir       string
	logLevel        string
	logFormat       string
	logPath         string
}

func newConvertCmd(fsys fsutil.FileSystem) *cobra.Command {
	var f convertFlags

	cmd := &cobra.Command{
		Use:   "convert [flags] INPUT OUTPUT [INPUT OUTPUT ...]",
		Short: "Render recordings to video files",
		Long: `Render each INPUT recording to its OUTPUT video. Outputs ending in .y4m are
written as uncompressed YUV4MPEG2; anything else is encoded by ffmpeg.

Several pairs may be given; they are converted independently with up to
--workers running at once.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("convert takes INPUT OUTPUT pairs, got %d arguments", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.resolve(cmd, fsys)
			if err != nil {
				return err
			}
			return runConvert(cmd, fsys, cfg, args)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "JSON or YAML config file")
	fl.StringVar(&f.codec, "codec", video.DefaultCodec, "output fourcc for ffmpeg outputs")
	fl.StringVar(&f.ffmpeg, "ffmpeg", "ffmpeg", "ffmpeg executable")
	fl.BoolVar(&f.blankSentinel, "blank-sentinel", false, "render pixels outside the fan black")
	fl.BoolVar(&f.frameHeaders, "frame-headers", false, "decode every frame header and warn on range window changes")
	fl.IntVarP(&f.workers, "workers", "w", 1, "concurrent conversions")
	fl.StringVar(&f.catalogPath, "catalog", "", "SQLite job catalog to record conversions in")
	fl.StringVar(&f.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file when done")
	fl.StringVar(&f.reportDir, "report-dir", "", "write per-recording frame statistics (PNG and HTML) here")
	fl.StringVar(&f.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fl.StringVar(&f.logFormat, "log-format", "console", "log encoding (console, json)")
	fl.StringVar(&f.logPath, "log-path", "", "log destination (default stderr)")
	return cmd
}

// resolve loads the config file, if any, and applies explicitly set flags
// over it.
func (f *convertFlags) resolve(cmd *cobra.Command, fsys fsutil.FileSystem) (*config.ConvertConfig, error) {
	cfg := config.EmptyConvertConfig()
	if f.configPath != "" {
		loaded, err := config.LoadConvertConfig(fsys, f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fl := cmd.Flags()
	o := config.EmptyConvertConfig()
	if fl.Changed("codec") {
		o.Codec = &f.codec
	}
	if fl.Changed("ffmpeg") {
		o.FFmpegPath = &f.ffmpeg
	}
	if fl.Changed("blank-sentinel") {
		o.BlankSentinel = &f.blankSentinel
	}
	if fl.Changed("frame-headers") {
		o.DecodeFrameHeaders = &f.frameHeaders
	}
	if fl.Changed("workers") {
		o.Workers = &f.workers
	}
	if fl.Changed("catalog") {
		o.CatalogPath = &f.catalogPath
	}
	if fl.Changed("metrics-textfile") {
		o.MetricsTextfile = &f.metricsTextfile
	}
	if fl.Changed("report-dir") {
		o.ReportDir = &f.reportDir
	}
	if fl.Changed("log-level") {
		o.LogLevel = &f.logLevel
	}
	if fl.Changed("log-format") {
		o.LogFormat = &f.logFormat
	}
	if fl.Changed("log-path") {
		o.LogPath = &f.logPath
	}

	cfg = cfg.Merge(o)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func runConvert(cmd *cobra.Command, fsys fsutil.FileSystem, cfg *config.ConvertConfig, args []string) error {
	pairs := make([]security.Pair, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs = append(pairs, security.Pair{Input: args[i], Output: args[i+1]})
	}
	if err := security.CheckPairs(pairs); err != nil {
		return err
	}

	logger, err := monitoring.NewLogger(cfg.LogConfig())
	if err != nil {
		return err
	}
	defer logger.Sync()
	monitoring.UseZap(logger)
	defer monitoring.SetLogger(nil)

	metrics := monitoring.NewMetrics()
	ffmpeg := cfg.GetFFmpegPath()
	opts := []job.Option{
		job.WithLogger(logger),
		job.WithFileSystem(fsys),
		job.WithCodec(cfg.GetCodec()),
		job.WithMetrics(metrics),
		job.WithFrameHeaders(cfg.GetDecodeFrameHeaders()),
		job.WithRenderOptions(render.WithBlankSentinel(cfg.GetBlankSentinel())),
		job.WithSinkFactory(func(path, codec string, fsys fsutil.FileSystem) video.Sink {
			return video.New(path, codec, fsys, video.WithFFmpegBinary(ffmpeg))
		}),
	}

	if path := cfg.GetCatalogPath(); path != "" {
		cat, err := catalog.Open(path)
		if err != nil {
			return err
		}
		defer cat.Close()
		opts = append(opts, job.WithCatalog(cat))
	}

	reportDir := cfg.GetReportDir()
	jobs := make([]*job.Job, 0, len(pairs))
	collectors := make([]*report.Collector, 0, len(pairs))
	for _, p := range pairs {
		jobOpts := opts
		var c *report.Collector
		if reportDir != "" {
			c = report.NewCollector(filepath.Base(p.Input))
			jobOpts = append(append([]job.Option(nil), opts...), job.WithObserver(c))
		}
		jobs = append(jobs, job.New(p.Input, p.Output, jobOpts...))
		collectors = append(collectors, c)
	}

	batchErr := job.RunBatch(cmd.Context(), jobs, cfg.GetWorkers())

	out := cmd.OutOrStdout()
	var errs []error
	for i, j := range jobs {
		rendered, total := j.Progress()
		fmt.Fprintf(out, "%s -> %s: %s (%d/%d frames)\n", j.Input, j.Output, j.State(), rendered, total)

		if c := collectors[i]; c != nil && j.State() == job.Closed {
			if err := saveReport(fsys, c, reportDir, j.Input); err != nil {
				logger.Warn("report failed", zap.String("input", j.Input), zap.Error(err))
				errs = append(errs, err)
			}
		}
	}

	if path := cfg.GetMetricsTextfile(); path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	return errors.Join(append([]error{batchErr}, errs...)...)
}

// saveReport writes the PNG and HTML statistics of input into dir under a
// sanitised stem of the input name.
func saveReport(fsys fsutil.FileSystem, c *report.Collector, dir, input string) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	base := security.SanitizeFilename(strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)))
	if err := security.WithinDirectory(filepath.Join(dir, base+".html"), dir); err != nil {
		return err
	}
	return c.Save(fsys, dir, base)
}
