// Package config loads conversion settings from JSON or YAML files.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/aris2video/internal/fsutil"
	"github.com/banshee-data/aris2video/internal/monitoring"
	"github.com/banshee-data/aris2video/internal/video"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// ConvertConfig holds conversion settings. Every field is optional; the Get
// methods supply defaults for fields a file leaves out, so partial configs
// are safe. Command-line flags override file values.
type ConvertConfig struct {
	// Output
	Codec      *string `json:"codec,omitempty" yaml:"codec,omitempty"` // fourcc, e.g. "XVID"
	FFmpegPath *string `json:"ffmpeg_path,omitempty" yaml:"ffmpeg_path,omitempty"`

	// Rendering
	BlankSentinel      *bool `json:"blank_sentinel,omitempty" yaml:"blank_sentinel,omitempty"`
	DecodeFrameHeaders *bool `json:"decode_frame_headers,omitempty" yaml:"decode_frame_headers,omitempty"`

	// Batch
	Workers *int `json:"workers,omitempty" yaml:"workers,omitempty"`

	// Side outputs
	CatalogPath     *string `json:"catalog_path,omitempty" yaml:"catalog_path,omitempty"`
	MetricsTextfile *string `json:"metrics_textfile,omitempty" yaml:"metrics_textfile,omitempty"`
	ReportDir       *string `json:"report_dir,omitempty" yaml:"report_dir,omitempty"`

	// Logging
	LogLevel  *string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	LogFormat *string `json:"log_format,omitempty" yaml:"log_format,omitempty"`
	LogPath   *string `json:"log_path,omitempty" yaml:"log_path,omitempty"`
}

// Helper functions to create pointers
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyConvertConfig returns a ConvertConfig with all fields set to nil.
func EmptyConvertConfig() *ConvertConfig {
	return &ConvertConfig{}
}

// LoadConvertConfig reads a .json, .yaml or .yml config file from fsys.
func LoadConvertConfig(fsys fsutil.FileSystem, path string) (*ConvertConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	info, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConvertConfig()
	if ext == ".json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *ConvertConfig) Validate() error {
	if c.Codec != nil {
		if _, ok := video.EncoderFor(*c.Codec); !ok {
			return fmt.Errorf("unsupported codec %q", *c.Codec)
		}
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	if c.LogFormat != nil {
		switch *c.LogFormat {
		case "json", "console":
		default:
			return fmt.Errorf("log_format must be json or console, got %q", *c.LogFormat)
		}
	}
	return nil
}

// Merge returns a copy of c with every field set in o taking precedence.
func (c *ConvertConfig) Merge(o *ConvertConfig) *ConvertConfig {
	out := *c
	if o == nil {
		return &out
	}
	if o.Codec != nil {
		out.Codec = o.Codec
	}
	if o.FFmpegPath != nil {
		out.FFmpegPath = o.FFmpegPath
	}
	if o.BlankSentinel != nil {
		out.BlankSentinel = o.BlankSentinel
	}
	if o.DecodeFrameHeaders != nil {
		out.DecodeFrameHeaders = o.DecodeFrameHeaders
	}
	if o.Workers != nil {
		out.Workers = o.Workers
	}
	if o.CatalogPath != nil {
		out.CatalogPath = o.CatalogPath
	}
	if o.MetricsTextfile != nil {
		out.MetricsTextfile = o.MetricsTextfile
	}
	if o.ReportDir != nil {
		out.ReportDir = o.ReportDir
	}
	if o.LogLevel != nil {
		out.LogLevel = o.LogLevel
	}
	if o.LogFormat != nil {
		out.LogFormat = o.LogFormat
	}
	if o.LogPath != nil {
		out.LogPath = o.LogPath
	}
	return &out
}

// GetCodec returns the codec fourcc or the default.
func (c *ConvertConfig) GetCodec() string {
	if c.Codec == nil || *c.Codec == "" {
		return video.DefaultCodec
	}
	return strings.ToUpper(*c.Codec)
}

// GetFFmpegPath returns the ffmpeg executable or the default.
func (c *ConvertConfig) GetFFmpegPath() string {
	if c.FFmpegPath == nil || *c.FFmpegPath == "" {
		return "ffmpeg"
	}
	return *c.FFmpegPath
}

// GetBlankSentinel returns the blank_sentinel value or the default.
func (c *ConvertConfig) GetBlankSentinel() bool {
	if c.BlankSentinel == nil {
		return false // default: out-of-fan pixels show the first sample
	}
	return *c.BlankSentinel
}

// GetDecodeFrameHeaders returns the decode_frame_headers value or the default.
func (c *ConvertConfig) GetDecodeFrameHeaders() bool {
	if c.DecodeFrameHeaders == nil {
		return false
	}
	return *c.DecodeFrameHeaders
}

// GetWorkers returns the batch worker count or the default.
func (c *ConvertConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

// GetCatalogPath returns the catalog database path; empty disables it.
func (c *ConvertConfig) GetCatalogPath() string {
	if c.CatalogPath == nil {
		return ""
	}
	return *c.CatalogPath
}

// GetMetricsTextfile returns the metrics textfile path; empty disables it.
func (c *ConvertConfig) GetMetricsTextfile() string {
	if c.MetricsTextfile == nil {
		return ""
	}
	return *c.MetricsTextfile
}

// GetReportDir returns the report directory; empty disables reports.
func (c *ConvertConfig) GetReportDir() string {
	if c.ReportDir == nil {
		return ""
	}
	return *c.ReportDir
}

// LogConfig returns the logger settings.
func (c *ConvertConfig) LogConfig() monitoring.LogConfig {
	lc := monitoring.LogConfig{Level: "info", Format: "console"}
	if c.LogLevel != nil {
		lc.Level = *c.LogLevel
	}
	if c.LogFormat != nil {
		lc.Format = *c.LogFormat
	}
	if c.LogPath != nil {
		lc.OutputPath = *c.LogPath
	}
	return lc
}
