package config

import (
	"strings"
	"testing"

	"github.com/banshee-data/aris2video/internal/fsutil"
)

func TestEmptyConvertConfigDefaults(t *testing.T) {
	cfg := EmptyConvertConfig()

	if cfg.GetCodec() != "XVID" {
		t.Errorf("GetCodec() = %q, want XVID", cfg.GetCodec())
	}
	if cfg.GetFFmpegPath() != "ffmpeg" {
		t.Errorf("GetFFmpegPath() = %q, want ffmpeg", cfg.GetFFmpegPath())
	}
	if cfg.GetBlankSentinel() {
		t.Error("GetBlankSentinel() = true, want false")
	}
	if cfg.GetDecodeFrameHeaders() {
		t.Error("GetDecodeFrameHeaders() = true, want false")
	}
	if cfg.GetWorkers() != 1 {
		t.Errorf("GetWorkers() = %d, want 1", cfg.GetWorkers())
	}
	if cfg.GetCatalogPath() != "" || cfg.GetReportDir() != "" || cfg.GetMetricsTextfile() != "" {
		t.Error("side outputs should default to disabled")
	}
	if lc := cfg.LogConfig(); lc.Level != "info" || lc.Format != "console" {
		t.Errorf("LogConfig() = %+v", lc)
	}
}

func TestLoadConvertConfigJSON(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	_ = mfs.WriteFile("/etc/aris2video.json", []byte(`{
  "codec": "mjpg",
  "blank_sentinel": true,
  "workers": 4,
  "catalog_path": "/var/lib/aris2video/catalog.db",
  "log_format": "json"
}`), 0o644)

	cfg, err := LoadConvertConfig(mfs, "/etc/aris2video.json")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetCodec() != "MJPG" {
		t.Errorf("GetCodec() = %q, want MJPG", cfg.GetCodec())
	}
	if !cfg.GetBlankSentinel() {
		t.Error("expected blank_sentinel true")
	}
	if cfg.GetWorkers() != 4 {
		t.Errorf("GetWorkers() = %d, want 4", cfg.GetWorkers())
	}
	if cfg.GetCatalogPath() != "/var/lib/aris2video/catalog.db" {
		t.Errorf("GetCatalogPath() = %q", cfg.GetCatalogPath())
	}
	if cfg.LogConfig().Format != "json" {
		t.Errorf("LogConfig().Format = %q, want json", cfg.LogConfig().Format)
	}
	// Omitted fields keep their defaults.
	if cfg.GetDecodeFrameHeaders() {
		t.Error("expected decode_frame_headers default false")
	}
}

func TestLoadConvertConfigYAML(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	_ = mfs.WriteFile("/cfg.yaml", []byte(`
codec: XVID
decode_frame_headers: true
report_dir: /tmp/reports
metrics_textfile: /var/lib/node_exporter/aris2video.prom
log_level: debug
`), 0o644)

	cfg, err := LoadConvertConfig(mfs, "/cfg.yaml")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.GetDecodeFrameHeaders() {
		t.Error("expected decode_frame_headers true")
	}
	if cfg.GetReportDir() != "/tmp/reports" {
		t.Errorf("GetReportDir() = %q", cfg.GetReportDir())
	}
	if cfg.GetMetricsTextfile() != "/var/lib/node_exporter/aris2video.prom" {
		t.Errorf("GetMetricsTextfile() = %q", cfg.GetMetricsTextfile())
	}
	if cfg.LogConfig().Level != "debug" {
		t.Errorf("LogConfig().Level = %q", cfg.LogConfig().Level)
	}

	// An empty YAML document is a valid, all-default config.
	_ = mfs.WriteFile("/empty.yml", nil, 0o644)
	if _, err := LoadConvertConfig(mfs, "/empty.yml"); err != nil {
		t.Errorf("empty YAML: %v", err)
	}
}

func TestLoadConvertConfigErrors(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	_ = mfs.WriteFile("/cfg.toml", []byte(`codec = "XVID"`), 0o644)
	_ = mfs.WriteFile("/bad.json", []byte(`{"codec": `), 0o644)
	_ = mfs.WriteFile("/unknown.yaml", []byte("colour: blue\n"), 0o644)
	_ = mfs.WriteFile("/unknown.json", []byte(`{"blank_sentinal": true}`), 0o644)
	_ = mfs.WriteFile("/workers.json", []byte(`{"workers": 0}`), 0o644)
	_ = mfs.WriteFile("/codec.json", []byte(`{"codec": "WMV9"}`), 0o644)
	_ = mfs.WriteFile("/big.json", []byte(strings.Repeat(" ", maxFileSize+1)), 0o644)

	tests := []struct {
		path string
		want string
	}{
		{"/cfg.toml", "extension"},
		{"/missing.json", "stat"},
		{"/bad.json", "parse config JSON"},
		{"/unknown.yaml", "parse config YAML"},
		{"/unknown.json", "unknown field \"blank_sentinal\""},
		{"/workers.json", "workers must be at least 1"},
		{"/codec.json", "unsupported codec"},
		{"/big.json", "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := LoadConvertConfig(mfs, tt.path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadConvertConfig(%s) error = %v, want containing %q", tt.path, err, tt.want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := &ConvertConfig{Codec: ptrString("XVID"), Workers: ptrInt(2)}
	override := &ConvertConfig{Workers: ptrInt(8), BlankSentinel: ptrBool(true)}

	got := base.Merge(override)
	if got.GetCodec() != "XVID" || got.GetWorkers() != 8 || !got.GetBlankSentinel() {
		t.Errorf("Merge produced codec=%s workers=%d blank=%v", got.GetCodec(), got.GetWorkers(), got.GetBlankSentinel())
	}
	if base.GetWorkers() != 2 {
		t.Error("Merge modified the receiver")
	}
	if base.Merge(nil).GetWorkers() != 2 {
		t.Error("Merge(nil) should copy the receiver")
	}
}

func TestValidateLogFormat(t *testing.T) {
	cfg := &ConvertConfig{LogFormat: ptrString("xml")}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for log_format xml")
	}
}
