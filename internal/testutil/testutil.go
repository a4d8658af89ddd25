// Package testutil provides shared test utilities and fixtures.
//
// The main fixture is a synthetic version 5 recording built from the real
// header layouts, so decoder, renderer and job tests all exercise the same
// bytes.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/aris2video/internal/aris"
)

// Recording describes a synthetic recording.
type Recording struct {
	Tag          string
	Version      int
	Frames       int
	Beams        int
	Bins         int
	WindowStart  float64
	WindowLength float64
	FrameRate    float64

	// Sample returns the amplitude for a cell. Nil uses Pattern.
	Sample func(frame, bin, beam int) uint8

	// FileFields and FrameFields override or add header values by field name.
	FileFields  map[string]any
	FrameFields map[string]any

	// TrailingFrameHeader appends one more frame header with no payload, as
	// found in recordings that were stopped before their first ping.
	TrailingFrameHeader bool

	// Truncate drops this many bytes from the end of the encoded file.
	Truncate int
}

// SmallRecording returns the minimal 48-beam recording used across tests:
// 4 range bins, 2 frames, a 1 m to 5 m window at 5 frames per second.
func SmallRecording() Recording {
	return Recording{
		Tag:          aris.FormatTag,
		Version:      aris.SupportedVersion,
		Frames:       2,
		Beams:        48,
		Bins:         4,
		WindowStart:  1,
		WindowLength: 4,
		FrameRate:    5,
	}
}

// Pattern is the default deterministic sample generator.
func Pattern(frame, bin, beam int) uint8 {
	return uint8((frame*31 + bin*7 + beam*3) % 256)
}

// FileHeader encodes only the file header.
func (r Recording) FileHeader(t testing.TB) []byte {
	t.Helper()
	values := map[string]any{
		"type":             r.Tag,
		"version":          r.Version,
		"numframes":        r.Frames,
		"numbeams":         r.Beams,
		"sampleperchannel": r.Bins,
		"windowstart":      r.WindowStart,
		"windowlength":     r.WindowLength,
	}
	for k, v := range r.FileFields {
		values[k] = v
	}
	b, err := aris.FileHeaderSchema.Encode(values)
	if err != nil {
		t.Fatalf("encode file header: %v", err)
	}
	return b
}

// FrameHeader encodes the header of frame i.
func (r Recording) FrameHeader(t testing.TB, i int) []byte {
	t.Helper()
	values := map[string]any{
		"framenumber":    i,
		"version":        r.Version,
		"windowstart":    r.WindowStart,
		"windowlength":   r.WindowLength,
		"framerate":      r.FrameRate,
		"samplesperbeam": r.Bins,
	}
	for k, v := range r.FrameFields {
		values[k] = v
	}
	b, err := aris.FrameHeaderSchema.Encode(values)
	if err != nil {
		t.Fatalf("encode frame header: %v", err)
	}
	return b
}

// Payload returns the row-major (bins x beams) samples of frame i.
func (r Recording) Payload(i int) []byte {
	sample := r.Sample
	if sample == nil {
		sample = Pattern
	}
	out := make([]byte, 0, r.Bins*r.Beams)
	for bin := 0; bin < r.Bins; bin++ {
		for beam := 0; beam < r.Beams; beam++ {
			out = append(out, sample(i, bin, beam))
		}
	}
	return out
}

// Bytes encodes the whole recording.
func (r Recording) Bytes(t testing.TB) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(r.FileHeader(t))
	for i := 0; i < r.Frames; i++ {
		buf.Write(r.FrameHeader(t, i))
		buf.Write(r.Payload(i))
	}
	if r.TrailingFrameHeader {
		buf.Write(r.FrameHeader(t, r.Frames))
	}
	b := buf.Bytes()
	if r.Truncate > 0 {
		if r.Truncate > len(b) {
			t.Fatalf("cannot truncate %d bytes from a %d byte recording", r.Truncate, len(b))
		}
		b = b[:len(b)-r.Truncate]
	}
	return b
}

// WriteFile writes the recording into dir and returns its path.
func (r Recording) WriteFile(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, r.Bytes(t), 0o644); err != nil {
		t.Fatalf("write recording: %v", err)
	}
	return path
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
