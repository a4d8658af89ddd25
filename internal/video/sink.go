// Package video writes rendered frames to video containers.
package video

import (
	"errors"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"strings"

	"github.com/banshee-data/aris2video/internal/fsutil"
)

// DefaultCodec is the fourcc written when none is configured.
const DefaultCodec = "XVID"

var (
	// ErrClosed is returned by writes after Close.
	ErrClosed = errors.New("video: sink is closed")
	// ErrNotOpen is returned by writes before Open.
	ErrNotOpen = errors.New("video: sink is not open")
	// ErrFrameSize is returned for a frame whose size differs from the
	// opened format.
	ErrFrameSize = errors.New("video: frame size does not match stream")
	// ErrInvalidFormat is returned by Open for unusable stream parameters.
	ErrInvalidFormat = errors.New("video: invalid stream format")
)

// Format describes the stream a sink is opened for.
type Format struct {
	Codec     string // fourcc
	FrameRate float64
	Width     int
	Height    int
}

// Validate rejects formats no container can represent.
func (f Format) Validate() error {
	if f.Width < 1 || f.Height < 1 {
		return fmt.Errorf("%w: %dx%d frame", ErrInvalidFormat, f.Width, f.Height)
	}
	if math.IsNaN(f.FrameRate) || math.IsInf(f.FrameRate, 0) || f.FrameRate <= 0 {
		return fmt.Errorf("%w: frame rate %g", ErrInvalidFormat, f.FrameRate)
	}
	return nil
}

// Sink consumes an ordered stream of RGB frames. Frames are written in
// submission order. Close releases the underlying resource and is safe to
// call more than once.
type Sink interface {
	Open(Format) error
	WriteFrame(*image.RGBA) error
	Close() error
}

func checkFrame(f Format, img *image.RGBA) error {
	if img == nil {
		return fmt.Errorf("%w: nil frame", ErrFrameSize)
	}
	if b := img.Bounds(); b.Dx() != f.Width || b.Dy() != f.Height {
		return fmt.Errorf("%w: got %dx%d, stream is %dx%d", ErrFrameSize, b.Dx(), b.Dy(), f.Width, f.Height)
	}
	return nil
}

// New returns the sink for path. A .y4m path gets a Y4M writer through
// fsys; any other extension is encoded by ffmpeg with the given codec.
func New(path, codec string, fsys fsutil.FileSystem, opts ...FFmpegOption) Sink {
	if strings.EqualFold(filepath.Ext(path), ".y4m") {
		return &Y4MWriter{Path: path, FS: fsys}
	}
	return NewFFmpegSink(path, codec, opts...)
}
