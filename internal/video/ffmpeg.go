package video

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// encoders maps a fourcc to the ffmpeg encoder that produces it.
var encoders = map[string]string{
	"XVID": "mpeg4",
	"FMP4": "mpeg4",
	"DIVX": "mpeg4",
	"MJPG": "mjpeg",
	"FFV1": "ffv1",
	"H264": "libx264",
	"AVC1": "libx264",
}

// EncoderFor returns the ffmpeg encoder for a fourcc.
func EncoderFor(codec string) (string, bool) {
	enc, ok := encoders[strings.ToUpper(codec)]
	return enc, ok
}

// FFmpegOption configures an FFmpegSink.
type FFmpegOption func(*FFmpegSink)

// WithFFmpegBinary overrides the ffmpeg executable.
func WithFFmpegBinary(path string) FFmpegOption {
	return func(s *FFmpegSink) { s.Binary = path }
}

// FFmpegSink pipes rgb24 raw video into an ffmpeg process that encodes it
// with the configured fourcc.
type FFmpegSink struct {
	Binary string
	Output string
	Codec  string

	mu     sync.Mutex
	format Format
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	rgb    []byte
	open   bool
	closed bool
}

// NewFFmpegSink returns a sink that writes output with codec (DefaultCodec
// when empty).
func NewFFmpegSink(output, codec string, opts ...FFmpegOption) *FFmpegSink {
	if codec == "" {
		codec = DefaultCodec
	}
	s := &FFmpegSink{Binary: "ffmpeg", Output: output, Codec: strings.ToUpper(codec)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Args returns the ffmpeg command line for f, without the binary.
func (s *FFmpegSink) Args(f Format) ([]string, error) {
	enc, ok := EncoderFor(s.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: no encoder for codec %q", ErrInvalidFormat, s.Codec)
	}
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", f.Width, f.Height),
		"-r", strconv.FormatFloat(f.FrameRate, 'f', -1, 64),
		"-i", "-",
		"-an",
		"-c:v", enc,
	}
	if enc == "mpeg4" {
		args = append(args, "-vtag", s.Codec, "-q:v", "2")
	}
	return append(args, s.Output), nil
}

// Open starts ffmpeg.
func (s *FFmpegSink) Open(f Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.open {
		return fmt.Errorf("video: ffmpeg stream already open")
	}
	if err := f.Validate(); err != nil {
		return err
	}
	args, err := s.Args(f)
	if err != nil {
		return err
	}

	cmd := exec.Command(s.Binary, args...)
	cmd.Env = os.Environ()
	cmd.Stderr = &s.stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("video: ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("video: start %s: %w", s.Binary, err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.format = f
	s.rgb = make([]byte, 3*f.Width*f.Height)
	s.open = true
	return nil
}

// WriteFrame sends one frame to ffmpeg.
func (s *FFmpegSink) WriteFrame(img *image.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return ErrClosed
	case !s.open:
		return ErrNotOpen
	}
	if err := checkFrame(s.format, img); err != nil {
		return err
	}

	b := img.Bounds()
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			copy(s.rgb[i:i+3], row[4*x:4*x+3])
			i += 3
		}
	}
	if _, err := s.stdin.Write(s.rgb); err != nil {
		return fmt.Errorf("video: write to ffmpeg: %w%s", err, s.stderrTail())
	}
	return nil
}

func (s *FFmpegSink) stderrTail() string {
	msg := strings.TrimSpace(s.stderr.String())
	if msg == "" {
		return ""
	}
	if len(msg) > 512 {
		msg = msg[len(msg)-512:]
	}
	return ": " + msg
}

// Close ends the stream and waits for ffmpeg to finish writing the file.
func (s *FFmpegSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if !s.open {
		return nil
	}

	closeErr := s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("video: %s: %w%s", s.Binary, err, s.stderrTail())
	}
	return closeErr
}
