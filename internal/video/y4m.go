package video

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"math/big"
	"sync"

	"github.com/banshee-data/aris2video/internal/fsutil"
)

// Y4MWriter writes an uncompressed YUV4MPEG2 stream with full range 4:4:4
// chroma, so gray frames survive without loss.
type Y4MWriter struct {
	// Path and FS locate the output. When W is set they are ignored and the
	// writer takes ownership of W.
	Path string
	FS   fsutil.FileSystem
	W    io.WriteCloser

	mu     sync.Mutex
	format Format
	out    io.WriteCloser
	buf    *bufio.Writer
	plane  []byte
	frames int
	open   bool
	closed bool
}

// NewY4MWriter returns a writer that owns w.
func NewY4MWriter(w io.WriteCloser) *Y4MWriter {
	return &Y4MWriter{W: w}
}

// frameRateRatio expresses rate as a reduced fraction at millihertz
// precision, the form the Y4M F parameter takes.
func frameRateRatio(rate float64) string {
	r := new(big.Rat).SetFrac64(int64(math.Round(rate*1000)), 1000)
	return r.Num().String() + ":" + r.Denom().String()
}

// Open validates f, creates the output and writes the stream header.
func (y *Y4MWriter) Open(f Format) error {
	y.mu.Lock()
	defer y.mu.Unlock()

	if y.closed {
		return ErrClosed
	}
	if y.open {
		return fmt.Errorf("video: y4m stream already open")
	}
	if err := f.Validate(); err != nil {
		return err
	}

	out := y.W
	if out == nil {
		if y.FS == nil {
			y.FS = fsutil.OSFileSystem{}
		}
		w, err := y.FS.Create(y.Path)
		if err != nil {
			return fmt.Errorf("video: create %s: %w", y.Path, err)
		}
		out = w
	}

	y.out = out
	y.buf = bufio.NewWriter(out)
	y.format = f
	y.plane = make([]byte, 3*f.Width*f.Height)
	y.open = true

	header := fmt.Sprintf("YUV4MPEG2 W%d H%d F%s Ip A1:1 C444 XCOLORRANGE=FULL",
		f.Width, f.Height, frameRateRatio(f.FrameRate))
	if f.Codec != "" {
		header += " XFOURCC=" + f.Codec
	}
	_, err := y.buf.WriteString(header + "\n")
	return err
}

// WriteFrame appends one frame.
func (y *Y4MWriter) WriteFrame(img *image.RGBA) error {
	y.mu.Lock()
	defer y.mu.Unlock()

	switch {
	case y.closed:
		return ErrClosed
	case !y.open:
		return ErrNotOpen
	}
	if err := checkFrame(y.format, img); err != nil {
		return err
	}

	n := y.format.Width * y.format.Height
	yp, cb, cr := y.plane[:n], y.plane[n:2*n], y.plane[2*n:]
	b := img.Bounds()
	i := 0
	for py := b.Min.Y; py < b.Max.Y; py++ {
		for px := b.Min.X; px < b.Max.X; px++ {
			c := img.RGBAAt(px, py)
			yp[i], cb[i], cr[i] = color.RGBToYCbCr(c.R, c.G, c.B)
			i++
		}
	}

	if _, err := y.buf.WriteString("FRAME\n"); err != nil {
		return err
	}
	if _, err := y.buf.Write(y.plane); err != nil {
		return err
	}
	y.frames++
	return nil
}

// Frames returns the number of frames written so far.
func (y *Y4MWriter) Frames() int {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.frames
}

// Close flushes and closes the output. It is safe to call more than once
// and on a writer that was never opened.
func (y *Y4MWriter) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()

	if y.closed {
		return nil
	}
	y.closed = true

	if !y.open {
		if y.W != nil {
			return y.W.Close()
		}
		return nil
	}

	flushErr := y.buf.Flush()
	closeErr := y.out.Close()
	if flushErr != nil {
		return fmt.Errorf("video: flush y4m stream: %w", flushErr)
	}
	return closeErr
}
