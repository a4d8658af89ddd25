package video_test

import (
	"bytes"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/aris2video/internal/fsutil"
	"github.com/banshee-data/aris2video/internal/video"
)

func grayFrame(w, h int, v uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 0xff})
		}
	}
	return img
}

type nopCloser struct {
	*bytes.Buffer
	closes int
}

func (n *nopCloser) Close() error { n.closes++; return nil }

func TestFormatValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, video.Format{Codec: "XVID", FrameRate: 5, Width: 3, Height: 2}.Validate())
	assert.ErrorIs(t, video.Format{FrameRate: 5, Width: 0, Height: 2}.Validate(), video.ErrInvalidFormat)
	assert.ErrorIs(t, video.Format{FrameRate: 0, Width: 3, Height: 2}.Validate(), video.ErrInvalidFormat)
}

func TestY4MWriterRoundTrip(t *testing.T) {
	t.Parallel()

	out := &nopCloser{Buffer: &bytes.Buffer{}}
	w := video.NewY4MWriter(out)
	f := video.Format{Codec: "XVID", FrameRate: 12.5, Width: 3, Height: 2}
	require.NoError(t, w.Open(f))
	require.NoError(t, w.WriteFrame(grayFrame(3, 2, 10)))
	require.NoError(t, w.WriteFrame(grayFrame(3, 2, 200)))
	assert.Equal(t, 2, w.Frames())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Equal(t, 1, out.closes)

	header, _, _ := strings.Cut(out.String(), "\n")
	assert.Equal(t, "YUV4MPEG2 W3 H2 F25:2 Ip A1:1 C444 XCOLORRANGE=FULL XFOURCC=XVID", header)

	s, err := video.ReadY4M(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, f, s.Format)
	require.Len(t, s.Frames, 2)
	assert.Equal(t, []byte{10, 10, 10, 10, 10, 10}, s.Frames[0].Pix)
	assert.Equal(t, []byte{200, 200, 200, 200, 200, 200}, s.Frames[1].Pix)

	// Gray content carries neutral chroma.
	raw := out.Bytes()[len(header)+1:]
	frame := raw[len("FRAME\n"):]
	assert.Equal(t, []byte{128, 128, 128, 128, 128, 128}, frame[6:12])
}

func TestY4MWriterRejections(t *testing.T) {
	t.Parallel()

	w := video.NewY4MWriter(&nopCloser{Buffer: &bytes.Buffer{}})
	assert.ErrorIs(t, w.WriteFrame(grayFrame(3, 2, 0)), video.ErrNotOpen)

	require.NoError(t, w.Open(video.Format{FrameRate: 5, Width: 3, Height: 2}))
	assert.ErrorIs(t, w.WriteFrame(grayFrame(2, 3, 0)), video.ErrFrameSize)
	assert.ErrorIs(t, w.WriteFrame(nil), video.ErrFrameSize)

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.WriteFrame(grayFrame(3, 2, 0)), video.ErrClosed)
	assert.ErrorIs(t, w.Open(video.Format{FrameRate: 5, Width: 3, Height: 2}), video.ErrClosed)
}

func TestNewPicksSinkByExtension(t *testing.T) {
	t.Parallel()

	mfs := fsutil.NewMemoryFileSystem()
	s := video.New("/out/clip.Y4M", "", mfs)
	y, ok := s.(*video.Y4MWriter)
	require.True(t, ok)

	require.NoError(t, y.Open(video.Format{FrameRate: 5, Width: 2, Height: 2}))
	require.NoError(t, y.WriteFrame(grayFrame(2, 2, 9)))
	require.NoError(t, y.Close())

	data, err := mfs.ReadFile("/out/clip.Y4M")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("YUV4MPEG2 W2 H2 F5:1")))

	ff, ok := video.New("/out/clip.avi", "", mfs).(*video.FFmpegSink)
	require.True(t, ok)
	assert.Equal(t, video.DefaultCodec, ff.Codec)
}

func TestFFmpegArgs(t *testing.T) {
	t.Parallel()

	s := video.NewFFmpegSink("out.avi", "xvid")
	args, err := s.Args(video.Format{FrameRate: 5, Width: 310, Height: 516})
	require.NoError(t, err)

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-f rawvideo -pix_fmt rgb24 -s 310x516 -r 5 -i -")
	assert.Contains(t, joined, "-c:v mpeg4 -vtag XVID")
	assert.Equal(t, "out.avi", args[len(args)-1])

	_, err = video.NewFFmpegSink("out.avi", "NOPE").Args(video.Format{FrameRate: 5, Width: 1, Height: 1})
	assert.ErrorIs(t, err, video.ErrInvalidFormat)
}

func TestFFmpegSinkMissingBinary(t *testing.T) {
	t.Parallel()

	bin := filepath.Join(t.TempDir(), "no-such-ffmpeg")
	s := video.NewFFmpegSink(filepath.Join(t.TempDir(), "out.avi"), "", video.WithFFmpegBinary(bin))
	err := s.Open(video.Format{FrameRate: 5, Width: 2, Height: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-ffmpeg")

	assert.ErrorIs(t, s.WriteFrame(grayFrame(2, 2, 0)), video.ErrNotOpen)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestMemorySink(t *testing.T) {
	t.Parallel()

	var m video.MemorySink
	require.NoError(t, m.Open(video.Format{Codec: "XVID", FrameRate: 5, Width: 2, Height: 2}))

	src := grayFrame(2, 2, 1)
	require.NoError(t, m.WriteFrame(src))
	src.Pix[0] = 99 // the sink kept its own copy

	assert.ErrorIs(t, m.WriteFrame(grayFrame(1, 1, 0)), video.ErrFrameSize)
	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.WriteFrame(grayFrame(2, 2, 0)), video.ErrClosed)

	frames := m.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, uint8(1), frames[0].Pix[0])
	assert.True(t, m.Closed())
	assert.Equal(t, 5.0, m.Format().FrameRate)
}
