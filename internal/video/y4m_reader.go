package video

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"
)

// Y4MStream is a decoded 4:4:4 YUV4MPEG2 stream. Only the luma plane of each
// frame is kept, which for gray content is the frame itself.
type Y4MStream struct {
	Format Format
	Frames []*image.Gray
}

// ReadY4M decodes a stream written by Y4MWriter.
func ReadY4M(r io.Reader) (*Y4MStream, error) {
	br := bufio.NewReader(r)
	line, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("video: y4m header: %w", err)
	}
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "YUV4MPEG2" {
		return nil, fmt.Errorf("%w: not a YUV4MPEG2 stream", ErrInvalidFormat)
	}

	s := &Y4MStream{}
	for _, tok := range fields[1:] {
		key, val := tok[:1], tok[1:]
		switch key {
		case "W":
			s.Format.Width, err = strconv.Atoi(val)
		case "H":
			s.Format.Height, err = strconv.Atoi(val)
		case "F":
			num, den, ok := strings.Cut(val, ":")
			if !ok {
				return nil, fmt.Errorf("%w: frame rate %q", ErrInvalidFormat, val)
			}
			var n, d float64
			if n, err = strconv.ParseFloat(num, 64); err == nil {
				d, err = strconv.ParseFloat(den, 64)
			}
			if err == nil && d != 0 {
				s.Format.FrameRate = n / d
			}
		case "C":
			if val != "444" {
				return nil, fmt.Errorf("%w: chroma %s, want 444", ErrInvalidFormat, val)
			}
		case "X":
			if c, ok := strings.CutPrefix(val, "FOURCC="); ok {
				s.Format.Codec = c
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%w: header token %q: %v", ErrInvalidFormat, tok, err)
		}
	}
	if err := s.Format.Validate(); err != nil {
		return nil, err
	}

	n := s.Format.Width * s.Format.Height
	planes := make([]byte, 3*n)
	for {
		tag, err := br.ReadString('\n')
		if err == io.EOF && tag == "" {
			return s, nil
		}
		if err != nil {
			return nil, fmt.Errorf("video: y4m frame %d: %w", len(s.Frames), err)
		}
		if !strings.HasPrefix(tag, "FRAME") {
			return nil, fmt.Errorf("%w: frame %d tag %q", ErrInvalidFormat, len(s.Frames), strings.TrimSpace(tag))
		}
		if _, err := io.ReadFull(br, planes); err != nil {
			return nil, fmt.Errorf("video: y4m frame %d: %w", len(s.Frames), err)
		}
		g := image.NewGray(image.Rect(0, 0, s.Format.Width, s.Format.Height))
		copy(g.Pix, planes[:n])
		s.Frames = append(s.Frames, g)
	}
}
