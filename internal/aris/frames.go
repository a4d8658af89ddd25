package aris

import (
	"errors"
	"fmt"
	"io"
)

// RawFrame is one decoded payload: a (bins x beams) grid of 8-bit
// amplitudes, row-major by range bin.
type RawFrame struct {
	Index   int
	Bins    int
	Beams   int
	Samples []uint8

	// Header is set only when the reader decodes per-frame headers.
	Header *FrameHeader
}

// At returns the sample for range bin bin and beam beam (both zero-based).
func (f *RawFrame) At(bin, beam int) uint8 {
	return f.Samples[bin*f.Beams+beam]
}

// FrameOption configures a FrameReader.
type FrameOption func(*FrameReader)

// WithFrameHeaders makes the reader decode every frame header instead of
// skipping it as opaque padding.
func WithFrameHeaders(decode bool) FrameOption {
	return func(fr *FrameReader) { fr.decodeHeaders = decode }
}

// FrameReader streams the frames of a recording in file order. It is a
// single forward pass over its source and is not safe for concurrent use.
type FrameReader struct {
	r             io.Reader
	h             *Headers
	next          int
	offset        int64
	decodeHeaders bool
	err           error
}

// NewFrameReader returns a reader over the frames described by h. r must be
// positioned at h.HeaderLength, the start of frame header 0.
func NewFrameReader(r io.Reader, h *Headers, opts ...FrameOption) *FrameReader {
	fr := &FrameReader{r: r, h: h, offset: h.HeaderLength}
	for _, opt := range opts {
		opt(fr)
	}
	return fr
}

// Remaining returns how many frames have not been read yet.
func (fr *FrameReader) Remaining() int {
	return int(fr.h.File.NumFrames) - fr.next
}

// Offset returns the absolute source offset of the next frame header.
func (fr *FrameReader) Offset() int64 { return fr.offset }

// Next returns the next frame, or io.EOF once all NumFrames frames have been
// read. Any shortfall is reported as a *TruncatedPayloadError and is sticky:
// later calls return the same error.
func (fr *FrameReader) Next() (*RawFrame, error) {
	if fr.err != nil {
		return nil, fr.err
	}
	if fr.next >= int(fr.h.File.NumFrames) {
		return nil, io.EOF
	}

	frame := &RawFrame{
		Index: fr.next,
		Bins:  int(fr.h.File.SamplesPerChannel),
		Beams: int(fr.h.File.NumBeams),
	}
	start := fr.offset
	stride := fr.h.FrameStride()

	if fr.decodeHeaders {
		rec, err := FrameHeaderSchema.Decode(fr.r, start)
		if err != nil {
			var th *TruncatedHeaderError
			if errors.As(err, &th) {
				got := th.Offset - start + int64(th.Got)
				return nil, fr.fail(&TruncatedPayloadError{Frame: fr.next, Offset: start, Want: stride, Got: got})
			}
			return nil, fr.fail(err)
		}
		fh := NewFrameHeader(rec)
		frame.Header = &fh
	} else {
		n, err := io.CopyN(io.Discard, fr.r, fr.h.FrameHeaderLength)
		if err != nil {
			if err == io.EOF {
				return nil, fr.fail(&TruncatedPayloadError{Frame: fr.next, Offset: start, Want: stride, Got: n})
			}
			return nil, fr.fail(fmt.Errorf("aris: skipping frame %d header: %w", fr.next, err))
		}
	}

	frame.Samples = make([]uint8, fr.h.FrameSize())
	n, err := io.ReadFull(fr.r, frame.Samples)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			got := fr.h.FrameHeaderLength + int64(n)
			return nil, fr.fail(&TruncatedPayloadError{Frame: fr.next, Offset: start, Want: stride, Got: got})
		}
		return nil, fr.fail(fmt.Errorf("aris: reading frame %d payload: %w", fr.next, err))
	}

	fr.offset += stride
	fr.next++
	return frame, nil
}

func (fr *FrameReader) fail(err error) error {
	debugf("frame reader stopped at frame %d: %v", fr.next, err)
	fr.err = err
	return err
}

// ReadAll drains the reader. It exists for small recordings and tests; the
// conversion pipeline consumes frames one at a time with Next.
func (fr *FrameReader) ReadAll() ([]*RawFrame, error) {
	var frames []*RawFrame
	for {
		f, err := fr.Next()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
}
