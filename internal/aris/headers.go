package aris

import (
	"bytes"
	"encoding/binary"
	"io"
)

const (
	// FormatTag is the three-byte signature that opens every recording.
	FormatTag = "DDF"
	// SupportedVersion is the only file layout this package decodes.
	SupportedVersion = 5
)

// FileHeader is the typed view of the load-bearing file header fields. All
// other fields stay available through Raw.
type FileHeader struct {
	Tag               string
	Version           uint32
	NumFrames         uint32
	FrameRate         uint32 // initial recorded frame rate; playback uses the frame header value
	NumBeams          uint32
	SamplesPerChannel uint32
	WindowStart       float64
	WindowLength      float64
	SerialNumber      uint32

	// Length is the number of bytes the header consumed, which is also the
	// absolute offset of the first frame header.
	Length int64
	Raw    *Record
}

// Magic returns the first four bytes of the file as a little-endian u32
// (0x05464444 for a version 5 recording).
func (h FileHeader) Magic() uint32 {
	if h.Raw == nil || len(h.Raw.Raw()) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(h.Raw.Raw()[:4])
}

// NewFileHeader builds the typed view from a decoded file header record.
func NewFileHeader(rec *Record) FileHeader {
	return FileHeader{
		Tag:               rec.String("type"),
		Version:           uint32(rec.Uint("version")),
		NumFrames:         uint32(rec.Uint("numframes")),
		FrameRate:         uint32(rec.Uint("framerate")),
		NumBeams:          uint32(rec.Uint("numbeams")),
		SamplesPerChannel: uint32(rec.Uint("sampleperchannel")),
		WindowStart:       rec.Float("windowstart"),
		WindowLength:      rec.Float("windowlength"),
		SerialNumber:      uint32(rec.Uint("serialnumber")),
		Length:            int64(rec.Len()),
		Raw:               rec,
	}
}

// FrameHeader is the typed view of the per-frame header fields the renderer
// needs.
type FrameHeader struct {
	FrameIndex     uint32
	FrameRate      float64
	WindowStart    float64
	WindowLength   float64
	SamplesPerBeam uint32

	// Length is the number of bytes one frame header occupies.
	Length int64
	Raw    *Record
}

// NewFrameHeader builds the typed view from a decoded frame header record.
func NewFrameHeader(rec *Record) FrameHeader {
	return FrameHeader{
		FrameIndex:     uint32(rec.Uint("framenumber")),
		FrameRate:      rec.Float("framerate"),
		WindowStart:    rec.Float("windowstart"),
		WindowLength:   rec.Float("windowlength"),
		SamplesPerBeam: uint32(rec.Uint("samplesperbeam")),
		Length:         int64(rec.Len()),
		Raw:            rec,
	}
}

// Headers is everything decoded before the first payload: the file header,
// the frame 0 header and the byte lengths used to walk the frames.
type Headers struct {
	File   FileHeader
	Frame0 FrameHeader

	HeaderLength      int64 // bytes consumed by the file header
	FrameHeaderLength int64 // bytes consumed by frame header 0, assumed constant
}

// FrameSize returns the number of sample bytes in one frame payload.
func (h *Headers) FrameSize() int64 {
	return int64(h.File.NumBeams) * int64(h.File.SamplesPerChannel)
}

// FrameStride returns the distance between consecutive frame headers.
func (h *Headers) FrameStride() int64 {
	return h.FrameHeaderLength + h.FrameSize()
}

// ExpectedSize returns the total file size implied by the headers.
func (h *Headers) ExpectedSize() int64 {
	return h.HeaderLength + int64(h.File.NumFrames)*h.FrameStride()
}

// Validate applies the decoding policy: the format tag and version must match.
// The beam and bin counts are checked by the geometry engine, and a recording
// with no frames is valid. Decoding itself does not validate so that
// inspection tools can still show malformed headers.
func (h *Headers) Validate() error {
	if h.File.Tag != FormatTag {
		debugf("unexpected format tag %q", h.File.Tag)
		return ErrUnknownFormat
	}
	if h.File.Version != SupportedVersion {
		return &VersionMismatchError{Got: h.File.Version, Want: SupportedVersion}
	}
	return nil
}

// countingReader tracks how many bytes have been consumed from r.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// ReadHeaders decodes the file header and the frame 0 header from r, which
// must be positioned at offset 0. On success r is positioned just past frame
// header 0; callers either rewind to HeaderLength or wrap r with Resume.
func ReadHeaders(r io.Reader) (*Headers, error) {
	cr := &countingReader{r: r}

	fileRec, err := FileHeaderSchema.Decode(cr, 0)
	if err != nil {
		return nil, err
	}
	headerLength := cr.n

	frameRec, err := FrameHeaderSchema.Decode(cr, headerLength)
	if err != nil {
		return nil, err
	}
	frameHeaderLength := cr.n - headerLength

	h := &Headers{
		File:              NewFileHeader(fileRec),
		Frame0:            NewFrameHeader(frameRec),
		HeaderLength:      headerLength,
		FrameHeaderLength: frameHeaderLength,
	}
	debugf("decoded headers: tag=%q version=%d frames=%d beams=%d bins=%d header=%dB frameHeader=%dB",
		h.File.Tag, h.File.Version, h.File.NumFrames, h.File.NumBeams, h.File.SamplesPerChannel,
		headerLength, frameHeaderLength)
	return h, nil
}

// Resume returns a reader that starts at HeaderLength, given r positioned
// where ReadHeaders left it. Frame header 0 is replayed from memory, so the
// source never has to seek.
func (h *Headers) Resume(r io.Reader) io.Reader {
	if h.Frame0.Raw == nil {
		return r
	}
	return io.MultiReader(bytes.NewReader(h.Frame0.Raw.Raw()), r)
}
