package aris

import (
	"errors"
	"fmt"
)

// Sentinel errors. Concrete error types below unwrap to these so callers can
// use errors.Is without caring about the diagnostic detail.
var (
	ErrTruncatedHeader  = errors.New("aris: truncated header")
	ErrTruncatedPayload = errors.New("aris: truncated frame payload")
	ErrVersionMismatch  = errors.New("aris: unsupported file version")
	ErrUnknownFormat    = errors.New("aris: not an ARIS recording")
)

// TruncatedHeaderError reports a header that ended before all of its fields
// were available.
type TruncatedHeaderError struct {
	Header string // "file header" or "frame header"
	Field  string // first field that could not be read in full
	Offset int64  // absolute offset of that field
	Want   int    // bytes the field needs
	Got    int    // bytes that were available for it
}

func (e *TruncatedHeaderError) Error() string {
	return fmt.Sprintf("aris: %s truncated at field %q (offset %d): need %d bytes, have %d",
		e.Header, e.Field, e.Offset, e.Want, e.Got)
}

func (e *TruncatedHeaderError) Unwrap() error { return ErrTruncatedHeader }

// TruncatedPayloadError reports a frame whose header padding or sample block
// ran past the end of the source.
type TruncatedPayloadError struct {
	Frame  int   // zero-based frame index
	Offset int64 // absolute offset where the short read started
	Want   int64 // bytes required
	Got    int64 // bytes available
}

func (e *TruncatedPayloadError) Error() string {
	return fmt.Sprintf("aris: frame %d truncated at offset %d: need %d bytes, have %d",
		e.Frame, e.Offset, e.Want, e.Got)
}

func (e *TruncatedPayloadError) Unwrap() error { return ErrTruncatedPayload }

// VersionMismatchError reports a file header whose version is not the one
// this decoder understands.
type VersionMismatchError struct {
	Got  uint32
	Want uint32
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("aris: file version %d is not supported (want %d)", e.Got, e.Want)
}

func (e *VersionMismatchError) Unwrap() error { return ErrVersionMismatch }
