package testutil

import (
	"bytes"
	"errors"
	"testing"

	"github.com/banshee-data/aris2video/internal/aris"
)

func TestRecordingLayout(t *testing.T) {
	t.Parallel()

	r := SmallRecording()
	b := r.Bytes(t)

	want := aris.FileHeaderSchema.Size() + r.Frames*(aris.FrameHeaderSchema.Size()+r.Beams*r.Bins)
	if len(b) != want {
		t.Fatalf("recording size = %d, want %d", len(b), want)
	}
	if !bytes.HasPrefix(b, []byte("DDF\x05")) {
		t.Errorf("recording starts with %q, want DDF\\x05", b[:4])
	}
}

func TestRecordingTruncate(t *testing.T) {
	t.Parallel()

	r := SmallRecording()
	full := len(r.Bytes(t))
	r.Truncate = 10
	if got := len(r.Bytes(t)); got != full-10 {
		t.Errorf("truncated size = %d, want %d", got, full-10)
	}
}

func TestPayloadUsesSampleFunc(t *testing.T) {
	t.Parallel()

	r := SmallRecording()
	r.Sample = func(frame, bin, beam int) uint8 { return uint8(bin*100 + beam) }
	p := r.Payload(0)
	if p[0] != 0 || p[1] != 1 || p[r.Beams] != 100 {
		t.Errorf("unexpected payload prefix %v", p[:3])
	}
}

func TestAssertNoError(t *testing.T) {
	t.Parallel()
	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	t.Parallel()
	AssertError(t, errors.New("expected"))
}
