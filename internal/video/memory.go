package video

import (
	"image"
	"sync"
)

// MemorySink keeps copies of every frame. It backs tests and previews.
type MemorySink struct {
	mu     sync.Mutex
	format Format
	frames []*image.RGBA
	open   bool
	closed bool
}

// Open records the stream format.
func (m *MemorySink) Open(f Format) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if err := f.Validate(); err != nil {
		return err
	}
	m.format = f
	m.open = true
	return nil
}

// WriteFrame stores a copy of img.
func (m *MemorySink) WriteFrame(img *image.RGBA) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.closed:
		return ErrClosed
	case !m.open:
		return ErrNotOpen
	}
	if err := checkFrame(m.format, img); err != nil {
		return err
	}
	cp := image.NewRGBA(img.Bounds())
	copy(cp.Pix, img.Pix)
	m.frames = append(m.frames, cp)
	return nil
}

// Close marks the sink closed.
func (m *MemorySink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Format returns the format passed to Open.
func (m *MemorySink) Format() Format {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.format
}

// Frames returns the frames written so far.
func (m *MemorySink) Frames() []*image.RGBA {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*image.RGBA, len(m.frames))
	copy(out, m.frames)
	return out
}

// Closed reports whether Close has been called.
func (m *MemorySink) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
