package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	var fsys OSFileSystem

	if err := fsys.MkdirAll(filepath.Join(dir, "out", "nested"), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	path := filepath.Join(dir, "out", "nested", "frame.bin")
	w, err := fsys.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("DDF")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "DDF" {
		t.Errorf("expected %q, got %q", "DDF", data)
	}

	if err := fsys.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := fsys.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist after remove, got %v", err)
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := mfs.WriteFile("/cfg.json", []byte(`{"codec":"XVID"}`), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := mfs.ReadFile("/cfg.json")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != `{"codec":"XVID"}` {
		t.Errorf("unexpected content %q", data)
	}

	// ReadFile hands out a copy.
	data[0] = 'X'
	again, _ := mfs.ReadFile("/cfg.json")
	if again[0] != '{' {
		t.Error("ReadFile result aliases stored data")
	}

	info, err := mfs.Stat("/cfg.json")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != int64(len(`{"codec":"XVID"}`)) || info.Mode() != 0o600 || info.IsDir() {
		t.Errorf("unexpected file info: size=%d mode=%v dir=%v", info.Size(), info.Mode(), info.IsDir())
	}
}

func TestMemoryFileSystem_CreatePublishesOnClose(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/out.y4m")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("YUV4MPEG2")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, _ := mfs.ReadFile("/out.y4m")
	if len(data) != 0 {
		t.Errorf("expected empty file before close, got %q", data)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if _, err := w.Write([]byte("x")); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("expected ErrClosed after close, got %v", err)
	}

	data, _ = mfs.ReadFile("/out.y4m")
	if string(data) != "YUV4MPEG2" {
		t.Errorf("expected published content, got %q", data)
	}
}

func TestMemoryFileSystem_OpenIsSeekable(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("/rec.aris", []byte("0123456789"), 0o644)

	f, err := mfs.Open("/rec.aris")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	s, ok := f.(io.ReadSeeker)
	if !ok {
		t.Fatal("memory file does not implement io.ReadSeeker")
	}
	if _, err := s.Seek(4, io.SeekStart); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	rest, _ := io.ReadAll(s)
	if string(rest) != "456789" {
		t.Errorf("expected %q after seek, got %q", "456789", rest)
	}

	info, _ := f.Stat()
	if info.Name() != "rec.aris" || info.Size() != 10 {
		t.Errorf("unexpected stat %s %d", info.Name(), info.Size())
	}
}

func TestMemoryFileSystem_Missing(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.Open("/missing.aris"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open: expected ErrNotExist, got %v", err)
	}
	if _, err := mfs.ReadFile("/missing.aris"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile: expected ErrNotExist, got %v", err)
	}
	if err := mfs.Remove("/missing.aris"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Remove: expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_DirsAndFiles(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := mfs.MkdirAll("/reports/job/a", 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for _, d := range []string{"/reports", "/reports/job", "/reports/job/a"} {
		info, err := mfs.Stat(d)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s, err=%v", d, err)
		}
	}

	_ = mfs.WriteFile("/b.txt", nil, 0o644)
	_ = mfs.WriteFile("/a.txt", nil, 0o644)
	names := mfs.Files()
	if len(names) != 2 || names[0] != "/a.txt" || names[1] != "/b.txt" {
		t.Errorf("unexpected file list %v", names)
	}

	if err := mfs.Remove("/reports/job/a"); err != nil {
		t.Errorf("Remove dir failed: %v", err)
	}
}
