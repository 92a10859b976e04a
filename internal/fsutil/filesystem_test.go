package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_ReadFile(t *testing.T) {
	osfs := OSFileSystem{}

	data, err := osfs.ReadFile("filesystem.go")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty file content")
	}
}

func TestOSFileSystem_CreateAndStat(t *testing.T) {
	osfs := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "snapshots", "run-1")

	if err := osfs.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	path := filepath.Join(dir, "chart.html")
	w, err := osfs.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("<html></html>")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	info, err := osfs.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != int64(len("<html></html>")) {
		t.Errorf("Size() = %d", info.Size())
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.WriteFile("/cfg/viewer.json", []byte(`{"flat_epsilon":1e-6}`))

	data, err := mfs.ReadFile("/cfg/viewer.json")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != `{"flat_epsilon":1e-6}` {
		t.Errorf("got %q", data)
	}

	// returned slice is a copy
	data[0] = 'X'
	again, _ := mfs.ReadFile("/cfg/viewer.json")
	if again[0] != '{' {
		t.Error("ReadFile must not expose internal storage")
	}
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/out/chart.png")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("png-bytes")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	before, _ := mfs.ReadFile("/out/chart.png")
	if len(before) != 0 {
		t.Errorf("content visible before Close: %q", before)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	after, _ := mfs.ReadFile("/out/chart.png")
	if string(after) != "png-bytes" {
		t.Errorf("got %q after Close", after)
	}
}

func TestMemoryFileSystem_Stat(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.WriteFile("/a/b.json", []byte("1234"))
	_ = mfs.MkdirAll("/x/y/z", 0755)

	info, err := mfs.Stat("/a/b.json")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 4 || info.IsDir() || info.Name() != "b.json" {
		t.Errorf("unexpected info: name=%s size=%d dir=%v", info.Name(), info.Size(), info.IsDir())
	}

	for _, dir := range []string{"/x", "/x/y", "/x/y/z"} {
		info, err := mfs.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("Stat(%s) = %v, %v; want directory", dir, info, err)
		}
	}

	_, err = mfs.Stat("/missing")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat(missing) err = %v, want ErrNotExist", err)
	}
}

func TestMemoryFileSystem_ReadMissing(t *testing.T) {
	mfs := NewMemoryFileSystem()
	if _, err := mfs.ReadFile("/nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile(missing) err = %v, want ErrNotExist", err)
	}
}
