package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"reflect"
	"testing"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fsys := OSFileSystem{}

	if !fsys.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}
	if fsys.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_RoundTrip(t *testing.T) {
	fsys := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "out", "nested")

	if err := fsys.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := fsys.WriteFile(filepath.Join(dir, "b.json"), []byte("{}"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	w, err := fsys.Create(filepath.Join(dir, "a.json"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	w.Write([]byte("[]"))
	w.Close()
	if err := fsys.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	names, err := fsys.ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if want := []string{"a.json", "b.json"}; !reflect.DeepEqual(names, want) {
		t.Errorf("ListFiles = %v, want %v", names, want)
	}

	if err := fsys.RemoveAll(dir); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if fsys.Exists(dir) {
		t.Error("expected directory to be removed")
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := mfs.WriteFile("/test.txt", []byte("hello, world"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := mfs.ReadFile("/test.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello, world" {
		t.Errorf("expected %q, got %q", "hello, world", data)
	}

	info, err := mfs.Stat("/test.txt")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 12 || info.IsDir() {
		t.Errorf("unexpected file info: size=%d dir=%v", info.Size(), info.IsDir())
	}
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/created.txt")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	w.Write([]byte("created content"))

	if data, _ := mfs.ReadFile("/created.txt"); len(data) != 0 {
		t.Errorf("expected empty file before Close, got %q", data)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	data, err := mfs.ReadFile("/created.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "created content" {
		t.Errorf("expected 'created content', got %q", data)
	}
}

func TestMemoryFileSystem_ListAndRemove(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.ListFiles("/out"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist for missing dir, got %v", err)
	}

	mfs.MkdirAll("/out/deep", 0755)
	mfs.WriteFile("/out/sim-1.json", []byte("1"), 0644)
	mfs.WriteFile("/out/sim-0.json", []byte("0"), 0644)
	mfs.WriteFile("/out/deep/other.json", []byte("x"), 0644)
	mfs.WriteFile("/outside.json", []byte("y"), 0644)

	names, err := mfs.ListFiles("/out")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if want := []string{"sim-0.json", "sim-1.json"}; !reflect.DeepEqual(names, want) {
		t.Errorf("ListFiles = %v, want %v", names, want)
	}

	if !mfs.Exists("/out/deep") {
		t.Error("expected nested directory to exist")
	}

	mfs.RemoveAll("/out")
	if mfs.Exists("/out") || mfs.Exists("/out/sim-0.json") || mfs.Exists("/out/deep/other.json") {
		t.Error("expected /out and its children to be removed")
	}
	if !mfs.Exists("/outside.json") {
		t.Error("sibling file should survive RemoveAll")
	}
}

func TestMemoryFileSystem_ReadMissing(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.ReadFile("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
	if _, err := mfs.Stat("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

var _ FileSystem = OSFileSystem{}
var _ FileSystem = (*MemoryFileSystem)(nil)
