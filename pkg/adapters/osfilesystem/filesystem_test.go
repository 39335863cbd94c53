package osfilesystem

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFileSystem_WriteCreatesParentsAndReads(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "debug", "frames", "mask-0001.png")

	if err := fs.WriteFile(path, []byte("mask")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "mask" {
		t.Errorf("expected %q, got %q", "mask", data)
	}
}

func TestFileSystem_RenameReplaces(t *testing.T) {
	fs := New()
	dir := t.TempDir()
	tmp := filepath.Join(dir, "preview.jpg.tmp")
	dst := filepath.Join(dir, "preview.jpg")

	if err := fs.WriteFile(dst, []byte("old")); err != nil {
		t.Fatal(err)
	}
	if err := fs.WriteFile(tmp, []byte("new")); err != nil {
		t.Fatal(err)
	}

	if err := fs.Rename(tmp, dst); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	data, _ := fs.ReadFile(dst)
	if string(data) != "new" {
		t.Errorf("expected replaced content, got %q", data)
	}
	if exists, _ := fs.Exists(tmp); exists {
		t.Error("expected temporary file to be gone")
	}
}

func TestFileSystem_ReadDirListsSortedFiles(t *testing.T) {
	fs := New()
	dir := t.TempDir()

	for _, name := range []string{"0003.jpg", "0001.jpg", "0002.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := fs.MkdirAll(filepath.Join(dir, "nested")); err != nil {
		t.Fatal(err)
	}

	names, err := fs.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}

	want := []string{"0001.jpg", "0002.png", "0003.jpg"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("expected %v, got %v", want, names)
	}

	if _, err := fs.ReadDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFileSystem_ExistsAndRemove(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "bg.jpg")

	if exists, err := fs.Exists(path); err != nil || exists {
		t.Fatalf("expected missing file, got %v, %v", exists, err)
	}

	if err := fs.WriteFile(path, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if exists, _ := fs.Exists(path); !exists {
		t.Error("expected file to exist")
	}

	if err := fs.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if exists, _ := fs.Exists(path); exists {
		t.Error("expected file to be removed")
	}
}
