package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRemoveIfExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scratch.mp4")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := RemoveIfExists(path); err != nil {
		t.Fatalf("RemoveIfExists: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still present: %v", err)
	}
	if err := RemoveIfExists(path); err != nil {
		t.Errorf("second RemoveIfExists: %v", err)
	}
	if err := RemoveIfExists(""); err != nil {
		t.Errorf("RemoveIfExists(\"\"): %v", err)
	}
}

func TestEnsureDirAndFileSize(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if err := EnsureDir(""); err == nil {
		t.Errorf("EnsureDir(\"\") should fail")
	}

	path := filepath.Join(dir, "f")
	if err := os.WriteFile(path, make([]byte, 42), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := FileSize(path); got != 42 {
		t.Errorf("FileSize = %d, want 42", got)
	}
	if got := FileSize(filepath.Join(dir, "missing")); got != 0 {
		t.Errorf("FileSize(missing) = %d, want 0", got)
	}
}
