package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()

	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !FileExists(file) {
		t.Errorf("FileExists(%q) = false, want true", file)
	}
	if FileExists(filepath.Join(dir, "missing")) {
		t.Errorf("FileExists() = true for a missing file")
	}
	// directories are not files
	if FileExists(dir) {
		t.Errorf("FileExists() = true for a directory")
	}
	if !DirExists(dir) {
		t.Errorf("DirExists(%q) = false, want true", dir)
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()

	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload" {
		t.Errorf("copied content = %q, want %q", got, "payload")
	}

	// copying a file onto itself is a no-op
	if err := CopyFile(src, src); err != nil {
		t.Errorf("CopyFile() onto itself error = %v", err)
	}
}

func TestCreateFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out")

	if err := CreateFile(file, "content"); err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}

	got, err := ReadFileContent(file)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "content" {
		t.Errorf("content = %q, want %q", got, "content")
	}
}

func TestCreateDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	CreateDirectory(dir, 0o755)

	if !DirExists(dir) {
		t.Errorf("CreateDirectory() did not create %q", dir)
	}

	// creating it again must not panic or fail
	CreateDirectory(dir, 0o755)
}
