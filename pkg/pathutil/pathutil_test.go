package pathutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestIsNormalizedRejectsDotComponent(t *testing.T) {
	if IsNormalized("foo/./bar") {
		t.Fatal("path with a '.' component reported normalized")
	}
}

func TestIsNormalizedRejectsDotDotComponent(t *testing.T) {
	if IsNormalized("foo/../bar") {
		t.Fatal("path with a '..' component reported normalized")
	}
}

func TestIsNormalizedAcceptsCleanRelativePath(t *testing.T) {
	if !IsNormalized("foo/bar/baz") {
		t.Fatal("clean relative path reported denormalized")
	}
}

func TestIsNormalizedAcceptsNonexistentPath(t *testing.T) {
	if !IsNormalized(filepath.Join(t.TempDir(), "does", "not", "exist")) {
		t.Fatal("nonexistent path without denormalizing components reported denormalized")
	}
}

func TestIsNormalizedRejectsIntermediateSymlink(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	if err := os.Mkdir(real, 0755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Fatal(err)
	}
	if IsNormalized(filepath.Join(link, "child")) {
		t.Fatal("path through an intermediate symlink reported normalized")
	}
}

func TestIsNormalizedAcceptsLeafSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}
	if !IsNormalized(link) {
		t.Fatal("path naming a leaf symlink reported denormalized")
	}
}

func TestClassifyModeDirectory(t *testing.T) {
	typ, err := ClassifyMode("some/dir", os.ModeDir|0755)
	if err != nil {
		t.Fatal(err)
	}
	if typ != TypeDirectory {
		t.Fatalf("expected TypeDirectory, got %v", typ)
	}
}

func TestClassifyModeRegular(t *testing.T) {
	typ, err := ClassifyMode("some/file", 0644)
	if err != nil {
		t.Fatal(err)
	}
	if typ != TypeFile {
		t.Fatalf("expected TypeFile, got %v", typ)
	}
}

func TestClassifyModeSymlink(t *testing.T) {
	typ, err := ClassifyMode("some/link", os.ModeSymlink|0777)
	if err != nil {
		t.Fatal(err)
	}
	if typ != TypeSymlink {
		t.Fatalf("expected TypeSymlink, got %v", typ)
	}
}

func TestClassifyModeRejectsNamedPipe(t *testing.T) {
	_, err := ClassifyMode("some/fifo", os.ModeNamedPipe|0644)
	if err == nil {
		t.Fatal("expected an error classifying a FIFO")
	}
	var invalid *InvalidTypeError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidTypeError, got %T", err)
	}
}
