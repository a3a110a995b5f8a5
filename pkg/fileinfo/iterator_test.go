package fileinfo

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func buildTree(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("b"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestIteratorVisitsParentBeforeChildren(t *testing.T) {
	dir := t.TempDir()
	buildTree(t, dir)

	it := NewIterator([]string{dir}, nil, []string{"sha256"}, nil)
	var paths []string
	advance := Descend
	for {
		fi, err := it.Next(advance)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		paths = append(paths, fi.Path)
		advance = Descend
	}

	if len(paths) == 0 || paths[0] != filepath.ToSlash(dir) {
		t.Fatalf("expected root to be visited first, got %v", paths)
	}
}

func TestIteratorSkipPrunesChildren(t *testing.T) {
	dir := t.TempDir()
	buildTree(t, dir)

	it := NewIterator([]string{dir}, nil, nil, nil)
	fi, err := it.Next(Descend)
	if err != nil {
		t.Fatal(err)
	}
	if !fi.IsDir() {
		t.Fatalf("expected the root to be a directory, got %v", fi.Type)
	}

	// Skip the root: no child of dir should ever be yielded.
	_, err = it.Next(Skip)
	if err != nil && err != io.EOF {
		t.Fatal(err)
	}
	for {
		next, err := it.Next(Descend)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		t.Fatalf("expected no further entries after skipping the root, got %s", next.Path)
	}
}

func TestIteratorAppliesExcludes(t *testing.T) {
	dir := t.TempDir()
	buildTree(t, dir)

	it := NewIterator([]string{dir}, []string{filepath.ToSlash(dir) + "/sub"}, nil, nil)
	var sawSub bool
	advance := Descend
	for {
		fi, err := it.Next(advance)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if fi.Path == filepath.ToSlash(dir)+"/sub" {
			sawSub = true
		}
		advance = Descend
	}
	if sawSub {
		t.Fatal("excluded directory was still visited")
	}
}
