package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFSStorePutGetDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	key, err := s.Put("questions/a.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if key != "questions/a.png" || s.URL(key) != "/assets/questions/a.png" {
		t.Fatalf("key = %q url = %q", key, s.URL(key))
	}
	if _, err := os.Stat(filepath.Join(dir, "questions", "a.png")); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	rc, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	rc.Close()
	if string(b) != "png-bytes" {
		t.Fatalf("content = %q", b)
	}

	if err := s.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(key); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if _, err := s.Get(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
}

func TestFSStoreStaysInBase(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "blobs")
	s, err := NewFSStore(base)
	if err != nil {
		t.Fatal(err)
	}
	key, err := s.Put("../../escape.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if key != "escape.txt" {
		t.Fatalf("key = %q", key)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.txt")); !os.IsNotExist(err) {
		t.Fatalf("file escaped base dir")
	}
	if _, err := s.Put("", strings.NewReader("x")); err == nil {
		t.Fatal("empty key accepted")
	}
}

func TestKeyFromURL(t *testing.T) {
	if k, ok := KeyFromURL("/assets/questions/x.png"); !ok || k != "questions/x.png" {
		t.Fatalf("KeyFromURL = %q, %v", k, ok)
	}
	if _, ok := KeyFromURL("https://cdn.example.com/x.png"); ok {
		t.Fatal("foreign URL treated as local")
	}
}
