package rotation

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func read(t *testing.T, name string) string {
	t.Helper()
	b, err := ioutil.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestRotate(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "vm.log")
	f := Create(base, 10, 2)

	f.Write([]byte("aaaa\n"))
	f.Write([]byte("bbbb\n"))
	f.Write([]byte("cc"))
	if got := read(t, base); got != "aaaa\nbbbb\n" {
		t.Errorf("base = %q", got)
	}

	f.Write([]byte("cc\n"))
	if got := read(t, base); got != "cccc\n" {
		t.Errorf("base after rotation = %q", got)
	}
	if got := read(t, base+".1"); got != "aaaa\nbbbb\n" {
		t.Errorf("base.1 = %q", got)
	}

	f.Write([]byte("dddd\neeee\n"))
	f.Write([]byte("ffff\n"))
	if got := read(t, base+".2"); got != "cccc\n" {
		t.Errorf("base.2 = %q", got)
	}
	if _, err := os.Stat(base + ".3"); !os.IsNotExist(err) {
		t.Errorf("base.3 exists, want at most 2 rotated files")
	}

	f.Write([]byte("partial"))
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if got := read(t, base); got != "partial\n" {
		t.Errorf("base after close = %q", got)
	}
	if got := read(t, base+".1"); got != "ffff\n" {
		t.Errorf("base.1 after close = %q", got)
	}
}

func TestWriteError(t *testing.T) {
	f := Create(filepath.Join(t.TempDir(), "missing", "vm.log"), 100, 1)
	n, err := f.Write([]byte("line\n"))
	if err == nil {
		t.Fatal("expected error opening file in a missing directory")
	}
	if n != 5 {
		t.Errorf("n = %d want 5", n)
	}
}
