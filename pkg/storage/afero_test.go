package storage

import (
	"testing"

	"github.com/spf13/afero"
)

func newTestBackend(t *testing.T) *AferoBackend {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "disk.dsk", make([]byte, 1024), 0644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	return NewAferoBackend(fs, ".")
}

func TestAferoBackendListSkipsDirs(t *testing.T) {

	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "a.dsk", []byte("a"), 0644)
	_ = afero.WriteFile(fs, "b.img", []byte("b"), 0644)
	_ = fs.MkdirAll("subdir", 0755)

	b := NewAferoBackend(fs, ".")
	entries, err := b.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "a.dsk" || entries[1].Name != "b.img" {
		t.Errorf("entries not sorted by name: %+v", entries)
	}
}

func TestAferoBackendReadWriteRoundTrip(t *testing.T) {

	b := newTestBackend(t)

	payload := []byte("sector-payload")
	if err := b.WriteFile("disk.dsk", 100, payload); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	buf := make([]byte, len(payload))
	n, err := b.ReadFile("disk.dsk", 100, buf)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("short read: %d", n)
	}
	if string(buf) != string(payload) {
		t.Errorf("got %q, want %q", buf, payload)
	}
}

func TestAferoBackendWriteDoesNotTruncate(t *testing.T) {

	b := newTestBackend(t)

	if err := b.WriteFile("disk.dsk", 0, []byte("HEAD")); err != nil {
		t.Fatalf("WriteFile head: %v", err)
	}
	if err := b.WriteFile("disk.dsk", 512, []byte("TAIL")); err != nil {
		t.Fatalf("WriteFile tail: %v", err)
	}

	buf := make([]byte, 4)
	if _, err := b.ReadFile("disk.dsk", 0, buf); err != nil {
		t.Fatalf("ReadFile head: %v", err)
	}
	if string(buf) != "HEAD" {
		t.Errorf("head corrupted: %q", buf)
	}
}

func TestAferoBackendExistsAndRemove(t *testing.T) {

	b := newTestBackend(t)

	if !b.Exists("disk.dsk") {
		t.Fatal("expected disk.dsk to exist")
	}
	if b.Exists("nope.dsk") {
		t.Fatal("did not expect nope.dsk to exist")
	}
	if err := b.Remove("disk.dsk"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if b.Exists("disk.dsk") {
		t.Fatal("expected disk.dsk to be gone")
	}
}
