package gateway

import (
	"errors"
	"testing"

	"github.com/spf13/afero"

	"github.com/xelalexv/wd1770/pkg/catalog"
	"github.com/xelalexv/wd1770/pkg/storage"
)

func flatBinding(name string, tracks, spt, size int, protected bool) *catalog.Descriptor {
	return &catalog.Descriptor{
		Name: name, Tracks: tracks, SectorsPerTrack: spt,
		SectorSize: size, WriteProtected: protected,
	}
}

func TestReadWriteFlatImageRoundTrip(t *testing.T) {

	fs := afero.NewMemMapFs()
	d := flatBinding("plain.img", 40, 9, 512, false)
	_ = afero.WriteFile(fs, d.Name, make([]byte, int64(d.Tracks)*int64(d.SectorsPerTrack)*int64(d.SectorSize)), 0644)

	backend := storage.NewAferoBackend(fs, ".")
	g := New(backend)
	binding := &catalog.SlotBinding{Bound: true, Descriptor: d}

	payload := make([]byte, d.SectorSize)
	for i := range payload {
		payload[i] = byte(i)
	}
	if err := g.Write(binding, 5, 3, payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := make([]byte, d.SectorSize)
	if err := g.Read(binding, 5, 3, got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Fatalf("byte %d: got %d want %d", i, got[i], payload[i])
		}
	}
}

func TestWriteRejectedWhenUnbound(t *testing.T) {
	backend := storage.NewAferoBackend(afero.NewMemMapFs(), ".")
	g := New(backend)
	if err := g.Write(&catalog.SlotBinding{}, 0, 1, make([]byte, 512)); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestWriteRejectedWhenWriteProtected(t *testing.T) {

	fs := afero.NewMemMapFs()
	d := flatBinding("ro.img", 40, 9, 512, true)
	_ = afero.WriteFile(fs, d.Name, make([]byte, 40*9*512), 0644)
	backend := storage.NewAferoBackend(fs, ".")
	g := New(backend)
	binding := &catalog.SlotBinding{Bound: true, Descriptor: d}

	err := g.Write(binding, 0, 1, make([]byte, 512))
	if !errors.Is(err, ErrWriteProtected) {
		t.Errorf("expected ErrWriteProtected, got %v", err)
	}
}

func TestReadRejectsSectorOutOfRange(t *testing.T) {

	d := flatBinding("plain.img", 40, 9, 512, false)
	backend := storage.NewAferoBackend(afero.NewMemMapFs(), ".")
	g := New(backend)
	binding := &catalog.SlotBinding{Bound: true, Descriptor: d}

	if err := g.Read(binding, 0, 10, make([]byte, 512)); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound for sector 10 of 9, got %v", err)
	}
	if err := g.Read(binding, 0, 0, make([]byte, 512)); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound for sector 0 (1-indexed), got %v", err)
	}
}

func TestHeaderedImageOffsetSkipsDiskAndTrackHeaders(t *testing.T) {

	fs := afero.NewMemMapFs()
	d := &catalog.Descriptor{
		Name: "ext.dsk", Tracks: 2, SectorsPerTrack: 2, SectorSize: 16,
		HasHeaderPrefix: true, DiskHeaderLength: 256, TrackHeaderLength: 256,
	}
	total := int64(d.DiskHeaderLength) + int64(d.Tracks)*d.TrackStride()
	_ = afero.WriteFile(fs, d.Name, make([]byte, total), 0644)

	backend := storage.NewAferoBackend(fs, ".")
	g := New(backend)
	binding := &catalog.SlotBinding{Bound: true, Descriptor: d}

	payload := []byte("0123456789012345")
	if err := g.Write(binding, 1, 2, payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	wantOffset := int64(d.DiskHeaderLength) + d.TrackStride() + int64(d.TrackHeaderLength) + int64(d.SectorSize)
	got := make([]byte, d.SectorSize)
	if _, err := backend.ReadFile(d.Name, wantOffset, got); err != nil {
		t.Fatalf("ReadFile at expected offset: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("sector not written at expected header-aware offset: got %q", got)
	}
}
