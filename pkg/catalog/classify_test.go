package catalog

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/xelalexv/wd1770/pkg/storage"
)

func TestClassifyExactSize(t *testing.T) {

	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "disk.img", make([]byte, size525DD), 0644)
	backend := storage.NewAferoBackend(fs, ".")

	d, err := classify(backend, "disk.img", size525DD)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if d.Tracks != 40 || d.SectorsPerTrack != 9 || d.SectorSize != 512 {
		t.Errorf("unexpected geometry: %+v", d)
	}
	if d.Guessed {
		t.Error("exact-size match should not be marked guessed")
	}
}

func TestGuessGeometry256ByteSectors(t *testing.T) {

	d := &Descriptor{}
	guessGeometry(d, 1280*256)

	if d.Tracks != 80 || d.SectorsPerTrack != 16 || d.SectorSize != 256 {
		t.Errorf("unexpected guessed geometry: %+v", d)
	}
}

func TestClassifyGuessesUnknownSize(t *testing.T) {

	fs := afero.NewMemMapFs()
	const oddSize = 819200 // 3200 256-byte sectors, not a Timex size, forces the 512-byte fallback
	_ = afero.WriteFile(fs, "odd.img", make([]byte, oddSize), 0644)
	backend := storage.NewAferoBackend(fs, ".")

	d, err := classify(backend, "odd.img", oddSize)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !d.Guessed {
		t.Error("expected geometry to be guessed")
	}
	if d.SectorSize != 512 {
		t.Errorf("unexpected guessed sector size: %d", d.SectorSize)
	}
}

func TestClassifyGuessSmallImageGets40Tracks(t *testing.T) {

	fs := afero.NewMemMapFs()
	const size = 368131 // not %256==0, and under 720 512-byte sectors (719)
	_ = afero.WriteFile(fs, "weird.st", make([]byte, size), 0644)
	backend := storage.NewAferoBackend(fs, ".")

	d, err := classify(backend, "weird.st", size)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if d.SectorSize != 512 || d.Tracks != 40 {
		t.Errorf("expected 40T/512B fallback, got %+v", d)
	}
}

func buildExtendedDSK(tracks, sides, sectorsPerTrack int, sizeCode byte) []byte {

	disk := make([]byte, extDSKHeaderSize)
	copy(disk, "EXTENDED CPC DSK File\r\n")
	disk[extDSKTracksOffset] = byte(tracks)
	disk[extDSKSidesOffset] = byte(sides)

	track := make([]byte, trackInfoSize)
	copy(track, "Track-Info\r\n")
	track[trackInfoSectorsOffset] = byte(sectorsPerTrack)
	track[trackInfoSizeCodeOffset] = sizeCode

	return append(disk, track...)
}

func TestClassifyOverlaysExtendedDSK(t *testing.T) {

	fs := afero.NewMemMapFs()
	image := buildExtendedDSK(42, 1, 9, 2)
	_ = afero.WriteFile(fs, "game.dsk", image, 0644)
	backend := storage.NewAferoBackend(fs, ".")

	d, err := classify(backend, "game.dsk", int64(len(image)))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !d.HasHeaderPrefix {
		t.Fatal("expected Extended DSK overlay to apply")
	}
	if d.Tracks != 42 || d.SectorsPerTrack != 9 || d.SectorSize != 512 {
		t.Errorf("unexpected overlaid geometry: %+v", d)
	}
}

func TestClassifyRejectsMultiSideExtendedDSK(t *testing.T) {

	fs := afero.NewMemMapFs()
	image := buildExtendedDSK(42, 2, 9, 2)
	_ = afero.WriteFile(fs, "game.dsk", image, 0644)
	backend := storage.NewAferoBackend(fs, ".")

	d, err := classify(backend, "game.dsk", int64(len(image)))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	// overlay failed, so the pre-overlay guessed geometry survives instead
	if d.HasHeaderPrefix {
		t.Error("multi-side image must not get the header overlay applied")
	}
}
