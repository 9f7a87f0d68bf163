/*
   OqtaDrive - Sinclair Microdrive emulator
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of OqtaDrive.

   OqtaDrive is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   OqtaDrive is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with OqtaDrive. If not, see <http://www.gnu.org/licenses/>.
*/

package catalog

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/wd1770/pkg/storage"
)

var recognizedExtensions = []string{".dsk", ".img", ".st", ".hfe"}

func isRecognized(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range recognizedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// classify resolves the geometry of one file already known to exist on the
// backend: an exact flat-size match, or else a best-effort guess; then,
// when the filename extension allows it, an Extended-DSK/CPCEMU header
// overlay that replaces either result if the signatures check out.
func classify(backend storage.Backend, name string, size int64) (*Descriptor, error) {

	d := &Descriptor{Name: name, ByteLength: size}

	if g, ok := knownSizes[size]; ok {
		d.Tracks, d.SectorsPerTrack, d.SectorSize, d.DoubleDensity =
			g.tracks, g.sectorsPerTrack, g.sectorSize, g.doubleDensity
	} else {
		guessGeometry(d, size)
		d.Guessed = true
		log.Warnf("guessed geometry for %s: %s", name, d)
	}

	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".dsk") || strings.HasSuffix(lower, ".hfe") {
		if err := overlayExtendedDSK(backend, d); err != nil {
			log.Debugf("%s is not an Extended DSK image: %v", name, err)
		}
	}

	return d, nil
}

// guessGeometry classifies by divisibility, first against 256-byte sectors
// (Timex-style), then against 512-byte sectors, exactly as the original
// firmware's fallback path does.
func guessGeometry(d *Descriptor, size int64) {

	if size%256 == 0 {
		sectors256 := size / 256
		switch sectors256 {
		case 640: // 40 x 16
			d.Tracks, d.SectorsPerTrack, d.SectorSize = 40, 16, 256
			return
		case 1280: // 80 x 16
			d.Tracks, d.SectorsPerTrack, d.SectorSize = 80, 16, 256
			return
		}
	}

	d.SectorSize = 512
	d.DoubleDensity = true
	sectors512 := size / 512
	if sectors512 < 720 {
		d.Tracks = 40
	} else {
		d.Tracks = 80
	}
	if d.Tracks > 0 {
		d.SectorsPerTrack = int(sectors512) / d.Tracks
	}
}

const (
	extDSKHeaderSize   = 256
	extDSKTracksOffset = 0x30
	extDSKSidesOffset  = 0x31

	trackInfoSize           = 256
	trackInfoSectorsOffset  = 0x15
	trackInfoSizeCodeOffset = 0x14
)

var extDSKSignatures = [][]byte{
	[]byte("EXTENDED CPC DSK"),
	[]byte("MV - CPCEMU Disk"),
}

// overlayExtendedDSK reads the disk-information block and first
// track-information block and, if both signatures check out, overrides d's
// geometry with the header-derived values, exactly as
// original_source/wd1770/DiskManager.cpp's parseExtendedDSK.
func overlayExtendedDSK(backend storage.Backend, d *Descriptor) error {

	f, err := backend.Open(d.Name)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", d.Name, err)
	}
	defer f.Close()

	diskHeader := make([]byte, extDSKHeaderSize)
	if _, err := io.ReadFull(f, diskHeader); err != nil {
		return fmt.Errorf("error reading disk header: %w", err)
	}

	matched := false
	for _, sig := range extDSKSignatures {
		if bytes.HasPrefix(diskHeader, sig) {
			matched = true
			break
		}
	}
	if !matched {
		return fmt.Errorf("no Extended DSK signature")
	}

	tracks := int(diskHeader[extDSKTracksOffset])
	sides := int(diskHeader[extDSKSidesOffset])
	if sides > 1 {
		return fmt.Errorf(
			"multi-side image (%d sides) rejected: single surface addressing only", sides)
	}

	trackHeader := make([]byte, trackInfoSize)
	if _, err := io.ReadFull(f, trackHeader); err != nil {
		return fmt.Errorf("error reading track header: %w", err)
	}
	if !bytes.HasPrefix(trackHeader, []byte("Track-Info")) {
		return fmt.Errorf("invalid Track-Info signature")
	}

	sectorsPerTrack := int(trackHeader[trackInfoSectorsOffset])
	sectorSize := 128 << trackHeader[trackInfoSizeCodeOffset]

	d.Tracks = tracks
	d.SectorsPerTrack = sectorsPerTrack
	d.SectorSize = sectorSize
	d.DoubleDensity = sectorSize >= 512
	d.HasHeaderPrefix = true
	d.DiskHeaderLength = extDSKHeaderSize
	d.TrackHeaderLength = trackInfoSize
	d.Guessed = false

	return nil
}
