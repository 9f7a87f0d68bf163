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

// Package catalog implements the Image Catalog: enumerating disk image
// files from a storage.Backend, classifying their geometry, and owning the
// two slot bindings the FDC Engine reads from.
package catalog

import "fmt"

// known flat-image sizes, in the priority order the original firmware
// checks them.
const (
	sizeTimexSS = 163840
	sizeTimexDS = 327680
	size525DD   = 184320
	size35DD    = 368640
	size35DDHD  = 737280
	sizeCPCExt  = 174336
)

type geometry struct {
	tracks, sectorsPerTrack, sectorSize int
	doubleDensity                       bool
}

var knownSizes = map[int64]geometry{
	sizeTimexSS: {40, 16, 256, false},
	sizeTimexDS: {80, 16, 256, false},
	size525DD:   {40, 9, 512, true},
	size35DD:    {40, 9, 512, true},
	size35DDHD:  {80, 9, 512, true},
	sizeCPCExt:  {40, 9, 512, true},
}

// MaxTracks is the highest physical track number the simulated head can
// reach; it doubles as the clamp bound for the FDC engine's current track.
const MaxTracks = 83

// Descriptor is the classification of one catalogued image file. It is
// immutable once returned by classify.
type Descriptor struct {
	Name            string
	ByteLength      int64
	Tracks          int
	SectorsPerTrack int
	SectorSize      int
	DoubleDensity   bool
	WriteProtected  bool

	HasHeaderPrefix  bool
	DiskHeaderLength int
	TrackHeaderLength int

	Guessed bool
}

// TrackStride returns the byte span of one track on a headered image,
// i.e. the track header plus all its sector payloads.
func (d *Descriptor) TrackStride() int64 {
	return int64(d.TrackHeaderLength) + int64(d.SectorsPerTrack)*int64(d.SectorSize)
}

// String renders the geometry the way the original firmware logs it.
func (d *Descriptor) String() string {
	guessed := ""
	if d.Guessed {
		guessed = " (guessed)"
	}
	return fmt.Sprintf("%s: %dT/%dS/%dB%s",
		d.Name, d.Tracks, d.SectorsPerTrack, d.SectorSize, guessed)
}
