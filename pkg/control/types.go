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

package control

import (
	"fmt"

	"github.com/xelalexv/wd1770/pkg/catalog"
)

// Status is the current state of the running FDC engine.
type Status struct {
	Drive int    `json:"drive"`
	State string `json:"state"`
	Track uint8  `json:"track"`
	Motor bool   `json:"motor"`
	Busy  bool   `json:"busy"`
}

func (s *Status) String() string {
	return fmt.Sprintf("drive %d: state=%s track=%d motor=%t busy=%t",
		s.Drive, s.State, s.Track, s.Motor, s.Busy)
}

// Image describes one catalog entry, for the /list response.
type Image struct {
	Index           int    `json:"index"`
	Name            string `json:"name"`
	Tracks          int    `json:"tracks"`
	SectorsPerTrack int    `json:"sectorsPerTrack"`
	SectorSize      int    `json:"sectorSize"`
	DoubleDensity   bool   `json:"doubleDensity"`
	WriteProtected  bool   `json:"writeProtected"`
	Guessed         bool   `json:"guessed"`
}

func imageFromDescriptor(ix int, d *catalog.Descriptor) *Image {
	return &Image{
		Index:           ix,
		Name:            d.Name,
		Tracks:          d.Tracks,
		SectorsPerTrack: d.SectorsPerTrack,
		SectorSize:      d.SectorSize,
		DoubleDensity:   d.DoubleDensity,
		WriteProtected:  d.WriteProtected,
		Guessed:         d.Guessed,
	}
}

// Drive is the binding state of one slot. None of the current handlers
// reply with it.
type Drive struct {
	Slot         int    `json:"slot"`
	Bound        bool   `json:"bound"`
	Name         string `json:"name,omitempty"`
	CurrentTrack uint8  `json:"currentTrack"`
}
