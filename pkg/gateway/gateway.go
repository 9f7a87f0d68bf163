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

// Package gateway implements the Sector Gateway: given a live slot
// binding, a logical (track, sector) pair and a direction, it computes a
// byte offset into the underlying image file and transfers exactly one
// sector's worth of bytes to or from a caller-supplied buffer.
package gateway

import (
	"errors"
	"fmt"

	"github.com/xelalexv/wd1770/pkg/catalog"
	"github.com/xelalexv/wd1770/pkg/storage"
)

// ErrRecordNotFound is returned when there is no binding, the sector index
// is out of range, or the underlying transfer underruns the expected
// length.
var ErrRecordNotFound = errors.New("record not found")

// ErrWriteProtected is returned when a write is attempted against an image
// whose Descriptor marks it write-protected.
var ErrWriteProtected = errors.New("write protected")

// Gateway performs sector-addressed I/O against a storage.Backend. It never
// changes slot bindings or geometry.
type Gateway struct {
	backend storage.Backend
}

// New creates a Gateway reading and writing through backend.
func New(backend storage.Backend) *Gateway {
	return &Gateway{backend: backend}
}

// Read fills dest (exactly binding.Descriptor.SectorSize bytes) with the
// content of logical sector (track, sector), 1-indexed sector.
func (g *Gateway) Read(binding *catalog.SlotBinding, track, sector int, dest []byte) error {

	d, err := g.validate(binding, sector)
	if err != nil {
		return err
	}

	offset, err := g.offset(d, track, sector)
	if err != nil {
		return err
	}

	n, err := g.backend.ReadFile(d.Name, offset, dest[:d.SectorSize])
	if err != nil || n != d.SectorSize {
		return fmt.Errorf("%w: %s track %d sector %d", ErrRecordNotFound, d.Name, track, sector)
	}
	return nil
}

// Write persists src (exactly binding.Descriptor.SectorSize bytes) to
// logical sector (track, sector), 1-indexed sector, and ensures a flush
// before returning.
func (g *Gateway) Write(binding *catalog.SlotBinding, track, sector int, src []byte) error {

	d, err := g.validate(binding, sector)
	if err != nil {
		return err
	}

	if d.WriteProtected {
		return fmt.Errorf("%w: %s", ErrWriteProtected, d.Name)
	}

	offset, err := g.offset(d, track, sector)
	if err != nil {
		return err
	}

	if err := g.backend.WriteFile(d.Name, offset, src[:d.SectorSize]); err != nil {
		return fmt.Errorf("%w: %s track %d sector %d: %v",
			ErrWriteProtected, d.Name, track, sector, err)
	}
	return nil
}

func (g *Gateway) validate(binding *catalog.SlotBinding, sector int) (*catalog.Descriptor, error) {
	if binding == nil || !binding.Bound {
		return nil, fmt.Errorf("%w: no image bound", ErrRecordNotFound)
	}
	d := binding.Descriptor
	if sector < 1 || sector > d.SectorsPerTrack {
		return nil, fmt.Errorf("%w: sector %d out of range [1,%d]",
			ErrRecordNotFound, sector, d.SectorsPerTrack)
	}
	return d, nil
}

// offset computes the byte offset of logical sector (track, sector) within
// d's backing file, per spec.md §4.2: a flat layout for plain images, or
// the header-aware layout for images with a disk/track header prefix.
func (g *Gateway) offset(d *catalog.Descriptor, track, sector int) (int64, error) {

	if d.HasHeaderPrefix {
		stride := d.TrackStride()
		return int64(d.DiskHeaderLength) +
			int64(track)*stride +
			int64(d.TrackHeaderLength) +
			int64(sector-1)*int64(d.SectorSize), nil
	}

	return (int64(track)*int64(d.SectorsPerTrack) + int64(sector-1)) *
		int64(d.SectorSize), nil
}
