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

// Package storage abstracts the mass-storage medium the Image Catalog and
// Sector Gateway read and write disk images on. The core never talks to an
// SD card, a local disk, or a cloud bucket directly - it only ever talks to
// this capability, injected at construction.
package storage

import "io"

// Info describes one entry returned by Backend.List.
type Info struct {
	Name string
	Size int64
}

// Backend is random-access read/write of named byte files plus directory
// enumeration, as called for by spec.md's "storage backend" collaborator.
// An implementation is opened and closed per transfer by callers; Backend
// itself does not keep long-lived handles.
type Backend interface {
	// List enumerates the regular files directly under the backend's root,
	// in a stable, backend-defined order.
	List() ([]Info, error)
	// Open opens name for reading.
	Open(name string) (io.ReadCloser, error)
	// OpenWriter opens name for writing at an arbitrary offset; it must not
	// truncate existing content outside the written range.
	OpenWriter(name string) (io.WriteCloser, error)
	// ReadFile reads the named file from the given offset into buf,
	// returning the number of bytes actually read.
	ReadFile(name string, offset int64, buf []byte) (int, error)
	// WriteFile writes buf into the named file at the given offset and
	// flushes it to the backing medium before returning.
	WriteFile(name string, offset int64, buf []byte) error
	// Exists reports whether name exists directly under the root.
	Exists(name string) bool
	// Remove deletes name.
	Remove(name string) error
}

// WriterAt is satisfied by a file handle that supports positioned writes;
// callers of OpenWriter may type-assert to it when they need to avoid the
// read-modify-write dance WriteFile performs internally.
type WriterAt interface {
	WriteAt(p []byte, off int64) (int, error)
}
