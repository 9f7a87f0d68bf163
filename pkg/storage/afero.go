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

package storage

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/afero"
)

// AferoBackend is a Backend over an afero.Fs, rooted at a directory. Pass
// afero.NewOsFs() for a real disk-backed catalog, or afero.NewMemMapFs()
// for hosted tests that never want to touch the real filesystem.
type AferoBackend struct {
	fs   afero.Fs
	root string
}

// NewAferoBackend returns a Backend rooted at root on fs.
func NewAferoBackend(fs afero.Fs, root string) *AferoBackend {
	return &AferoBackend{fs: fs, root: root}
}

func (a *AferoBackend) join(name string) string {
	if a.root == "" || a.root == "." {
		return name
	}
	return a.root + "/" + name
}

// List enumerates regular files directly under the root, sorted by name so
// that enumeration order is stable across calls and independent of the
// underlying filesystem's directory order.
func (a *AferoBackend) List() ([]Info, error) {

	entries, err := afero.ReadDir(a.fs, a.root)
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", a.root, err)
	}

	ret := make([]Info, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			ret = append(ret, Info{Name: e.Name(), Size: e.Size()})
		}
	}

	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret, nil
}

// Open opens name for reading.
func (a *AferoBackend) Open(name string) (io.ReadCloser, error) {
	f, err := a.fs.Open(a.join(name))
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", name, err)
	}
	return f, nil
}

// OpenWriter opens name for writing without truncating existing content,
// creating it if it does not exist yet.
func (a *AferoBackend) OpenWriter(name string) (io.WriteCloser, error) {
	f, err := a.fs.OpenFile(a.join(name), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening %s for write: %w", name, err)
	}
	return f, nil
}

// ReadFile reads len(buf) bytes from name at offset.
func (a *AferoBackend) ReadFile(
	name string, offset int64, buf []byte) (int, error) {

	f, err := a.fs.Open(a.join(name))
	if err != nil {
		return 0, fmt.Errorf("error opening %s: %w", name, err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return 0, fmt.Errorf("error seeking %s: %w", name, err)
	}

	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return n, fmt.Errorf("error reading %s: %w", name, err)
	}
	return n, nil
}

// WriteFile writes buf into name at offset and flushes before returning.
func (a *AferoBackend) WriteFile(name string, offset int64, buf []byte) error {

	f, err := a.fs.OpenFile(a.join(name), os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("error opening %s for write: %w", name, err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("error seeking %s: %w", name, err)
	}

	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("error writing %s: %w", name, err)
	}

	if s, ok := f.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil {
			return fmt.Errorf("error flushing %s: %w", name, err)
		}
	}
	return nil
}

// Exists reports whether name exists directly under the root.
func (a *AferoBackend) Exists(name string) bool {
	ok, _ := afero.Exists(a.fs, a.join(name))
	return ok
}

// Remove deletes name.
func (a *AferoBackend) Remove(name string) error {
	return a.fs.Remove(a.join(name))
}
