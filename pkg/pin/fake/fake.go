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

// Package fake is an in-memory pin.Bus for tests and for hosted daemon runs
// that have no real adapter attached. The host side of the bus (a test, or
// a protocol bridge) drives it through the same Read/Write methods, and can
// inspect configured pin directions through Direction.
package fake

import (
	"sync"

	"github.com/xelalexv/wd1770/pkg/pin"
)

// Bus is a fake pin.Bus backed by a map of pin levels and directions.
type Bus struct {
	mutex sync.Mutex
	level map[int]bool
	dir   map[int]pin.Direction
}

// New creates a new, empty fake bus. All pins read low until configured and
// driven otherwise.
func New() *Bus {
	return &Bus{
		level: map[int]bool{},
		dir:   map[int]pin.Direction{},
	}
}

// Read returns the current level of p.
func (b *Bus) Read(p int) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.level[p]
}

// Write sets the level of p. The engine calls this for pins it owns as
// Output; the host side (test code) calls it for pins the engine treats as
// Input, e.g. to assert chip-select or place a command byte on the data
// bus.
func (b *Bus) Write(p int, level bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.level[p] = level
}

// Configure records the direction of p. The fake bus does not enforce
// direction on Read/Write; it exists so tests can assert the engine
// configured a pin correctly.
func (b *Bus) Configure(p int, dir pin.Direction) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.dir[p] = dir
}

// Direction returns the last direction p was configured with.
func (b *Bus) Direction(p int) pin.Direction {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.dir[p]
}
