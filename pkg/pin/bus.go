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

// Package pin provides the pin-level I/O capability the FDC engine is built
// against. The engine never touches hardware directly; it is handed a Bus
// at construction and reads/writes/configures numbered lines through it.
package pin

// Direction is the electrical direction of a single line.
type Direction int

const (
	// Input marks a line as driven by the host side, read by the engine.
	Input Direction = iota
	// Output marks a line as driven by the engine.
	Output
)

// Bus is the capability the FDC engine consumes for every pin it owns:
// the eight data lines, the two address lines, chip-select, read/write
// strobe, INTRQ, DRQ, density-enable, and the two drive-select lines. On
// bare-metal targets an implementation is a thin wrapper around
// memory-mapped I/O; on hosted test harnesses it is a fake driven by the
// test.
type Bus interface {
	// Read returns the current level of pin.
	Read(p int) bool
	// Write drives pin to level. Writing a pin configured as Input is a
	// programming error the implementation may choose to ignore or log.
	Write(p int, level bool)
	// Configure sets the direction of pin.
	Configure(p int, dir Direction)
}

// Assignment names the physical pin numbers the engine drives through a
// Bus. The numbering scheme is meaningless to the engine itself - it only
// ever uses the symbolic fields below - so any Bus implementation is free
// to map them onto whatever underlying identifiers it needs.
type Assignment struct {
	D0, D1, D2, D3, D4, D5, D6, D7 int
	A0, A1                         int
	CS                             int
	RW                             int
	INTRQ, DRQ                     int
	DDEN                           int
	DS0, DS1                       int
}

// DataPins returns the eight data line identifiers in D0..D7 order.
func (a Assignment) DataPins() [8]int {
	return [8]int{a.D0, a.D1, a.D2, a.D3, a.D4, a.D5, a.D6, a.D7}
}

// DefaultAssignment is the pin numbering used when no board-specific
// mapping is given: BCM GPIO numbers for the pkg/pin/rpio backend,
// arbitrary-but-stable frame identifiers for pkg/pin/serial and
// pkg/pin/fake (which don't care about electrical pin numbers at all).
var DefaultAssignment = Assignment{
	D0: 0, D1: 1, D2: 2, D3: 3, D4: 4, D5: 5, D6: 6, D7: 7,
	A0: 8, A1: 9,
	CS: 10,
	RW: 11,
	INTRQ: 12, DRQ: 13,
	DDEN: 14,
	DS0:  15, DS1: 16,
}
