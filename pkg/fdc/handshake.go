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

package fdc

// sampleDriveSelect reads the two active-low drive-select lines, spec.md
// §4.3.6. DS0 takes priority over DS1 when, improperly, both are asserted
// at once; when neither is asserted the previously selected drive stays
// selected, matching the original firmware's checkDriveSelect.
func (e *Engine) sampleDriveSelect() {
	ds0 := !e.bus.Read(e.assignment.DS0)
	ds1 := !e.bus.Read(e.assignment.DS1)
	switch {
	case ds0:
		e.activeDrive = 0
	case ds1:
		e.activeDrive = 1
	}
}

// sampleEnable reads the active-low density-enable line. While
// de-asserted, the engine does not service bus cycles and releases the
// data bus, per spec.md §4.3.6.
func (e *Engine) sampleEnable() {
	e.enabled = !e.bus.Read(e.assignment.DDEN)
}

// refreshOutputs drives INTRQ and DRQ onto the bus. Status register bits
// are computed on demand in liveStatus, not cached here, so a host
// spinning on the status register always observes the engine's current
// busy/DRQ state rather than a snapshot from the last command transition.
func (e *Engine) refreshOutputs() {
	e.bus.Write(e.assignment.INTRQ, e.intrq)
	e.bus.Write(e.assignment.DRQ, e.drq)
}

// liveStatus composes the Status register value: live BUSY/DRQ bits, the
// TRACK00 bit when the latest command is a Type-I command, the
// write-protect bit of whatever image is bound to the active
// drive, and the sticky error bits left by the most recently completed
// command.
func (e *Engine) liveStatus() byte {

	var s byte

	if e.busy {
		s |= StatusBusy
	}
	if e.drq {
		s |= StatusDRQ
	}
	if e.command&0x80 == 0 && e.currentTrack == 0 {
		s |= StatusLostOrTrack0
	}
	if b, err := e.binding(); err == nil && b.Descriptor.WriteProtected {
		s |= StatusWriteProtect
	}

	return s | e.errorBits
}
