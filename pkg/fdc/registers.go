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

// readRegister implements the host-visible read side of the register file,
// spec.md §4.3.2. Reading the Data register in the middle of a sector
// transfer advances the staging buffer cursor and clears DRQ once the
// buffer is exhausted; reading Status clears a pending INTRQ, per the
// WD1770's own handshake convention.
func (e *Engine) readRegister(addr int) byte {
	switch addr {

	case RegStatusCommand:
		s := e.liveStatus()
		e.intrq = false
		return s

	case RegTrack:
		return e.track

	case RegSector:
		return e.sector

	case RegData:
		return e.readData()

	default:
		return 0xFF
	}
}

// writeRegister implements the host-visible write side of the register
// file. Writing the Status/Command register dispatches a new command;
// writing Data during a write transfer feeds the staging buffer.
func (e *Engine) writeRegister(addr int, value byte) {
	switch addr {

	case RegStatusCommand:
		e.dispatch(value)

	case RegTrack:
		e.track = value

	case RegSector:
		e.sector = value

	case RegData:
		e.writeData(value)
	}
}

// readData serves one byte of an in-progress sector read out of the
// staging buffer. Once the last byte has been consumed, DRQ drops and the
// engine enters SECTOR_READ_COMPLETE, which the state machine handles later
// in the same Tick.
func (e *Engine) readData() byte {

	if e.state != StateReadingSector || e.cursor >= e.length {
		return e.data
	}

	v := e.staging[e.cursor]
	e.data = v
	e.cursor++

	if e.cursor >= e.length {
		e.drq = false
		e.state = StateSectorReadComplete
	}

	return v
}

// writeData accepts one byte of an in-progress sector write into the
// staging buffer. Once the buffer is full, DRQ drops and the engine hands
// the sector to the Sector Gateway.
func (e *Engine) writeData(value byte) {

	e.data = value

	if e.state != StateWaitingForDataIn || e.cursor >= e.length {
		return
	}

	e.staging[e.cursor] = value
	e.cursor++

	if e.cursor >= e.length {
		e.drq = false
		e.state = StateWritingSector
		e.beginWriteDrain()
	}
}
