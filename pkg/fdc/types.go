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

// Package fdc is the WD1770-facing bus-and-command engine: register
// decoding on address+strobe edges, a bidirectional data bus with ownership
// handoff, the command decoder, the timed sequencing state machine, and
// the DRQ/INTRQ handshake. It is the core of the emulator; everything else
// in this module exists to feed it a catalogued image and a place to put
// bytes.
package fdc

import "time"

// Status bits, as observed by the host on the Status register (spec.md §6).
const (
	StatusBusy         = 0x01
	StatusDRQ          = 0x02 // or INDEX on Type-I
	StatusLostOrTrack0 = 0x04 // LOST DATA on Type-II, TRACK00 on Type-I
	StatusCRCError     = 0x08 // never asserted; wire CRC is not simulated
	StatusRNF          = 0x10 // RECORD NOT FOUND / SEEK ERROR
	StatusRecordType   = 0x20 // reserved; not asserted
	StatusWriteProtect = 0x40
	StatusNotReady     = 0x80
)

// Register addresses, selected by (A1<<1)|A0.
const (
	RegStatusCommand = 0
	RegTrack         = 1
	RegSector        = 2
	RegData          = 3
)

// MaxTracks is the highest physical track the simulated head can reach,
// matching catalog.MaxTracks.
const MaxTracks = 83

// StagingBufferSize is the size of the engine's fixed I/O buffer, sized for
// the largest supported sector (1024 bytes, size code 3).
const StagingBufferSize = 1024

// Step rates selectable by the two low bits of a Type-I command.
const (
	StepRate6ms  = 6000 * time.Microsecond
	StepRate12ms = 12000 * time.Microsecond
	StepRate20ms = 20000 * time.Microsecond
	StepRate30ms = 30000 * time.Microsecond
)

var stepRates = [4]time.Duration{StepRate6ms, StepRate12ms, StepRate20ms, StepRate30ms}

// HeadSettleTime is the extra delay inserted after a Type-I seek settles,
// when the command's head-load modifier bit is set. Restored from
// original_source/wd1770/FdcDevice.h's HEAD_SETTLE_TIME; spec.md names the
// head-load modifier bit but never wires it to behavior.
const HeadSettleTime = 15000 * time.Microsecond

// State is the FDC's sequencing state, spec.md §3/§4.3.4.
type State int

const (
	StateIdle State = iota
	StateSeeking
	StateSettling
	StateReadingSector
	StateSectorReadComplete
	StateWaitingForDataIn
	StateWritingSector
	StateSectorWriteComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateSeeking:
		return "SEEKING"
	case StateSettling:
		return "SETTLING"
	case StateReadingSector:
		return "READING_SECTOR"
	case StateSectorReadComplete:
		return "SECTOR_READ_COMPLETE"
	case StateWaitingForDataIn:
		return "WAITING_FOR_DATA_IN"
	case StateWritingSector:
		return "WRITING_SECTOR"
	case StateSectorWriteComplete:
		return "SECTOR_WRITE_COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// Clock returns elapsed, monotonic time since some fixed reference. Engine
// never calls time.Now() directly; this indirection lets tests fast-forward
// step-rate and settle timers deterministically.
type Clock func() time.Duration
