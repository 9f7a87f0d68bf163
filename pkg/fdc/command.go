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

import (
	"errors"

	"github.com/xelalexv/wd1770/pkg/catalog"
)

// errNoCatalog marks a command that needs a bound image but found the
// active drive's slot empty.
var errNoCatalog = errors.New("no image bound")

// Command nibble patterns, spec.md §4.3.3. Masking and comparing against
// these mirrors original_source/wd1770/FdcDevice.cpp's command decoder.
const (
	cmdRestore  = 0x00
	cmdSeek     = 0x10
	cmdStep     = 0x20
	cmdStepIn   = 0x40
	cmdStepOut  = 0x60
	cmdReadSec  = 0x80
	cmdReadSecs = 0x90
	cmdWriteSec = 0xA0
	cmdWriteSecs = 0xB0
	cmdReadAddr = 0xC0
	cmdForceInt = 0xD0
)

// Type-I modifier bits.
const (
	modStepRateMask = 0x03
	modHeadLoad     = 0x04
	modVerify       = 0x08
	modUpdateTrack  = 0x10
)

// dispatch decodes a command byte written to the Status/Command register
// and starts the corresponding operation. A command written while the
// engine is already busy is ignored, matching the WD1770's own behavior of
// refusing a new command mid-operation (force-interrupt is the only
// exception, handled separately below).
func (e *Engine) dispatch(cmd byte) {

	e.command = cmd

	if e.busy && (cmd&0xF0) != cmdForceInt {
		return
	}
	e.errorBits = 0

	op := cmd & 0xF0
	if op >= cmdStep && op < cmdReadSec {
		// step-class commands carry the update-track flag in bit 4, so they
		// are decoded by their high three bits
		op &= 0xE0
	}

	switch op {

	case cmdRestore:
		e.startSeek(0, cmd, true)

	case cmdSeek:
		e.startSeek(int(e.data), cmd, false)

	case cmdStep:
		e.startStep(e.direction, cmd)

	case cmdStepIn:
		e.direction = 1
		e.startStep(1, cmd)

	case cmdStepOut:
		e.direction = -1
		e.startStep(-1, cmd)

	case cmdReadSec:
		e.startRead(cmd, false)

	case cmdReadSecs:
		e.startRead(cmd, true)

	case cmdWriteSec:
		e.startWrite(cmd, false)

	case cmdWriteSecs:
		e.startWrite(cmd, true)

	case cmdReadAddr:
		e.startReadAddress(cmd)

	case cmdForceInt:
		e.forceInterrupt(cmd)

	default:
		e.log().Warnf("unrecognized command byte 0x%02X", cmd)
		e.raiseError(StatusRNF)
	}
}

func (e *Engine) beginCommand() {
	e.busy = true
	e.drq = false
	e.errorBits = 0
	e.operationStart = e.now()
}

// startSeek begins a Type-I RESTORE or SEEK. target is the destination
// track; forceTrackZero marks RESTORE, which always zeroes the Track
// register regardless of the update-track modifier (the WD1770 treats
// RESTORE as an unconditional recalibration).
func (e *Engine) startSeek(target int, cmd byte, forceTrackZero bool) {

	e.beginCommand()
	e.stepRate = stepRates[cmd&modStepRateMask]
	e.headLoad = cmd&modHeadLoad != 0
	e.state = StateSeeking

	if forceTrackZero {
		e.pendingSeekTarget = 0
		e.pendingForceTrackZero = true
	} else {
		if target < 0 {
			target = 0
		}
		if target > MaxTracks {
			target = MaxTracks
		}
		e.pendingSeekTarget = target
		e.pendingForceTrackZero = false
	}
	e.pendingUpdateTrack = forceTrackZero || cmd&modUpdateTrack != 0
}

// startStep begins a Type-I STEP/STEP IN/STEP OUT: the head moves by
// exactly one track in dir, clamped to [0, MaxTracks].
func (e *Engine) startStep(dir int8, cmd byte) {

	e.beginCommand()
	e.stepRate = stepRates[cmd&modStepRateMask]
	e.headLoad = cmd&modHeadLoad != 0
	e.state = StateSeeking

	target := int(e.currentTrack) + int(dir)
	if target < 0 {
		target = 0
	}
	if target > MaxTracks {
		target = MaxTracks
	}
	e.pendingSeekTarget = target
	e.pendingForceTrackZero = false
	e.pendingUpdateTrack = cmd&modUpdateTrack != 0
}

// startRead begins a Type-II READ SECTOR(S). The Sector Gateway is
// consulted immediately (it is a synchronous, in-process call); the
// result is staged and exposed to the host only after SectorIOSettle has
// elapsed, restoring the original firmware's SECTOR_READ_TIME pacing.
func (e *Engine) startRead(cmd byte, multi bool) {

	e.beginCommand()
	e.multiSector = multi
	e.sectorsRemaining = e.initialSectorsRemaining(multi)

	if !e.fillSector() {
		return
	}
	e.armPending(pendingReadFill)
}

// startWrite begins a Type-II WRITE SECTOR(S): the engine asserts DRQ and
// waits for the host to supply a full sector via the Data register.
func (e *Engine) startWrite(cmd byte, multi bool) {

	binding, err := e.binding()
	if err != nil {
		e.raiseError(StatusRNF)
		return
	}
	if binding.Descriptor.WriteProtected {
		e.raiseError(StatusWriteProtect)
		return
	}

	e.beginCommand()
	e.multiSector = multi
	e.sectorsRemaining = e.initialSectorsRemaining(multi)
	e.cursor = 0
	e.length = binding.Descriptor.SectorSize
	e.state = StateWaitingForDataIn
	e.drq = true
}

// initialSectorsRemaining returns the sector count a fresh READ/WRITE
// SECTORS should count down from, restoring original_source's
// fdc.sectorsRemaining (initialized to the track's sector count, not to
// "sectors from the starting sector to the end of the track"): a
// multi-sector transfer that starts at sector 1 ends cleanly after the last
// sector of the track, while one that starts mid-track ends with RNF once
// the Sector register passes the last sector; sectors never wrap to the
// start of the track. Single-sector commands never consult the counter.
func (e *Engine) initialSectorsRemaining(multi bool) int {
	if !multi {
		return 1
	}
	binding, err := e.binding()
	if err != nil {
		return 1
	}
	return binding.Descriptor.SectorsPerTrack
}

// startReadAddress begins a Type-III READ ADDRESS: the engine stages a
// six-byte ID field (track, side, sector, length code, two CRC bytes we
// never compute honestly) and hands it to the host exactly like a sector
// read, per spec.md §4.3.3.
func (e *Engine) startReadAddress(cmd byte) {

	e.beginCommand()
	e.multiSector = false

	binding, err := e.binding()
	if err != nil {
		e.raiseError(StatusRNF)
		return
	}

	e.staging[0] = e.currentTrack
	e.staging[1] = 0
	e.staging[2] = e.sector
	e.staging[3] = sizeCode(binding.Descriptor.SectorSize)
	e.staging[4] = 0
	e.staging[5] = 0
	e.cursor = 0
	e.length = 6
	e.state = StateReadingSector

	e.armPending(pendingReadFill)
}

func sizeCode(size int) byte {
	switch size {
	case 128:
		return 0
	case 256:
		return 1
	case 512:
		return 2
	case 1024:
		return 3
	default:
		return 2
	}
}

// forceInterrupt implements Type-IV: it unconditionally terminates any
// in-progress command, returns the engine to IDLE, and unconditionally
// asserts INTRQ (condition bits I0-I3 are accepted but not distinguished,
// since the engine has no index pulse or host-bus condition to trigger on
// other than the immediate case, and spec.md §4.3.3 requires INTRQ to
// assert regardless of which condition bits are set).
func (e *Engine) forceInterrupt(cmd byte) {

	e.busy = false
	e.drq = false
	e.state = StateIdle
	e.pendingKind = pendingNone
	e.errorBits = 0
	e.intrq = true
}

func (e *Engine) raiseError(bit byte) {
	e.busy = false
	e.drq = false
	e.state = StateIdle
	e.errorBits |= bit
	e.intrq = true
	e.log().Debugf("command 0x%02X failed, status bit 0x%02X", e.command, bit)
}

// binding resolves the slot binding for the currently selected drive.
func (e *Engine) binding() (*catalog.SlotBinding, error) {
	if e.catalog == nil {
		return nil, errNoCatalog
	}
	b, err := e.catalog.Binding(e.activeDrive)
	if err != nil {
		return nil, err
	}
	if !b.Bound {
		return nil, errNoCatalog
	}
	return &b, nil
}
