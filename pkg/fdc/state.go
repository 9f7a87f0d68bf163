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

	"github.com/xelalexv/wd1770/pkg/gateway"
)

// tickStateMachine advances the sequencing state machine by one tick,
// spec.md §4.3.4. It first resolves any armed settle/settle-like delay,
// then acts on the current state.
func (e *Engine) tickStateMachine() {

	e.resolvePending()

	switch e.state {

	case StateSeeking:
		e.tickSeeking()

	case StateSettling:
		e.tickSettling()

	case StateSectorReadComplete:
		e.tickSectorReadComplete()

	case StateSectorWriteComplete:
		e.tickSectorWriteComplete()
	}
}

// armPending schedules kind to resolve SectorIOSettle after now, restoring
// original_source/wd1770/FdcDevice.h's SECTOR_READ_TIME/SECTOR_WRITE_TIME
// pacing between a Sector Gateway transfer and the host seeing DRQ.
func (e *Engine) armPending(kind pendingKind) {
	e.pendingKind = kind
	e.pendingReady = e.now() + e.SectorIOSettle
}

func (e *Engine) resolvePending() {

	if e.pendingKind == pendingNone || e.now() < e.pendingReady {
		return
	}

	switch e.pendingKind {
	case pendingReadFill:
		e.drq = true
	case pendingWriteDrain:
		e.state = StateSectorWriteComplete
	}
	e.pendingKind = pendingNone
}

func (e *Engine) tickSeeking() {

	if e.now()-e.operationStart < e.stepRate {
		return
	}

	if e.pendingForceTrackZero {
		e.currentTrack = 0
	} else {
		e.currentTrack = uint8(e.pendingSeekTarget)
	}
	if e.pendingUpdateTrack {
		e.track = e.currentTrack
	}

	if e.headLoad && HeadSettleTime > 0 {
		e.state = StateSettling
		e.settleStart = e.now()
		return
	}

	e.finishSeek()
}

func (e *Engine) tickSettling() {
	if e.now()-e.settleStart < HeadSettleTime {
		return
	}
	e.finishSeek()
}

func (e *Engine) finishSeek() {
	e.busy = false
	e.drq = false
	e.state = StateIdle
	e.intrq = true
}

// fillSector asks the Sector Gateway for the sector named by the Track and
// Sector registers, stages it, and puts the engine in READING_SECTOR. On
// failure it raises RECORD NOT FOUND and returns false.
func (e *Engine) fillSector() bool {

	binding, err := e.binding()
	if err != nil {
		e.raiseError(StatusRNF)
		return false
	}

	n := binding.Descriptor.SectorSize
	if err := e.gateway.Read(binding, int(e.track), int(e.sector), e.staging[:n]); err != nil {
		e.raiseError(StatusRNF)
		return false
	}

	e.length = n
	e.cursor = 0
	e.state = StateReadingSector
	return true
}

// beginWriteDrain hands a filled staging buffer to the Sector Gateway. The
// transfer is synchronous; only the host-visible DRQ/state transition is
// paced by SectorIOSettle, via armPending.
func (e *Engine) beginWriteDrain() {

	binding, err := e.binding()
	if err != nil {
		e.raiseError(StatusRNF)
		return
	}

	err = e.gateway.Write(binding, int(e.track), int(e.sector), e.staging[:e.length])
	if errors.Is(err, gateway.ErrWriteProtected) {
		e.raiseError(StatusWriteProtect)
		return
	}
	if err != nil {
		e.raiseError(StatusRNF)
		return
	}

	e.armPending(pendingWriteDrain)
}

func (e *Engine) tickSectorReadComplete() {

	if !e.multiSector {
		e.finishTransfer()
		return
	}

	e.sectorsRemaining--
	if e.sectorsRemaining <= 0 {
		e.finishTransfer()
		return
	}

	binding, err := e.binding()
	if err != nil {
		e.raiseError(StatusRNF)
		return
	}

	e.sector++
	if int(e.sector) > binding.Descriptor.SectorsPerTrack {
		e.raiseError(StatusRNF)
		return
	}

	if e.fillSector() {
		e.armPending(pendingReadFill)
	}
}

func (e *Engine) tickSectorWriteComplete() {

	if !e.multiSector {
		e.finishTransfer()
		return
	}

	e.sectorsRemaining--
	if e.sectorsRemaining <= 0 {
		e.finishTransfer()
		return
	}

	binding, err := e.binding()
	if err != nil {
		e.raiseError(StatusRNF)
		return
	}

	e.sector++
	if int(e.sector) > binding.Descriptor.SectorsPerTrack {
		e.raiseError(StatusRNF)
		return
	}

	e.cursor = 0
	e.length = binding.Descriptor.SectorSize
	e.state = StateWaitingForDataIn
	e.drq = true
}

func (e *Engine) finishTransfer() {
	e.busy = false
	e.drq = false
	e.state = StateIdle
	e.intrq = true
}
