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
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/wd1770/pkg/catalog"
	"github.com/xelalexv/wd1770/pkg/gateway"
	"github.com/xelalexv/wd1770/pkg/pin"
)

// DataBusHoldTime is how long the engine keeps driving the data bus after a
// read cycle, before reverting the D-lines to inputs (spec.md §4.3.1).
const DataBusHoldTime = 500 * time.Microsecond

// DefaultMotorOffDelay is how long the engine keeps reporting the motor as
// on after the last command completes.
const DefaultMotorOffDelay = 2 * time.Second

// Engine is the WD1770-facing bus-and-command state machine. It owns no
// goroutines of its own; a caller drives it by calling Tick repeatedly from
// a single thread of control, per spec.md §5.
type Engine struct {
	assignment pin.Assignment
	bus        pin.Bus
	clock      Clock

	catalog *catalog.Catalog
	gateway *gateway.Gateway

	// SectorIOSettle is the minimum dwell time between a Sector Gateway
	// transfer completing and DRQ reflecting it, restored from
	// original_source/wd1770/FdcDevice.h's SECTOR_READ_TIME/SECTOR_WRITE_TIME.
	// Defaults to zero so hosted tests are not paced by wall-clock delay.
	SectorIOSettle time.Duration

	// MotorOffDelay is how long after the last command completes the
	// engine continues reporting the motor as on.
	MotorOffDelay time.Duration

	// visible registers
	track   byte
	sector  byte
	data    byte
	command byte

	// errorBits holds the sticky error flags (RNF, write-protect) of the
	// most recently completed command; cleared whenever a new command
	// starts.
	errorBits byte

	currentTrack uint8
	direction    int8

	activeDrive int
	enabled     bool

	state State
	busy  bool
	drq   bool
	intrq bool

	staging [StagingBufferSize]byte
	cursor  int
	length  int

	multiSector      bool
	sectorsRemaining int

	stepRate       time.Duration
	operationStart time.Duration
	headLoad       bool
	settleStart    time.Duration

	pendingSeekTarget     int
	pendingForceTrackZero bool
	pendingUpdateTrack    bool

	pendingReady time.Duration
	pendingKind  pendingKind

	motorOn    bool
	motorOffAt time.Duration

	// bus edge tracking
	lastCSAsserted bool
	dataBusDriven  bool
	dataValidUntil time.Duration
}

type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingReadFill
	pendingWriteDrain
)

// New creates an Engine. assignment names the physical pins the engine
// drives through bus; clock supplies elapsed time; cat is the Image
// Catalog the engine reads bindings from (a non-owning handle: the engine
// never mutates catalog state beyond SetCurrentTrack); gw is the Sector
// Gateway used to fill/drain the staging buffer.
func New(assignment pin.Assignment, bus pin.Bus, clock Clock,
	cat *catalog.Catalog, gw *gateway.Gateway) *Engine {

	e := &Engine{
		assignment:     assignment,
		bus:            bus,
		clock:          clock,
		catalog:        cat,
		gateway:        gw,
		direction:      1,
		state:          StateIdle,
		sector:         1,
		MotorOffDelay:  DefaultMotorOffDelay,
		SectorIOSettle: 0,
	}

	e.bus.Configure(assignment.INTRQ, pin.Output)
	e.bus.Configure(assignment.DRQ, pin.Output)
	for _, p := range assignment.DataPins() {
		e.bus.Configure(p, pin.Input)
	}
	for _, p := range []int{
		assignment.A0, assignment.A1, assignment.CS, assignment.RW,
		assignment.DDEN, assignment.DS0, assignment.DS1,
	} {
		e.bus.Configure(p, pin.Input)
	}

	return e
}

// Tick runs one iteration of the polling super-loop: sample drive-select
// and the density-enable line, service one bus cycle if an edge was seen,
// advance the sequencing state machine, and refresh the handshake outputs.
func (e *Engine) Tick() {

	e.sampleDriveSelect()
	e.sampleEnable()

	if e.enabled {
		e.serviceBus()
		e.checkBusTimeout()
	} else if e.dataBusDriven {
		e.releaseDataBus()
	}

	e.tickStateMachine()
	e.tickMotor()
	e.refreshOutputs()

	if e.catalog != nil {
		e.catalog.SetCurrentTrack(e.activeDrive, e.currentTrack)
	}
}

func (e *Engine) now() time.Duration {
	return e.clock()
}

// ActiveDrive returns the drive currently selected.
func (e *Engine) ActiveDrive() int {
	return e.activeDrive
}

// State returns the current sequencing state, for tests and diagnostics.
func (e *Engine) State() State {
	return e.state
}

// Busy reports whether a command is in progress.
func (e *Engine) Busy() bool {
	return e.busy
}

// CurrentTrack returns the simulated head position.
func (e *Engine) CurrentTrack() uint8 {
	return e.currentTrack
}

// MotorOn reports whether the engine currently presents the motor as
// spinning.
func (e *Engine) MotorOn() bool {
	return e.motorOn
}

func (e *Engine) tickMotor() {
	if e.busy {
		e.motorOn = true
		e.motorOffAt = e.now() + e.MotorOffDelay
	} else if e.motorOn && e.now() >= e.motorOffAt {
		e.motorOn = false
	}
}

func (e *Engine) log() *log.Entry {
	return log.WithFields(log.Fields{
		"drive": e.activeDrive,
		"state": e.state,
	})
}
