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

import "github.com/xelalexv/wd1770/pkg/pin"

// serviceBus samples CS and, on the falling-to-asserted edge (active low),
// decodes the address and either drives a register read onto the data bus
// or latches a register write - exactly one bus cycle per edge, per
// spec.md §4.3.1. De-assertion of CS is also watched, purely to release a
// held data bus early.
func (e *Engine) serviceBus() {

	asserted := !e.bus.Read(e.assignment.CS)

	if asserted && !e.lastCSAsserted {
		e.handleCycle()
	}
	if !asserted && e.lastCSAsserted && e.dataBusDriven {
		e.releaseDataBus()
	}

	e.lastCSAsserted = asserted
}

func (e *Engine) handleCycle() {

	read := e.bus.Read(e.assignment.RW)
	addr := e.decodeAddress()

	if read {
		e.driveDataBus(e.readRegister(addr))
	} else {
		e.writeRegister(addr, e.readDataLines())
	}
}

func (e *Engine) decodeAddress() int {
	a0 := boolToBit(e.bus.Read(e.assignment.A0))
	a1 := boolToBit(e.bus.Read(e.assignment.A1))
	return (a1 << 1) | a0
}

func boolToBit(b bool) int {
	if b {
		return 1
	}
	return 0
}

// driveDataBus puts the D-lines in Output direction, writes value onto
// them, and schedules an automatic release after DataBusHoldTime, so a host
// that forgets to de-assert CS promptly does not wedge the bus forever.
func (e *Engine) driveDataBus(value byte) {

	pins := e.assignment.DataPins()
	for i, p := range pins {
		e.bus.Configure(p, pin.Output)
		e.bus.Write(p, value&(1<<uint(i)) != 0)
	}
	e.dataBusDriven = true
	e.dataValidUntil = e.now() + DataBusHoldTime
}

// releaseDataBus reverts the D-lines to Input, relinquishing bus ownership.
func (e *Engine) releaseDataBus() {
	for _, p := range e.assignment.DataPins() {
		e.bus.Configure(p, pin.Input)
	}
	e.dataBusDriven = false
}

func (e *Engine) readDataLines() byte {
	var v byte
	for i, p := range e.assignment.DataPins() {
		if e.bus.Read(p) {
			v |= 1 << uint(i)
		}
	}
	return v
}

// checkBusTimeout releases an over-held data bus; called each Tick so a
// host that never de-asserts CS cannot keep the engine driving the bus
// indefinitely.
func (e *Engine) checkBusTimeout() {
	if e.dataBusDriven && e.now() >= e.dataValidUntil {
		e.releaseDataBus()
	}
}
