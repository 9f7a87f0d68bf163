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

//go:build linux && arm

// Package rpio implements pin.Bus directly on top of Raspberry Pi GPIO
// memory-mapped registers, for bare-metal deployment of the daemon on the
// same board that carries the WD1770 socket wiring.
package rpio

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/xelalexv/wd1770/pkg/pin"
)

// Bus is a pin.Bus backed by go-rpio.
type Bus struct {
	opened bool
}

// Open opens /dev/gpiomem and returns a ready Bus.
func Open() (*Bus, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("error opening gpio: %w", err)
	}
	return &Bus{opened: true}, nil
}

// Close releases the GPIO memory mapping.
func (b *Bus) Close() error {
	if !b.opened {
		return nil
	}
	b.opened = false
	return rpio.Close()
}

// Read returns the current level of p.
func (b *Bus) Read(p int) bool {
	return rpio.Pin(p).Read() == rpio.High
}

// Write drives p to level.
func (b *Bus) Write(p int, level bool) {
	l := rpio.Low
	if level {
		l = rpio.High
	}
	rpio.Pin(p).Write(l)
}

// Configure sets the direction of p.
func (b *Bus) Configure(p int, dir pin.Direction) {
	if dir == pin.Output {
		rpio.Pin(p).Output()
	} else {
		rpio.Pin(p).Input()
	}
}
