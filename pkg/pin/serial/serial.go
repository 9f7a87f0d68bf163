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

// Package serial implements pin.Bus over a serial link to a small adapter
// board that wires its GPIO lines to the host CPU's WD1770 socket. The
// adapter speaks a minimal framed protocol: a 3-byte frame per pin event,
// 'r'|'w'|'c' followed by the pin number and the level/direction byte.
package serial

import (
	"fmt"
	"io"
	"sync"

	sio "github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/wd1770/pkg/pin"
)

const (
	frameRead      = 'r'
	frameWrite     = 'w'
	frameConfigure = 'c'
)

// Bus is a pin.Bus backed by a serial port.
type Bus struct {
	mutex sync.Mutex
	port  io.ReadWriteCloser
	level map[int]bool
}

// Open opens the named serial port and returns a Bus multiplexed over it.
func Open(name string) (*Bus, error) {
	port, err := openPort(name)
	if err != nil {
		return nil, fmt.Errorf("error opening serial port %s: %w", name, err)
	}
	return &Bus{port: port, level: map[int]bool{}}, nil
}

func openPort(p string) (io.ReadWriteCloser, error) {
	return sio.Open(sio.OpenOptions{
		PortName:        p,
		BaudRate:        1000000,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	})
}

// Close closes the underlying serial port.
func (b *Bus) Close() error {
	return b.port.Close()
}

// Read returns the current level of p, querying the adapter.
func (b *Bus) Read(p int) bool {

	b.mutex.Lock()
	defer b.mutex.Unlock()

	if err := b.send(frameRead, p, false); err != nil {
		log.Errorf("error requesting pin read: %v", err)
		return b.level[p]
	}

	reply := make([]byte, 1)
	if _, err := io.ReadFull(b.port, reply); err != nil {
		log.Errorf("error reading pin level: %v", err)
		return b.level[p]
	}

	level := reply[0] != 0
	b.level[p] = level
	return level
}

// Write drives p to level.
func (b *Bus) Write(p int, level bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.level[p] = level
	if err := b.send(frameWrite, p, level); err != nil {
		log.Errorf("error writing pin level: %v", err)
	}
}

// Configure sets the direction of p on the adapter.
func (b *Bus) Configure(p int, dir pin.Direction) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if err := b.send(frameConfigure, p, dir == pin.Output); err != nil {
		log.Errorf("error configuring pin direction: %v", err)
	}
}

func (b *Bus) send(kind byte, p int, flag bool) error {
	frame := []byte{kind, byte(p), 0}
	if flag {
		frame[2] = 1
	}
	_, err := b.port.Write(frame)
	return err
}
