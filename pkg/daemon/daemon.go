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

// Package daemon runs the FDC Engine's polling super-loop and owns the
// catalog and gateway it's wired to, so that pkg/control and pkg/opui have
// a single point of reference for everything the running emulator knows.
package daemon

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/wd1770/pkg/catalog"
	"github.com/xelalexv/wd1770/pkg/fdc"
	"github.com/xelalexv/wd1770/pkg/gateway"
	"github.com/xelalexv/wd1770/pkg/pin"
)

// DefaultTickInterval paces Engine.Tick calls when driven from a plain
// timer loop rather than an interrupt or a busy host bus.
const DefaultTickInterval = 200 * time.Microsecond

// Daemon drives the FDC Engine's Tick loop and exposes the catalog and
// engine to the control API and the on-device UI. It owns no bus
// reconnect logic of its own; that's the concern of the pin.Bus
// implementation it's handed (see pkg/pin/serial for the one bus that can
// actually go away mid-run).
type Daemon struct {
	engine  *fdc.Engine
	catalog *catalog.Catalog
	gateway *gateway.Gateway

	tickInterval time.Duration

	stop chan struct{}
	done chan struct{}
}

// New builds a Daemon around an already-constructed Engine, Catalog, and
// Gateway. The Daemon holds no pin assignment or bus of its own; the Engine
// already holds them.
func New(engine *fdc.Engine, cat *catalog.Catalog, gw *gateway.Gateway) *Daemon {
	return &Daemon{
		engine:       engine,
		catalog:      cat,
		gateway:      gw,
		tickInterval: DefaultTickInterval,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// SetTickInterval overrides DefaultTickInterval. Call before Serve.
func (d *Daemon) SetTickInterval(interval time.Duration) {
	if interval > 0 {
		d.tickInterval = interval
	}
}

// Catalog returns the Image Catalog this daemon's engine is wired to, for
// the control API and opui to enumerate/bind/unbind/save against.
func (d *Daemon) Catalog() *catalog.Catalog {
	return d.catalog
}

// Engine returns the running FDC Engine, for status reporting.
func (d *Daemon) Engine() *fdc.Engine {
	return d.engine
}

// Serve runs the Tick loop until ctx is cancelled or Stop is called.
func (d *Daemon) Serve(ctx context.Context) error {

	if err := d.catalog.Enumerate(); err != nil {
		log.Errorf("error enumerating catalog: %v", err)
	}
	if err := d.catalog.Load(); err != nil {
		log.Errorf("error loading slot bindings: %v", err)
	}

	log.Infof("FDC engine starting, tick interval %s", d.tickInterval)
	defer close(d.done)

	ticker := time.NewTicker(d.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("FDC engine stopping, context cancelled")
			return ctx.Err()
		case <-d.stop:
			log.Info("FDC engine stopping")
			return nil
		case <-ticker.C:
			d.engine.Tick()
		}
	}
}

// Stop signals Serve to return and waits for it to do so.
func (d *Daemon) Stop() {
	close(d.stop)
	<-d.done
}

// StatusLine renders a one-line snapshot of the running engine, in the
// register-dump style used by the teacher's textual status replies.
func (d *Daemon) StatusLine() string {
	return fmt.Sprintf(
		"drive %d: state=%s track=%d motor=%t busy=%t",
		d.engine.ActiveDrive(), d.engine.State(), d.engine.CurrentTrack(),
		d.engine.MotorOn(), d.engine.Busy())
}

// NewEngine wires pin.Assignment -> pin.Bus -> fdc.Engine, the canonical
// construction order every caller (the serve command, tests) follows.
func NewEngine(assignment pin.Assignment, bus pin.Bus, clock fdc.Clock,
	cat *catalog.Catalog, gw *gateway.Gateway) *fdc.Engine {
	return fdc.New(assignment, bus, clock, cat, gw)
}
