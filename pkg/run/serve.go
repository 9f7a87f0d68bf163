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

package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/xelalexv/wd1770/pkg/catalog"
	"github.com/xelalexv/wd1770/pkg/control"
	"github.com/xelalexv/wd1770/pkg/daemon"
	"github.com/xelalexv/wd1770/pkg/gateway"
	"github.com/xelalexv/wd1770/pkg/pin"
	"github.com/xelalexv/wd1770/pkg/pin/fake"
	"github.com/xelalexv/wd1770/pkg/pin/serial"
	"github.com/xelalexv/wd1770/pkg/storage"
)

// NewServe creates the serve command.
func NewServe() *Serve {

	s := &Serve{}
	s.Runner = *NewRunner(
		"serve [-d|--device {device}] -r|--repo {repo base folder} [-a|--address {address}]",
		"engine & control API server command",
		`Use the serve command to run the FDC engine's polling loop and the control
API server. When device is omitted, the engine drives an in-memory bus
(pkg/pin/fake), useful for exercising the catalog and control API without
real hardware attached.`,
		"", runnerHelpEpilogue, s.Run)

	s.AddBaseSettings()
	s.AddSetting(&s.Device, "device", "d", "WD1770_DEVICE", "",
		"serial port device carrying the bus protocol frames", false)
	s.AddSetting(&s.Repository, "repo", "r", "WD1770_REPO", ".",
		"disk image repository base folder", false)
	s.AddSetting(&s.Address, "address", "a", "WD1770_ADDRESS", "",
		"control API bind address", false)

	return s
}

// Serve runs the engine's Tick loop and the control API server until
// interrupted.
type Serve struct {
	Runner
	Device     string
	Repository string
	Address    string
}

func (s *Serve) Run() error {

	s.ParseSettings()

	var bus pin.Bus
	if s.Device != "" {
		b, err := serial.Open(s.Device)
		if err != nil {
			return fmt.Errorf("error opening serial device: %w", err)
		}
		bus = b
	} else {
		log.Warn("no --device given, driving an in-memory bus")
		bus = fake.New()
	}

	backend := storage.NewAferoBackend(afero.NewOsFs(), s.Repository)
	cat := catalog.New(backend, "wd1770-slots.cfg")
	gw := gateway.New(backend)

	start := time.Now()
	clock := func() time.Duration { return time.Since(start) }

	engine := daemon.NewEngine(pin.DefaultAssignment, bus, clock, cat, gw)
	d := daemon.New(engine, cat, gw)

	wg := &sync.WaitGroup{}
	wg.Add(2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		defer wg.Done()
		if err := d.Serve(ctx); err != nil && err != context.Canceled {
			log.Errorf("daemon closed with error: %v", err)
		} else {
			log.Info("daemon stopped")
		}
	}()

	api := control.NewAPIServer(s.Address, d)
	go func() {
		defer wg.Done()
		if err := api.Serve(); err != nil {
			log.Errorf("API server closed with error: %v", err)
		} else {
			log.Info("API server stopped")
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sigCount := 0
	done := make(chan bool)

	for {
		select {

		case sig := <-sigs:
			log.WithField("signal", sig).Info("signal received")
			sigCount++

			switch sigCount {
			case 1:
				go func() {
					log.Info("shutting down, hit Ctrl-C twice to force exit...")
					api.Stop()
					cancel()
					wg.Wait()
					log.Info("wd1770 stopped")
					done <- true
				}()
			case 2:
				log.Warn("shutdown in progress, hit Ctrl-C again to force exit")
			default:
				log.Warn("forcing immediate exit")
				os.Exit(1)
			}

		case <-done:
			return nil
		}
	}
}
