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

// Package opui implements the three-button/display operator selection UI:
// a small modal state machine driving Catalog.Enumerate/Bind/Unbind/Save.
// It has no dependency on pkg/fdc beyond reading Catalog.CurrentTrack for
// display, mirroring the one-way dependency between the engine and its
// catalog. A front end drives the Controller by calling Up, Down, Select
// and Cancel; the REST API in pkg/control does not go through it and works
// on the Catalog directly.
package opui

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/wd1770/pkg/catalog"
)

// Mode is the UI's current modal state.
type Mode int

const (
	// ModeNormal shows the current bindings; up/down/select have no effect
	// on them, select enters ModePickSlot0.
	ModeNormal Mode = iota
	// ModePickSlot0 is scrolling the catalog for slot 0.
	ModePickSlot0
	// ModePickSlot1 is scrolling the catalog for slot 1.
	ModePickSlot1
	// ModeConfirm is the apply/cancel prompt before bindings take effect.
	ModeConfirm
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModePickSlot0:
		return "PICK_SLOT_0"
	case ModePickSlot1:
		return "PICK_SLOT_1"
	case ModeConfirm:
		return "CONFIRM"
	default:
		return "UNKNOWN"
	}
}

// Controller drives the modal flow: normal -> pick slot 0 -> pick slot 1 ->
// confirm -> apply, with cancel returning to normal from any picking or
// confirm state. It holds no goroutine of its own; a front end calls Up,
// Down, Select, and Cancel in response to button events.
type Controller struct {
	catalog *catalog.Catalog

	mode Mode

	// cursor is the catalog index currently highlighted while picking.
	cursor int

	// pending holds the slot->index choices made so far in this flow,
	// applied together on confirm.
	pending [catalog.SlotCount]int
	chosen  [catalog.SlotCount]bool
}

// NewController creates a Controller over cat, starting in ModeNormal.
func NewController(cat *catalog.Catalog) *Controller {
	return &Controller{catalog: cat, mode: ModeNormal}
}

// Mode returns the controller's current modal state.
func (c *Controller) Mode() Mode {
	return c.mode
}

// Select advances the modal flow: normal->pick0, pick0->pick1 (recording
// the slot 0 choice), pick1->confirm (recording the slot 1 choice),
// confirm->normal (applying both bindings).
func (c *Controller) Select() error {

	switch c.mode {

	case ModeNormal:
		if err := c.catalog.Enumerate(); err != nil {
			log.Errorf("opui: error re-enumerating catalog: %v", err)
		}
		c.cursor = 0
		c.mode = ModePickSlot0
		return nil

	case ModePickSlot0:
		entries := c.catalog.List()
		if len(entries) == 0 {
			return fmt.Errorf("no images to choose from")
		}
		c.pending[0] = c.cursor
		c.chosen[0] = true
		c.cursor = 0
		c.mode = ModePickSlot1

	case ModePickSlot1:
		if len(c.catalog.List()) == 0 {
			return fmt.Errorf("no images to choose from")
		}
		c.pending[1] = c.cursor
		c.chosen[1] = true
		c.mode = ModeConfirm

	case ModeConfirm:
		return c.apply()
	}

	return nil
}

// Cancel abandons the in-progress flow and returns to ModeNormal without
// applying any pending choice.
func (c *Controller) Cancel() {
	if c.mode != ModeNormal {
		log.Infof("opui: cancelled from %s", c.mode)
	}
	c.mode = ModeNormal
	c.chosen = [catalog.SlotCount]bool{}
}

// Up moves the picking cursor to the previous catalog entry, wrapping
// around. It has no effect outside a picking mode.
func (c *Controller) Up() {
	c.move(-1)
}

// Down moves the picking cursor to the next catalog entry, wrapping
// around. It has no effect outside a picking mode.
func (c *Controller) Down() {
	c.move(1)
}

func (c *Controller) move(delta int) {
	if c.mode != ModePickSlot0 && c.mode != ModePickSlot1 {
		return
	}
	n := len(c.catalog.List())
	if n == 0 {
		return
	}
	c.cursor = ((c.cursor+delta)%n + n) % n
}

func (c *Controller) apply() error {

	for slot := 0; slot < catalog.SlotCount; slot++ {
		if !c.chosen[slot] {
			continue
		}
		if err := c.catalog.Bind(slot, c.pending[slot]); err != nil {
			c.Cancel()
			return fmt.Errorf("error binding slot %d: %w", slot, err)
		}
	}

	if err := c.catalog.Save(); err != nil {
		log.Errorf("opui: error saving slot config: %v", err)
	}

	c.mode = ModeNormal
	c.chosen = [catalog.SlotCount]bool{}
	return nil
}

// Display renders the current screen content: in ModeNormal, the two slot
// bindings with their current track; while picking, the highlighted
// catalog entry; in ModeConfirm, a summary of the pending choice.
func (c *Controller) Display() string {

	switch c.mode {

	case ModePickSlot0, ModePickSlot1:
		entries := c.catalog.List()
		if len(entries) == 0 {
			return "no images"
		}
		return fmt.Sprintf("%s\n> %s", c.mode, entries[c.cursor].Name)

	case ModeConfirm:
		entries := c.catalog.List()
		line := "apply?"
		for slot := 0; slot < catalog.SlotCount; slot++ {
			if c.chosen[slot] {
				line += fmt.Sprintf("\nslot %d: %s", slot, entries[c.pending[slot]].Name)
			}
		}
		return line

	default:
		line := ""
		for slot := 0; slot < catalog.SlotCount; slot++ {
			b, err := c.catalog.Binding(slot)
			if err != nil {
				continue
			}
			if b.Bound {
				line += fmt.Sprintf("\nslot %d: %-16s track %d",
					slot, b.Descriptor.Name, c.catalog.CurrentTrack(slot))
			} else {
				line += fmt.Sprintf("\nslot %d: <empty>", slot)
			}
		}
		return line
	}
}
