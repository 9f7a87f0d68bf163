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

package catalog

import (
	"bufio"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/wd1770/pkg/storage"
)

// MaxImages caps the number of catalogued entries, matching the original
// firmware's fixed MAX_DISK_IMAGES table.
const MaxImages = 100

// SlotCount is the number of drive bays the catalog tracks bindings for.
const SlotCount = 2

// SlotBinding is the state of one drive bay: either empty, or bound to a
// catalog entry with its resolved Descriptor.
type SlotBinding struct {
	Bound      bool
	Index      int
	Descriptor *Descriptor
}

// Catalog enumerates candidate image files from a storage.Backend,
// classifies each into a Descriptor, and owns the two slot bindings. It
// does not know about the FDC Engine; the engine holds a reference to the
// catalog, never the other way around.
type Catalog struct {
	mutex sync.RWMutex

	backend    storage.Backend
	configPath string

	entries []*Descriptor
	slots   [SlotCount]SlotBinding

	// currentTrack is written by the engine (or tests standing in for it)
	// and read by the operator UI / API for display only.
	currentTrack [SlotCount]uint8
}

// New creates a Catalog backed by backend, persisting slot bindings to
// configPath.
func New(backend storage.Backend, configPath string) *Catalog {
	return &Catalog{backend: backend, configPath: configPath}
}

// Enumerate walks the storage backend's root, accepting regular files
// whose name (case-insensitive) ends in .DSK, .IMG, .ST, or .HFE, caps at
// MaxImages entries, classifies each, and replaces the current entry list.
// Enumeration order follows the backend's own listing order.
func (c *Catalog) Enumerate() error {

	listing, err := c.backend.List()
	if err != nil {
		return fmt.Errorf("error listing images: %w", err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	entries := make([]*Descriptor, 0, MaxImages)

	for _, info := range listing {
		if len(entries) >= MaxImages {
			break
		}
		if !isRecognized(info.Name) {
			continue
		}
		d, err := classify(c.backend, info.Name, info.Size)
		if err != nil {
			log.Errorf("error classifying %s: %v", info.Name, err)
			continue
		}
		entries = append(entries, d)
	}

	c.entries = entries
	log.Infof("found %d disk image(s)", len(entries))
	return nil
}

// List returns the current catalog entries, in enumeration order.
func (c *Catalog) List() []*Descriptor {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	ret := make([]*Descriptor, len(c.entries))
	copy(ret, c.entries)
	return ret
}

// Bind sets slot to bound, copying the Descriptor at index. It succeeds iff
// index is in range; it does not preload file contents.
func (c *Catalog) Bind(slot, index int) error {

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if err := c.checkSlot(slot); err != nil {
		return err
	}
	if index < 0 || index >= len(c.entries) {
		return fmt.Errorf("catalog index out of range: %d", index)
	}

	copied := *c.entries[index]
	c.slots[slot] = SlotBinding{Bound: true, Index: index, Descriptor: &copied}

	log.Infof("slot %d: loaded %s", slot, c.slots[slot].Descriptor)
	return nil
}

// Unbind sets slot to empty. This always succeeds for a valid slot.
func (c *Catalog) Unbind(slot int) error {

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if err := c.checkSlot(slot); err != nil {
		return err
	}
	c.slots[slot] = SlotBinding{}
	log.Infof("slot %d: ejected", slot)
	return nil
}

// Binding returns a copy of slot's current binding.
func (c *Catalog) Binding(slot int) (SlotBinding, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if err := c.checkSlot(slot); err != nil {
		return SlotBinding{}, err
	}
	return c.slots[slot], nil
}

func (c *Catalog) checkSlot(slot int) error {
	if slot < 0 || slot >= SlotCount {
		return fmt.Errorf("invalid slot: %d", slot)
	}
	return nil
}

// SetCurrentTrack records the head position the engine reports for drive,
// for display purposes only.
func (c *Catalog) SetCurrentTrack(drive int, track uint8) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if drive >= 0 && drive < SlotCount {
		c.currentTrack[drive] = track
	}
}

// CurrentTrack returns the last head position reported for drive.
func (c *Catalog) CurrentTrack(drive int) uint8 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if drive >= 0 && drive < SlotCount {
		return c.currentTrack[drive]
	}
	return 0
}

const noneMarker = "NONE"

// Save writes the current slot bindings as a single-line record of the
// form "name0,name1\n", substituting NONE for an empty slot.
func (c *Catalog) Save() error {

	c.mutex.RLock()
	names := make([]string, SlotCount)
	for ix, s := range c.slots {
		if s.Bound {
			names[ix] = s.Descriptor.Name
		} else {
			names[ix] = noneMarker
		}
	}
	c.mutex.RUnlock()

	line := strings.Join(names, ",") + "\n"

	w, err := c.backend.OpenWriter(c.configPath)
	if err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte(line)); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}

	log.Infof("saved slot config: %s", strings.TrimSpace(line))
	return nil
}

// Load reads the persisted slot-binding record and binds each non-NONE
// name to its matching catalog entry. A missing config file is not an
// error; a name absent from the current catalog leaves that slot empty.
func (c *Catalog) Load() error {

	if !c.backend.Exists(c.configPath) {
		log.Info("no slot config found, using defaults")
		return nil
	}

	f, err := c.backend.Open(c.configPath)
	if err != nil {
		log.Warnf("error opening slot config: %v", err)
		return nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil
	}
	line := strings.TrimSpace(scanner.Text())

	names := strings.SplitN(line, ",", SlotCount)
	for slot, name := range names {
		if slot >= SlotCount || name == noneMarker || name == "" {
			continue
		}
		ix := c.indexOf(name)
		if ix == -1 {
			log.Warnf("slot %d: %s not found in catalog, leaving empty", slot, name)
			continue
		}
		if err := c.Bind(slot, ix); err != nil {
			log.Warnf("slot %d: error binding %s: %v", slot, name, err)
		}
	}

	return nil
}

func (c *Catalog) indexOf(name string) int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for ix, d := range c.entries {
		if d.Name == name {
			return ix
		}
	}
	return -1
}
