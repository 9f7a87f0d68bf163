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
	"fmt"
	"io"
)

// NewUnload creates the unload command.
func NewUnload() *Unload {

	u := &Unload{}
	u.Runner = *NewRunner(
		"unload [-s|--slot {slot}] [-p|--port {port}]",
		"eject a drive slot's binding",
		"\nUse the unload command to eject whatever image is bound into a drive slot.",
		"", runnerHelpEpilogue, u.Run)

	u.AddBaseSettings()
	u.AddSetting(&u.Slot, "slot", "s", "", 0, "drive slot (0 or 1)", false)

	return u
}

type Unload struct {
	Runner
	Slot int
}

func (u *Unload) Run() error {

	u.ParseSettings()

	if err := validateSlot(u.Slot); err != nil {
		return err
	}

	resp, err := u.apiCall("GET", fmt.Sprintf("/drive/%d/unload", u.Slot), nil)
	if err != nil {
		return err
	}
	defer resp.Close()

	msg, err := io.ReadAll(resp)
	if err != nil {
		return err
	}

	fmt.Printf("%s", msg)
	return nil
}
