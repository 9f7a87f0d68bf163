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

// NewLoad creates the load command.
func NewLoad() *Load {

	l := &Load{}
	l.Runner = *NewRunner(
		"load [-s|--slot {slot}] -i|--index {catalog index} [-p|--port {port}]",
		"bind a catalog entry into a drive slot",
		"\nUse the load command to bind a cataloged image into a drive slot.",
		"", runnerHelpEpilogue, l.Run)

	l.AddBaseSettings()
	l.AddSetting(&l.Slot, "slot", "s", "", 0, "drive slot (0 or 1)", false)
	l.AddSetting(&l.Index, "index", "i", "", nil, "catalog index to bind", true)

	return l
}

type Load struct {
	Runner
	Slot  int
	Index int
}

func (l *Load) Run() error {

	l.ParseSettings()

	if err := validateSlot(l.Slot); err != nil {
		return err
	}

	resp, err := l.apiCall("PUT",
		fmt.Sprintf("/drive/%d?index=%d", l.Slot, l.Index), nil)
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
