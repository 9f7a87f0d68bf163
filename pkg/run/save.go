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

// NewSave creates the save command.
func NewSave() *Save {

	s := &Save{}
	s.Runner = *NewRunner(
		"save [-p|--port {port}]",
		"persist current drive slot bindings",
		"\nUse the save command to persist the current slot bindings, so they're "+
			"restored the next time the daemon starts.",
		"", runnerHelpEpilogue, s.Run)

	s.AddBaseSettings()

	return s
}

type Save struct {
	Runner
}

func (s *Save) Run() error {

	s.ParseSettings()

	resp, err := s.apiCall("PUT", "/config", nil)
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
