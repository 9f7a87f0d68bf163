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
	"net/http"
)

const runnerHelpEpilogue = `- When a flag can be set via environment variable, the variable name is given
  in parenthesis at the end of the flag explanation. Note however that a flag,
  when specified overrides an environment variable.
`

// NewRunner creates a base runner for commands to use. The parameters are
// passed to the base command wrapped by this runner.
func NewRunner(use, short, long, helpPrologue, helpEpilogue string,
	exec func() error) *Runner {
	return &Runner{
		Command: *NewCommand(
			use, short, long, helpPrologue, helpEpilogue, exec),
	}
}

// Runner adds the client-side concern every wd1770ctl subcommand but serve
// shares: talking to a running daemon's control API over HTTP.
type Runner struct {
	Command
	Port int
}

// AddBaseSettings registers the --port/-p flag. This cannot live in
// NewRunner; Cobra/Viper needs it bound from the concrete top-level command.
func (r *Runner) AddBaseSettings() {
	r.AddSetting(&r.Port, "port", "p", "WD1770_PORT", 8888,
		"port of the running daemon's control API", false)
}

func (r *Runner) apiCall(method, path string, body io.Reader) (io.ReadCloser, error) {

	client := &http.Client{}
	req, err := http.NewRequest(
		method, fmt.Sprintf("http://127.0.0.1:%d%s", r.Port, path), body)
	if err != nil {
		return nil, err
	}

	req.Header.Add("Content-Type", "text/plain")
	req.Header.Add("Accept", "text/plain")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s", msg)
	}

	return resp.Body, nil
}

func validateSlot(s int) error {
	if s < 0 || s > 1 {
		return fmt.Errorf("invalid slot: %d; valid slots are 0 and 1", s)
	}
	return nil
}
