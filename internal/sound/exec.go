/*
battery-alert - Raises sound alerts from battery thresholds
Copyright (C) 2025, The Cacophony Project

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package sound

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// DefaultPlayerCommand plays a wav file with ALSA.
const DefaultPlayerCommand = "aplay -q"

// ExecDevice plays files by running an external player with the file as the last argument.
type ExecDevice struct {
	command []string
}

// NewExecDevice splits command on whitespace, e.g. "aplay -q" or "paplay".
func NewExecDevice(command string) (*ExecDevice, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = strings.Fields(DefaultPlayerCommand)
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return nil, fmt.Errorf("sound player '%s' not found: %w", fields[0], err)
	}
	return &ExecDevice{command: fields}, nil
}

func (d *ExecDevice) Open(file string) (Clip, error) {
	info, err := os.Stat(file)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("'%s' is not a regular file", file)
	}
	args := append(append([]string{}, d.command[1:]...), file)
	return &execClip{name: d.command[0], args: args}, nil
}

type execClip struct {
	name string
	args []string

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
}

// Play starts the player, ending any earlier play of this clip first.
func (c *execClip) Play() error {
	if err := c.Stop(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cmd := exec.Command(c.name, c.args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("err running '%s %s': %w", c.name, strings.Join(c.args, " "), err)
	}
	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()
	c.cmd = cmd
	c.done = done
	return nil
}

// Stop kills the player if it is still running.
func (c *execClip) Stop() error {
	c.mu.Lock()
	cmd, done := c.cmd, c.done
	c.cmd, c.done = nil, nil
	c.mu.Unlock()
	if exited(done) {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	<-done
	return nil
}

func (c *execClip) Close() error {
	return c.Stop()
}

// exited reports whether the player behind done has finished. No player counts as finished.
func exited(done chan struct{}) bool {
	if done == nil {
		return true
	}
	select {
	case <-done:
		return true
	default:
		return false
	}
}
