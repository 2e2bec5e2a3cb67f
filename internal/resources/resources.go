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

package resources

import (
	"os"
	"path/filepath"
)

// Resolver finds files such as alert sounds by searching a list of base directories.
type Resolver struct {
	Dirs []string
}

// DefaultDirs is the search order used by the service: the config directory,
// any extra directories, the working directory and then the executable's directory.
func DefaultDirs(configDir string, extra []string) []string {
	dirs := []string{}
	if configDir != "" {
		dirs = append(dirs, configDir)
	}
	dirs = append(dirs, extra...)
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	return dirs
}

// Resolve returns the first existing regular file for ref. An absolute ref is
// checked as given, then for each directory it tries dir/ref, dir/<base name>
// and dir/resources/<base name>.
func (r Resolver) Resolve(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	for _, candidate := range r.candidates(ref) {
		if isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (r Resolver) candidates(ref string) []string {
	var c []string
	if filepath.IsAbs(ref) {
		c = append(c, filepath.Clean(ref))
	}
	name := filepath.Base(ref)
	for _, dir := range r.Dirs {
		if dir == "" {
			continue
		}
		if !filepath.IsAbs(ref) {
			c = append(c, filepath.Join(dir, ref))
		}
		c = append(c,
			filepath.Join(dir, name),
			filepath.Join(dir, "resources", name),
		)
	}
	return c
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
