/*
 * Copyright 2024 The Cblt Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package instance holds the state of the running server process
package instance

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cbltserver/cblt/pkg/config"
)

// ServerInstance is the running server's currently-applied configuration.
// Config is replaced wholesale on a successful reload.
type ServerInstance struct {
	Config *config.Config
}

// pidPath derives the effective pidfile path, suffixing the instance id
// when one is set so multiple instances on a host don't collide
func pidPath(c *config.Config) string {
	p := c.Main.PidPath
	if c.Main.InstanceID > 0 {
		p += "." + strconv.Itoa(c.Main.InstanceID)
	}
	return p
}

// WritePID records the process id at the configured pidfile path
func WritePID(c *config.Config) error {
	if c == nil || c.Main == nil || c.Main.PidPath == "" {
		return nil
	}
	p := pidPath(c)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("could not create pidfile directory: %w", err)
	}
	return os.WriteFile(p, []byte(strconv.Itoa(os.Getpid())), 0644)
}

// RemovePID deletes the pidfile written by WritePID
func RemovePID(c *config.Config) error {
	if c == nil || c.Main == nil || c.Main.PidPath == "" {
		return nil
	}
	err := os.Remove(pidPath(c))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
