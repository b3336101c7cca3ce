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

package config

import (
	"fmt"
	"os"
)

// Load returns the runtime configuration: flags are parsed, then the
// configuration is read from the named file (Cbltfile grammar, or YAML when
// the file carries a .yaml/.yml extension) or derived from CBLT_*
// environment variables when no file is available, then environment
// overrides are applied, then the result is validated
func Load(args []string) (*Config, error) {
	flags, err := ParseFlags("cblt", args)
	if err != nil {
		return nil, err
	}
	c := NewConfig()
	c.applyDefaults()

	data, err := os.ReadFile(flags.ConfigPath)
	switch {
	case err == nil:
		if isYAMLPath(flags.ConfigPath) {
			err = c.loadYAMLConfig(flags.ConfigPath, data)
		} else {
			c.Sites, err = ParseSites(flags.ConfigPath, string(data))
		}
		if err != nil {
			return nil, err
		}
		c.SetProvidedFile(flags.ConfigPath)
	case os.IsNotExist(err) && !flags.CustomPath && envSiteConfigured():
		c.Sites, err = sitesFromEnv()
		if err != nil {
			return nil, err
		}
		c.LoaderWarnings = append(c.LoaderWarnings,
			"no configuration file found; serving a single site derived from CBLT_* environment variables")
	case os.IsNotExist(err) && !flags.CustomPath:
		return nil, fmt.Errorf("no configuration found at %s and no CBLT_* site variables are set",
			flags.ConfigPath)
	default:
		return nil, fmt.Errorf("could not read configuration %s: %w", flags.ConfigPath, err)
	}

	if err = c.loadEnvVars(); err != nil {
		return nil, err
	}
	c.applyFlags(flags)

	if err = c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// applyDefaults sets configurable values that NewConfig leaves zero
func (c *Config) applyDefaults() {
	if c.Main.PidPath == "" {
		c.Main.PidPath = DefaultPidPath
	}
}
