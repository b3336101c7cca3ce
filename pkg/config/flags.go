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
	"flag"
	"io"
)

// cli flag names
const (
	cfConfig      = "config"
	cfVersion     = "version"
	cfValidate    = "validate-config"
	cfLogLevel    = "log-level"
	cfPort        = "port"
	cfTLSPort     = "tls-port"
	cfMetricsPort = "metrics-port"
	cfInstanceID  = "instance-id"
)

// Flags holds the values for whitelisted flags
type Flags struct {
	PrintVersion   bool
	ValidateConfig bool
	ConfigPath     string
	CustomPath     bool
	Port           int
	TLSPort        int
	MetricsPort    int
	InstanceID     int
	LogLevel       string
}

// ParseFlags parses the provided command line arguments into a Flags object
func ParseFlags(applicationName string, args []string) (*Flags, error) {
	flags := &Flags{}
	fs := flag.NewFlagSet(applicationName, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.BoolVar(&flags.PrintVersion, cfVersion, false,
		"prints the application version and exits")
	fs.BoolVar(&flags.ValidateConfig, cfValidate, false,
		"validates the configuration and exits without serving")
	fs.StringVar(&flags.ConfigPath, cfConfig, "",
		"path to the Cbltfile or YAML configuration")
	fs.StringVar(&flags.LogLevel, cfLogLevel, "",
		"level of logging to use (debug, info, warn, error)")
	fs.IntVar(&flags.Port, cfPort, 0,
		"default plaintext listener port, overriding the configuration")
	fs.IntVar(&flags.TLSPort, cfTLSPort, 0,
		"default tls listener port, overriding the configuration")
	fs.IntVar(&flags.MetricsPort, cfMetricsPort, 0,
		"metrics exposition port, overriding the configuration")
	fs.IntVar(&flags.InstanceID, cfInstanceID, 0,
		"instance id for running multiple processes on one host")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	flags.CustomPath = flags.ConfigPath != ""
	if flags.ConfigPath == "" {
		flags.ConfigPath = DefaultConfigPath
	}
	return flags, nil
}

// applyFlags overlays cli-provided values onto the Config
func (c *Config) applyFlags(flags *Flags) {
	c.Flags = flags
	if flags.Port > 0 {
		c.Frontend.ListenPort = flags.Port
	}
	if flags.TLSPort > 0 {
		c.Frontend.TLSListenPort = flags.TLSPort
	}
	if flags.MetricsPort > 0 {
		c.Metrics.ListenPort = flags.MetricsPort
	}
	if flags.InstanceID > 0 {
		c.Main.InstanceID = flags.InstanceID
	}
	if flags.LogLevel != "" {
		c.Logging.LogLevel = flags.LogLevel
	}
}
