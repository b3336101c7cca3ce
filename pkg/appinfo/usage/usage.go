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

// Package usage prints version and usage information for the application
package usage

import (
	"fmt"
	"runtime"

	"github.com/cbltserver/cblt/pkg/appinfo"
)

const usageText = `
Cblt Usage:

 Serving from a Cbltfile in the working directory:
  cblt

 Using a configuration file:
  cblt -config /path/to/Cbltfile [-log-level debug|info|warn|error]

 Using environment-derived configuration (single-site mode, when no
 Cbltfile is present):
  CBLT_HOST=example.com CBLT_ROOT=/var/www cblt

 Validate a configuration and exit:
  cblt -config /path/to/Cbltfile -validate-config

 Print Version Info:
  cblt -version

------

Cblt listens on ports 80 and 443 by default, based on the sites declared in
the configuration. Sites may override the port with a host:port block header.

Default log level is info. Override with -log-level or CBLT_LOG_LEVEL.
`

// Version returns a single-line version summary for the running binary
func Version() string {
	return fmt.Sprintf("%s version: %s, buildInfo: %s %s, goVersion: %s",
		appinfo.Name, appinfo.Version, appinfo.BuildTime,
		appinfo.GitCommitID, runtime.Version())
}

// PrintVersion prints the Version summary to stdout
func PrintVersion() {
	fmt.Println(Version())
}

// PrintUsage prints the Version summary and usage text to stdout
func PrintUsage() {
	fmt.Println()
	fmt.Println(Version())
	fmt.Printf("%s\n", usageText)
}
