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

const (
	// DefaultConfigPath is the path checked for a Cbltfile when the cli
	// provides none
	DefaultConfigPath = "./Cbltfile"

	// DefaultIndexFile is served when a static request resolves to a directory
	DefaultIndexFile = "index.html"

	// DefaultMetricsListenPort is the default metrics exposition port;
	// 0 disables the metrics endpoint
	DefaultMetricsListenPort = 0

	// DefaultPidPath is the default location of the pidfile
	DefaultPidPath = "/var/run/cblt/cblt.pid"

	// upstream connection defaults for reverse_proxy directives
	DefaultProxyConnectTimeoutMS        = 10000
	DefaultProxyResponseHeaderTimeoutMS = 30000
	DefaultProxyIdleConnTimeoutMS       = 90000
	DefaultProxyMaxIdleConns            = 128
	DefaultProxyMaxIdleConnsPerHost     = 16
)
