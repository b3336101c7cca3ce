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

// Package options provides the config options for the http frontend
package options

import "time"

const (
	// DefaultListenAddress is the default IP the listeners bind to (all interfaces)
	DefaultListenAddress = ""
	// DefaultListenPort is the default plaintext HTTP port for sites that
	// do not declare an explicit port
	DefaultListenPort = 80
	// DefaultTLSListenPort is the default HTTPS port for sites with a tls
	// directive that do not declare an explicit port
	DefaultTLSListenPort = 443
	// DefaultConnectionsLimit indicates unlimited concurrent connections
	DefaultConnectionsLimit = 0
	// DefaultReadHeaderTimeoutMS is the default time to read request headers
	DefaultReadHeaderTimeoutMS = 10000
	// DefaultIdleTimeoutMS is the default keep-alive idle timeout
	DefaultIdleTimeoutMS = 20000
	// DefaultTLSHandshakeTimeoutMS is the default time to complete a TLS handshake
	DefaultTLSHandshakeTimeoutMS = 10000
	// DefaultDrainTimeoutMS is the default time to wait for in-flight requests
	// when a listener is drained on reload or shutdown
	DefaultDrainTimeoutMS = 30000
)

// Options is a collection of configurations for the listeners of the application
type Options struct {
	// ListenAddress is the IP address the listeners bind to
	ListenAddress string `yaml:"listen_address,omitempty"`
	// ListenPort is the TCP port for plaintext sites without an explicit port
	ListenPort int `yaml:"listen_port,omitempty"`
	// TLSListenPort is the TCP port for tls sites without an explicit port
	TLSListenPort int `yaml:"tls_listen_port,omitempty"`
	// ConnectionsLimit caps how many concurrent front end connections are
	// handled at any time; excess connections wait in the OS accept queue
	ConnectionsLimit int `yaml:"connections_limit,omitempty"`
	// ReadHeaderTimeoutMS bounds the time spent reading request headers
	ReadHeaderTimeoutMS int `yaml:"read_header_timeout_ms,omitempty"`
	// IdleTimeoutMS bounds how long an idle keep-alive connection is retained
	IdleTimeoutMS int `yaml:"idle_timeout_ms,omitempty"`
	// TLSHandshakeTimeoutMS bounds the time to complete a TLS handshake
	TLSHandshakeTimeoutMS int `yaml:"tls_handshake_timeout_ms,omitempty"`
	// DrainTimeoutMS bounds how long a drained listener waits for in-flight requests
	DrainTimeoutMS int `yaml:"drain_timeout_ms,omitempty"`
}

// New returns a new frontend Options with default values
func New() *Options {
	return &Options{
		ListenAddress:         DefaultListenAddress,
		ListenPort:            DefaultListenPort,
		TLSListenPort:         DefaultTLSListenPort,
		ConnectionsLimit:      DefaultConnectionsLimit,
		ReadHeaderTimeoutMS:   DefaultReadHeaderTimeoutMS,
		IdleTimeoutMS:         DefaultIdleTimeoutMS,
		TLSHandshakeTimeoutMS: DefaultTLSHandshakeTimeoutMS,
		DrainTimeoutMS:        DefaultDrainTimeoutMS,
	}
}

// Equal returns true if the two Options are identical in value
func (o *Options) Equal(o2 *Options) bool {
	if o2 == nil {
		return false
	}
	return *o == *o2
}

// Clone returns a copy of the Options
func (o *Options) Clone() *Options {
	o2 := *o
	return &o2
}

// ReadHeaderTimeout returns the header read timeout as a time.Duration
func (o *Options) ReadHeaderTimeout() time.Duration {
	return time.Duration(o.ReadHeaderTimeoutMS) * time.Millisecond
}

// IdleTimeout returns the keep-alive idle timeout as a time.Duration
func (o *Options) IdleTimeout() time.Duration {
	return time.Duration(o.IdleTimeoutMS) * time.Millisecond
}

// TLSHandshakeTimeout returns the handshake timeout as a time.Duration
func (o *Options) TLSHandshakeTimeout() time.Duration {
	return time.Duration(o.TLSHandshakeTimeoutMS) * time.Millisecond
}

// DrainTimeout returns the listener drain timeout as a time.Duration
func (o *Options) DrainTimeout() time.Duration {
	return time.Duration(o.DrainTimeoutMS) * time.Millisecond
}
