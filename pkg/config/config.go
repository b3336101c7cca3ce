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

// Package config provides the Cbltfile configuration model: the site and
// directive types, parsers for the native block grammar and the YAML form,
// environment and flag overlays, and validation.
package config

import (
	"os"
	"sync"
	"time"

	fropt "github.com/cbltserver/cblt/pkg/frontend/options"
	lo "github.com/cbltserver/cblt/pkg/observability/logging/options"
)

// Config is the running configuration for the server
type Config struct {
	// Main is the primary configuration object
	Main *MainConfig `yaml:"main,omitempty"`
	// Frontend provides the listener configuration
	Frontend *fropt.Options `yaml:"frontend,omitempty"`
	// Logging provides the logging configuration
	Logging *lo.Options `yaml:"logging,omitempty"`
	// Metrics provides the metrics endpoint configuration
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
	// Proxy provides upstream connection tunables for reverse_proxy directives
	Proxy *ProxyConfig `yaml:"proxy,omitempty"`
	// Sites is the ordered list of configured sites
	Sites Sites `yaml:"-"`

	// Flags is a collection of values provided at startup via the cli
	Flags *Flags `yaml:"-"`
	// Resources holds runtime resources used by the application
	Resources *Resources `yaml:"-"`

	// LoaderWarnings holds warnings generated during config load that
	// should be logged once the logger is running
	LoaderWarnings []string `yaml:"-"`

	providedFile string
	lastModified time.Time
	stalenessMtx sync.Mutex
}

// MainConfig is a collection of general configuration values
type MainConfig struct {
	// ServerName represents the server name advertised in response headers
	ServerName string `yaml:"server_name,omitempty"`
	// InstanceID allows distinguishing multiple instances on one host
	InstanceID int `yaml:"instance_id,omitempty"`
	// IndexFile is the file served when a static request resolves to a directory
	IndexFile string `yaml:"index_file,omitempty"`
	// EnableDirListing permits directory listings when no index file exists
	EnableDirListing bool `yaml:"enable_dir_listing,omitempty"`
	// DisableHTTPRedirect disables the plaintext-to-TLS redirect for TLS sites
	DisableHTTPRedirect bool `yaml:"disable_http_redirect,omitempty"`
	// PidPath is the path where the process writes its pidfile
	PidPath string `yaml:"pid_path,omitempty"`

	// ReloaderLock ensures only one reload operation runs at a time
	ReloaderLock sync.Mutex `yaml:"-"`
}

// MetricsConfig is a collection of Metrics exposition configurations
type MetricsConfig struct {
	// ListenAddress is the address the metrics endpoint binds to
	ListenAddress string `yaml:"listen_address,omitempty"`
	// ListenPort is the port the metrics endpoint binds to; 0 disables it
	ListenPort int `yaml:"listen_port,omitempty"`
	// PprofEnabled exposes the pprof debug endpoints on the metrics listener
	PprofEnabled bool `yaml:"pprof_enabled,omitempty"`
}

// ProxyConfig holds upstream connection tunables shared by all
// reverse_proxy directives
type ProxyConfig struct {
	ConnectTimeoutMS        int `yaml:"connect_timeout_ms,omitempty"`
	ResponseHeaderTimeoutMS int `yaml:"response_header_timeout_ms,omitempty"`
	IdleConnTimeoutMS       int `yaml:"idle_conn_timeout_ms,omitempty"`
	MaxIdleConns            int `yaml:"max_idle_conns,omitempty"`
	MaxIdleConnsPerHost     int `yaml:"max_idle_conns_per_host,omitempty"`
}

// ConnectTimeout returns the upstream dial timeout as a time.Duration
func (pc *ProxyConfig) ConnectTimeout() time.Duration {
	return time.Duration(pc.ConnectTimeoutMS) * time.Millisecond
}

// ResponseHeaderTimeout returns the upstream response header timeout as a
// time.Duration
func (pc *ProxyConfig) ResponseHeaderTimeout() time.Duration {
	return time.Duration(pc.ResponseHeaderTimeoutMS) * time.Millisecond
}

// IdleConnTimeout returns the idle upstream connection timeout as a
// time.Duration
func (pc *ProxyConfig) IdleConnTimeout() time.Duration {
	return time.Duration(pc.IdleConnTimeoutMS) * time.Millisecond
}

// Resources holds runtime resources requiring a central place of access
type Resources struct {
	QuitChan chan bool `yaml:"-"`
}

// NewConfig returns a Config with default values
func NewConfig() *Config {
	return &Config{
		Main: &MainConfig{
			ServerName: defaultServerName(),
			IndexFile:  DefaultIndexFile,
		},
		Frontend: fropt.New(),
		Logging:  lo.New(),
		Metrics: &MetricsConfig{
			ListenPort: DefaultMetricsListenPort,
		},
		Proxy: &ProxyConfig{
			ConnectTimeoutMS:        DefaultProxyConnectTimeoutMS,
			ResponseHeaderTimeoutMS: DefaultProxyResponseHeaderTimeoutMS,
			IdleConnTimeoutMS:       DefaultProxyIdleConnTimeoutMS,
			MaxIdleConns:            DefaultProxyMaxIdleConns,
			MaxIdleConnsPerHost:     DefaultProxyMaxIdleConnsPerHost,
		},
		Flags: &Flags{},
		Resources: &Resources{
			QuitChan: make(chan bool, 1),
		},
		LoaderWarnings: make([]string, 0),
	}
}

func defaultServerName() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "localhost"
}

// ConfigFilePath returns the path of the loaded configuration file, or the
// empty string when the config did not come from a file
func (c *Config) ConfigFilePath() string {
	return c.providedFile
}

// SetProvidedFile records the file a Config was loaded from along with its
// modification time, for staleness checks
func (c *Config) SetProvidedFile(path string) {
	c.providedFile = path
	if fi, err := os.Stat(path); err == nil {
		c.lastModified = fi.ModTime()
	}
}

// IsStale returns true if the running config was loaded from a file and that
// file has since been modified
func (c *Config) IsStale() bool {
	c.stalenessMtx.Lock()
	defer c.stalenessMtx.Unlock()
	if c.providedFile == "" {
		return false
	}
	fi, err := os.Stat(c.providedFile)
	if err != nil {
		return false
	}
	return fi.ModTime() != c.lastModified
}

// Clone returns an exact copy of the subject Config, minus runtime resources
func (c *Config) Clone() *Config {
	nc := NewConfig()
	if c.Main != nil {
		nc.Main.ServerName = c.Main.ServerName
		nc.Main.InstanceID = c.Main.InstanceID
		nc.Main.IndexFile = c.Main.IndexFile
		nc.Main.EnableDirListing = c.Main.EnableDirListing
		nc.Main.DisableHTTPRedirect = c.Main.DisableHTTPRedirect
		nc.Main.PidPath = c.Main.PidPath
	}
	if c.Frontend != nil {
		nc.Frontend = c.Frontend.Clone()
	}
	if c.Logging != nil {
		nc.Logging = c.Logging.Clone()
	}
	if c.Metrics != nil {
		m := *c.Metrics
		nc.Metrics = &m
	}
	if c.Proxy != nil {
		p := *c.Proxy
		nc.Proxy = &p
	}
	nc.Sites = c.Sites.Clone()
	if c.Flags != nil {
		f := *c.Flags
		nc.Flags = &f
	}
	nc.providedFile = c.providedFile
	nc.lastModified = c.lastModified
	return nc
}

// Equal returns true if the two Configs would produce identical serving
// behavior. Runtime resources and flags are not compared.
func (c *Config) Equal(c2 *Config) bool {
	if c2 == nil {
		return false
	}
	if !c.Frontend.Equal(c2.Frontend) || !c.Logging.Equal(c2.Logging) {
		return false
	}
	if *c.Metrics != *c2.Metrics || *c.Proxy != *c2.Proxy {
		return false
	}
	if c.Main.ServerName != c2.Main.ServerName ||
		c.Main.IndexFile != c2.Main.IndexFile ||
		c.Main.EnableDirListing != c2.Main.EnableDirListing ||
		c.Main.DisableHTTPRedirect != c2.Main.DisableHTTPRedirect {
		return false
	}
	return c.Sites.String() == c2.Sites.String()
}
