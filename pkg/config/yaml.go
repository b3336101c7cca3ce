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
	"strings"

	to "github.com/cbltserver/cblt/pkg/proxy/tls/options"
	"gopkg.in/yaml.v3"
)

// yamlSite is the YAML representation of a site block. Directives are kept
// as ordered strings in the native directive syntax so that declaration
// order survives the round trip.
type yamlSite struct {
	Host       string   `yaml:"host"`
	Port       int      `yaml:"port,omitempty"`
	Directives []string `yaml:"directives"`
}

// yamlDocument is the top-level YAML configuration form
type yamlDocument struct {
	Main     *MainConfig    `yaml:"main,omitempty"`
	Frontend yaml.Node      `yaml:"frontend,omitempty"`
	Logging  yaml.Node      `yaml:"logging,omitempty"`
	Metrics  *MetricsConfig `yaml:"metrics,omitempty"`
	Proxy    *ProxyConfig   `yaml:"proxy,omitempty"`
	Sites    []yamlSite     `yaml:"sites"`
}

// isYAMLPath returns true if the config path carries a YAML file extension
func isYAMLPath(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}

// loadYAMLConfig parses the YAML configuration form into the Config,
// overlaying only the sections the document provides
func (c *Config) loadYAMLConfig(file string, data []byte) error {
	doc := &yamlDocument{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return &Error{File: file, Err: err}
	}
	if doc.Main != nil {
		if doc.Main.ServerName != "" {
			c.Main.ServerName = doc.Main.ServerName
		}
		if doc.Main.IndexFile != "" {
			c.Main.IndexFile = doc.Main.IndexFile
		}
		c.Main.EnableDirListing = doc.Main.EnableDirListing
		c.Main.DisableHTTPRedirect = doc.Main.DisableHTTPRedirect
		if doc.Main.PidPath != "" {
			c.Main.PidPath = doc.Main.PidPath
		}
		if doc.Main.InstanceID > 0 {
			c.Main.InstanceID = doc.Main.InstanceID
		}
	}
	if !doc.Frontend.IsZero() {
		if err := doc.Frontend.Decode(c.Frontend); err != nil {
			return &Error{File: file, Line: doc.Frontend.Line, Directive: "frontend", Err: err}
		}
	}
	if !doc.Logging.IsZero() {
		if err := doc.Logging.Decode(c.Logging); err != nil {
			return &Error{File: file, Line: doc.Logging.Line, Directive: "logging", Err: err}
		}
	}
	if doc.Metrics != nil {
		c.Metrics = doc.Metrics
	}
	if doc.Proxy != nil {
		p := c.Proxy
		if doc.Proxy.ConnectTimeoutMS > 0 {
			p.ConnectTimeoutMS = doc.Proxy.ConnectTimeoutMS
		}
		if doc.Proxy.ResponseHeaderTimeoutMS > 0 {
			p.ResponseHeaderTimeoutMS = doc.Proxy.ResponseHeaderTimeoutMS
		}
		if doc.Proxy.IdleConnTimeoutMS > 0 {
			p.IdleConnTimeoutMS = doc.Proxy.IdleConnTimeoutMS
		}
		if doc.Proxy.MaxIdleConns > 0 {
			p.MaxIdleConns = doc.Proxy.MaxIdleConns
		}
		if doc.Proxy.MaxIdleConnsPerHost > 0 {
			p.MaxIdleConnsPerHost = doc.Proxy.MaxIdleConnsPerHost
		}
	}

	sites := make(Sites, 0, len(doc.Sites))
	for i, ys := range doc.Sites {
		if ys.Host == "" {
			return &Error{File: file, Directive: "sites",
				Err: fmt.Errorf("site %d is missing a host", i)}
		}
		if err := validateHostPattern(ys.Host); err != nil {
			return &Error{File: file, Directive: "sites", Err: err}
		}
		if ys.Port < 0 || ys.Port > 65535 {
			return &Error{File: file, Directive: "sites",
				Err: fmt.Errorf("site %s has invalid port %d", ys.Host, ys.Port)}
		}
		site := &Site{HostPattern: ys.Host, Port: ys.Port}
		for _, text := range ys.Directives {
			d, err := parseDirective(file, strings.TrimSpace(text), 0)
			if err != nil {
				return err
			}
			if d.Type == DirectiveTLS {
				if site.TLS != nil {
					return &Error{File: file, Directive: "tls",
						Err: fmt.Errorf("duplicate tls directive for site %s", site.Header())}
				}
				site.TLS = &to.Options{FullChainCertPath: d.CertPath, PrivateKeyPath: d.KeyPath}
			}
			site.Directives = append(site.Directives, d)
		}
		sites = append(sites, site)
	}
	if len(sites) == 0 {
		return &Error{File: file, Err: ErrEmptyConfig}
	}
	c.Sites = sites
	return nil
}
