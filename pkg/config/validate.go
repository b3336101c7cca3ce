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
	"net/url"
	"strings"

	"github.com/cbltserver/cblt/pkg/errors"
	"github.com/cbltserver/cblt/pkg/observability/logging/level"
)

// Validate checks the loaded Config for semantic errors: empty or
// meaningless directives, contradictory TLS material for a host, and mixed
// TLS/plaintext sites sharing one explicit port
func (c *Config) Validate() error {
	if len(c.Sites) == 0 {
		return errors.ErrNoSites
	}
	if c.Logging.LogLevel != "" && level.GetID(level.Level(strings.ToLower(c.Logging.LogLevel))) == 0 {
		return &Error{Directive: "log-level",
			Err: fmt.Errorf("invalid log level %q", c.Logging.LogLevel)}
	}
	file := c.providedFile

	tlsByHost := make(map[string]*Site)
	portMode := make(map[int]*Site)
	for _, site := range c.Sites {
		if err := validateSiteDirectives(file, site); err != nil {
			return err
		}
		// contradictory certificate material for one host pattern
		if site.ServesTLS() {
			if prev, ok := tlsByHost[site.HostPattern]; ok && !prev.TLS.Equal(site.TLS) {
				return &ConflictError{Host: site.HostPattern,
					Lines:  []int{prev.Line, site.Line},
					Detail: "site blocks declare different tls certificate material"}
			}
			tlsByHost[site.HostPattern] = site
		}
		// a port serves either tls or plaintext, not both
		port := site.EffectivePort(c.Frontend.ListenPort, c.Frontend.TLSListenPort)
		if prev, ok := portMode[port]; ok && prev.ServesTLS() != site.ServesTLS() {
			return &ConflictError{Host: fmt.Sprintf("port %d", port),
				Lines:  []int{prev.Line, site.Line},
				Detail: "port mixes tls and plaintext sites"}
		}
		portMode[port] = site
	}
	return nil
}

func validateSiteDirectives(file string, site *Site) error {
	for _, d := range site.Directives {
		switch d.Type {
		case DirectiveServe:
			if d.Root == "" {
				return &Error{File: file, Line: d.Line, Directive: "serve",
					Err: fmt.Errorf("empty root path")}
			}
		case DirectiveReverseProxy:
			if err := validateUpstream(d.Upstream); err != nil {
				return &Error{File: file, Line: d.Line, Directive: "reverse_proxy", Err: err}
			}
		case DirectiveRedirect:
			if d.Target == "" {
				return &Error{File: file, Line: d.Line, Directive: "redirect",
					Err: fmt.Errorf("empty redirect target")}
			}
			if !validRedirectCodes[d.RedirectCode] {
				return &Error{File: file, Line: d.Line, Directive: "redirect",
					Err: fmt.Errorf("invalid redirect status %d", d.RedirectCode)}
			}
		}
	}
	return nil
}

// validateUpstream accepts `host:port`, `host`, or a full http(s) url
func validateUpstream(upstream string) error {
	if upstream == "" {
		return fmt.Errorf("empty upstream address")
	}
	s := upstream
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid upstream address %q: %w", upstream, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid upstream scheme %q; must be http or https", u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("upstream address %q has no host", upstream)
	}
	return nil
}
