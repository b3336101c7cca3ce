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
	"strconv"
	"strings"

	to "github.com/cbltserver/cblt/pkg/proxy/tls/options"
)

// Sites is an ordered list of Site blocks. Declaration order is preserved
// through parsing and is significant: among directives of equal specificity,
// the first-declared wins.
type Sites []*Site

// Site is a host pattern plus its ordered directives. The host pattern is an
// exact hostname, a single-label wildcard subdomain (*.example.com), or the
// fallback pattern "*" which matches any host.
type Site struct {
	// HostPattern is the host portion of the site block header, without port
	HostPattern string
	// Port is a nonzero value only when the site header carried an explicit
	// :port suffix; otherwise the frontend defaults (80/443) apply
	Port int
	// Directives are the site's configured behaviors in declaration order
	Directives []*Directive
	// TLS holds the certificate/key paths when the site declares a tls directive
	TLS *to.Options
	// Line is the Cbltfile line the site block header appeared on
	Line int
}

// ServesTLS returns true if the site declares a tls directive
func (s *Site) ServesTLS() bool {
	return s.TLS != nil
}

// EffectivePort resolves the port the site is served on, applying the
// provided plaintext and tls defaults when the site has no explicit port
func (s *Site) EffectivePort(httpPort, tlsPort int) int {
	if s.Port > 0 {
		return s.Port
	}
	if s.ServesTLS() {
		return tlsPort
	}
	return httpPort
}

// Header returns the canonical site block header text
func (s *Site) Header() string {
	if s.Port > 0 {
		return s.HostPattern + ":" + strconv.Itoa(s.Port)
	}
	return s.HostPattern
}

// IsWildcard returns true when the host pattern is a single-label wildcard
// (or the full fallback pattern "*")
func (s *Site) IsWildcard() bool {
	return s.HostPattern == "*" || strings.HasPrefix(s.HostPattern, "*.")
}

// DirectiveType enumerates the closed set of configured behaviors
type DirectiveType int

const (
	// DirectiveServe serves static files from a root path
	DirectiveServe DirectiveType = iota
	// DirectiveReverseProxy relays requests to an upstream address
	DirectiveReverseProxy
	// DirectiveRedirect responds with a Location header and redirect status
	DirectiveRedirect
	// DirectiveTLS declares certificate and key paths for the site
	DirectiveTLS
)

var directiveNames = map[DirectiveType]string{
	DirectiveServe:        "serve",
	DirectiveReverseProxy: "reverse_proxy",
	DirectiveRedirect:     "redirect",
	DirectiveTLS:          "tls",
}

func (t DirectiveType) String() string {
	if s, ok := directiveNames[t]; ok {
		return s
	}
	return strconv.Itoa(int(t))
}

// Directive is one configured behavior, scoped to a path prefix within its
// site. Only the fields relevant to its Type are populated.
type Directive struct {
	Type       DirectiveType
	PathPrefix string
	// Root is the static assets root path (serve)
	Root string
	// Upstream is the upstream address, with or without scheme (reverse_proxy)
	Upstream string
	// Target is the redirect destination; may contain a {uri} placeholder
	// that is replaced with the request path (redirect)
	Target string
	// RedirectCode is the redirect response status code (redirect)
	RedirectCode int
	// CertPath and KeyPath are the certificate material paths (tls)
	CertPath string
	KeyPath  string
	// Line is the Cbltfile line the directive appeared on
	Line int
}

// String returns the canonical single-line text of the Directive
func (d *Directive) String() string {
	switch d.Type {
	case DirectiveServe:
		return fmt.Sprintf("serve %s %s", d.PathPrefix, d.Root)
	case DirectiveReverseProxy:
		return fmt.Sprintf("reverse_proxy %s %s", d.PathPrefix, d.Upstream)
	case DirectiveRedirect:
		return fmt.Sprintf("redirect %s %s %d", d.PathPrefix, d.Target, d.RedirectCode)
	case DirectiveTLS:
		return fmt.Sprintf("tls %s %s", d.CertPath, d.KeyPath)
	}
	return ""
}

// Clone returns an exact copy of the Directive
func (d *Directive) Clone() *Directive {
	d2 := *d
	return &d2
}

// String serializes the Sites back to canonical Cbltfile text. Parsing the
// output yields an equivalent Sites value.
func (s Sites) String() string {
	sb := &strings.Builder{}
	for i, site := range s {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(site.Header() + " {\n")
		for _, d := range site.Directives {
			sb.WriteString("    " + d.String() + "\n")
		}
		sb.WriteString("}\n")
	}
	return sb.String()
}

// Clone returns a deep copy of the Sites list
func (s Sites) Clone() Sites {
	out := make(Sites, len(s))
	for i, site := range s {
		s2 := &Site{
			HostPattern: site.HostPattern,
			Port:        site.Port,
			Line:        site.Line,
			Directives:  make([]*Directive, len(site.Directives)),
		}
		for j, d := range site.Directives {
			s2.Directives[j] = d.Clone()
		}
		if site.TLS != nil {
			s2.TLS = site.TLS.Clone()
		}
		out[i] = s2
	}
	return out
}
