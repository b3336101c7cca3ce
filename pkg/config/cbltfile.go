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
	"bufio"
	"fmt"
	"strconv"
	"strings"

	to "github.com/cbltserver/cblt/pkg/proxy/tls/options"
)

// redirect status codes accepted by the redirect directive
var validRedirectCodes = map[int]bool{
	301: true, 302: true, 303: true, 307: true, 308: true,
}

// DefaultRedirectCode is used when a redirect directive omits its status code
const DefaultRedirectCode = 302

// ParseSites parses Cbltfile text into an ordered Sites list. file is used
// only to annotate errors and may be empty.
func ParseSites(file, text string) (Sites, error) {
	var sites Sites
	var cur *Site
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := sc.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if cur == nil {
			site, err := parseSiteHeader(file, line, n)
			if err != nil {
				return nil, err
			}
			cur = site
			continue
		}
		if line == "}" {
			sites = append(sites, cur)
			cur = nil
			continue
		}
		d, err := parseDirective(file, line, n)
		if err != nil {
			return nil, err
		}
		if d.Type == DirectiveTLS {
			if cur.TLS != nil {
				return nil, &Error{File: file, Line: n, Directive: "tls",
					Err: fmt.Errorf("duplicate tls directive for site %s", cur.Header())}
			}
			cur.TLS = &to.Options{FullChainCertPath: d.CertPath, PrivateKeyPath: d.KeyPath}
		}
		cur.Directives = append(cur.Directives, d)
	}
	if err := sc.Err(); err != nil {
		return nil, &Error{File: file, Line: n, Err: err}
	}
	if cur != nil {
		return nil, &Error{File: file, Line: cur.Line, Directive: cur.Header(), Err: ErrUnexpectedEOF}
	}
	if len(sites) == 0 {
		return nil, &Error{File: file, Err: ErrEmptyConfig}
	}
	return sites, nil
}

// parseSiteHeader parses `host[:port] {` into a Site
func parseSiteHeader(file, line string, n int) (*Site, error) {
	if !strings.HasSuffix(line, "{") {
		return nil, &Error{File: file, Line: n,
			Err: fmt.Errorf("expected site block header `host[:port] {`, got %q", line)}
	}
	header := strings.TrimSpace(strings.TrimSuffix(line, "{"))
	if header == "" || strings.ContainsAny(header, " \t") {
		return nil, &Error{File: file, Line: n,
			Err: fmt.Errorf("invalid site block header %q", line)}
	}
	site := &Site{HostPattern: header, Line: n}
	if i := strings.LastIndex(header, ":"); i >= 0 {
		port, err := strconv.Atoi(header[i+1:])
		if err != nil || port < 1 || port > 65535 {
			return nil, &Error{File: file, Line: n,
				Err: fmt.Errorf("invalid port in site block header %q", header)}
		}
		site.HostPattern = header[:i]
		site.Port = port
	}
	if err := validateHostPattern(site.HostPattern); err != nil {
		return nil, &Error{File: file, Line: n, Err: err}
	}
	return site, nil
}

// validateHostPattern enforces that wildcards appear only as a leading
// single label, or as the bare fallback pattern
func validateHostPattern(h string) error {
	if h == "" {
		return fmt.Errorf("empty host pattern")
	}
	if h == "*" {
		return nil
	}
	rest := h
	if strings.HasPrefix(h, "*.") {
		rest = h[2:]
	}
	if rest == "" || strings.Contains(rest, "*") {
		return fmt.Errorf("invalid host pattern %q: wildcard must be a leading label", h)
	}
	return nil
}

// parseDirective parses one directive line within a site block
func parseDirective(file, line string, n int) (*Directive, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, &Error{File: file, Line: n, Err: fmt.Errorf("empty directive")}
	}
	name := fields[0]
	args := fields[1:]
	d := &Directive{Line: n}
	switch name {
	case "serve":
		if len(args) != 2 {
			return nil, &Error{File: file, Line: n, Directive: name,
				Err: fmt.Errorf("expected `serve <path-prefix> <root>`")}
		}
		d.Type = DirectiveServe
		d.PathPrefix = args[0]
		d.Root = args[1]
	case "reverse_proxy":
		if len(args) != 2 {
			return nil, &Error{File: file, Line: n, Directive: name,
				Err: fmt.Errorf("expected `reverse_proxy <path-prefix> <upstream>`")}
		}
		d.Type = DirectiveReverseProxy
		d.PathPrefix = args[0]
		d.Upstream = args[1]
	case "redirect":
		if len(args) != 2 && len(args) != 3 {
			return nil, &Error{File: file, Line: n, Directive: name,
				Err: fmt.Errorf("expected `redirect <path-prefix> <target> [status]`")}
		}
		d.Type = DirectiveRedirect
		d.PathPrefix = args[0]
		d.Target = args[1]
		d.RedirectCode = DefaultRedirectCode
		if len(args) == 3 {
			code, err := strconv.Atoi(args[2])
			if err != nil || !validRedirectCodes[code] {
				return nil, &Error{File: file, Line: n, Directive: name,
					Err: fmt.Errorf("invalid redirect status %q; must be one of 301, 302, 303, 307, 308", args[2])}
			}
			d.RedirectCode = code
		}
	case "tls":
		if len(args) != 2 {
			return nil, &Error{File: file, Line: n, Directive: name,
				Err: fmt.Errorf("expected `tls <cert-path> <key-path>`")}
		}
		d.Type = DirectiveTLS
		d.CertPath = args[0]
		d.KeyPath = args[1]
	default:
		return nil, &Error{File: file, Line: n, Directive: name,
			Err: fmt.Errorf("unknown directive")}
	}
	if d.Type != DirectiveTLS {
		if !strings.HasPrefix(d.PathPrefix, "/") {
			return nil, &Error{File: file, Line: n, Directive: name,
				Err: fmt.Errorf("path prefix %q must begin with /", d.PathPrefix)}
		}
	}
	return d, nil
}
