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
	"errors"
	"strings"
	"testing"
)

const testCbltfile = `
# frontend sites
example.com {
    serve / /srv/www/example
    reverse_proxy /api 127.0.0.1:8000
    tls /etc/cblt/example.com.crt /etc/cblt/example.com.key
}

*.example.com {
    redirect / https://example.com{uri} 301
}

localhost:8080 {
    serve /static /srv/static
    serve / /srv/www
}
`

func TestParseSites(t *testing.T) {
	sites, err := ParseSites("Cbltfile", testCbltfile)
	if err != nil {
		t.Fatal(err)
	}
	if len(sites) != 3 {
		t.Fatalf("expected 3 sites, got %d", len(sites))
	}
	s := sites[0]
	if s.HostPattern != "example.com" || s.Port != 0 {
		t.Errorf("unexpected site header %s", s.Header())
	}
	if !s.ServesTLS() {
		t.Error("expected site 0 to serve tls")
	}
	if len(s.Directives) != 3 {
		t.Fatalf("expected 3 directives, got %d", len(s.Directives))
	}
	if s.Directives[1].Type != DirectiveReverseProxy ||
		s.Directives[1].Upstream != "127.0.0.1:8000" {
		t.Errorf("unexpected directive %s", s.Directives[1])
	}

	s = sites[1]
	if !s.IsWildcard() {
		t.Errorf("expected %s to be a wildcard pattern", s.HostPattern)
	}
	if d := s.Directives[0]; d.RedirectCode != 301 || d.Target != "https://example.com{uri}" {
		t.Errorf("unexpected redirect directive %s", d)
	}

	s = sites[2]
	if s.HostPattern != "localhost" || s.Port != 8080 {
		t.Errorf("unexpected site header %s", s.Header())
	}
	if s.EffectivePort(80, 443) != 8080 {
		t.Errorf("expected effective port 8080, got %d", s.EffectivePort(80, 443))
	}
}

func TestParseSitesRoundTrip(t *testing.T) {
	sites, err := ParseSites("Cbltfile", testCbltfile)
	if err != nil {
		t.Fatal(err)
	}
	text := sites.String()
	sites2, err := ParseSites("Cbltfile", text)
	if err != nil {
		t.Fatalf("reparse of serialized sites failed: %v\n%s", err, text)
	}
	if text2 := sites2.String(); text2 != text {
		t.Errorf("round trip mismatch:\n%s\n----\n%s", text, text2)
	}
}

func TestParseSitesDefaultRedirectCode(t *testing.T) {
	sites, err := ParseSites("", "example.com {\n redirect / https://other.example\n}\n")
	if err != nil {
		t.Fatal(err)
	}
	if c := sites[0].Directives[0].RedirectCode; c != DefaultRedirectCode {
		t.Errorf("expected default redirect code %d, got %d", DefaultRedirectCode, c)
	}
}

func TestParseSitesErrors(t *testing.T) {

	tests := []struct {
		name, text, want string
		line             int
	}{
		{"empty", "", "no sites", 0},
		{"unterminated block", "example.com {\n serve / /srv\n", "unexpected end", 1},
		{"bad header", "example.com\n", "expected site block header", 1},
		{"bad port", "example.com:http {\n}\n", "invalid port", 1},
		{"bad wildcard", "foo.*.com {\n serve / /srv\n}\n", "wildcard must be a leading label", 1},
		{"unknown directive", "example.com {\n cache / 60\n}\n", "unknown directive", 2},
		{"serve arity", "example.com {\n serve /\n}\n", "expected `serve", 2},
		{"relative prefix", "example.com {\n serve static /srv\n}\n", "must begin with /", 2},
		{"bad redirect code", "example.com {\n redirect / /new 418\n}\n", "invalid redirect status", 2},
		{"duplicate tls", "example.com {\n tls a.crt a.key\n tls b.crt b.key\n}\n", "duplicate tls", 3},
	}

	for _, tc := range tests {
		_, err := ParseSites("Cbltfile", tc.text)
		if err == nil {
			t.Errorf("%s: expected error, got none", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: expected error containing %q, got %q", tc.name, tc.want, err)
		}
		var ce *Error
		if !errors.As(err, &ce) {
			t.Errorf("%s: expected a *config.Error, got %T", tc.name, err)
			continue
		}
		if tc.line > 0 && ce.Line != tc.line {
			t.Errorf("%s: expected error on line %d, got %d", tc.name, tc.line, ce.Line)
		}
	}
}

func TestParseSitesStripsComments(t *testing.T) {
	text := "example.com { # main site\n serve / /srv # all paths\n}\n"
	sites, err := ParseSites("", text)
	if err != nil {
		t.Fatal(err)
	}
	if sites[0].Directives[0].Root != "/srv" {
		t.Errorf("unexpected root %q", sites[0].Directives[0].Root)
	}
}
