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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCbltfile(t *testing.T) {
	path := writeTestConfig(t, "Cbltfile", testCbltfile)
	c, err := Load([]string{"-config", path, "-log-level", "debug", "-port", "8080"})
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Sites) != 3 {
		t.Errorf("expected 3 sites, got %d", len(c.Sites))
	}
	if c.Logging.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", c.Logging.LogLevel)
	}
	if c.Frontend.ListenPort != 8080 {
		t.Errorf("expected listen port 8080, got %d", c.Frontend.ListenPort)
	}
	if c.ConfigFilePath() != path {
		t.Errorf("expected provided file %s, got %s", path, c.ConfigFilePath())
	}
	if c.IsStale() {
		t.Error("expected freshly loaded config to not be stale")
	}
}

func TestLoadYAML(t *testing.T) {
	const doc = `
main:
  index_file: default.html
  enable_dir_listing: true
frontend:
  listen_port: 8000
  connections_limit: 512
metrics:
  listen_port: 9090
proxy:
  connect_timeout_ms: 2000
sites:
  - host: example.com
    directives:
      - serve / /srv/www
      - tls /etc/cblt/cert.pem /etc/cblt/key.pem
  - host: "*"
    port: 8081
    directives:
      - reverse_proxy / backend:9000
`
	path := writeTestConfig(t, "cblt.yaml", doc)
	c, err := Load([]string{"-config", path})
	if err != nil {
		t.Fatal(err)
	}
	if c.Main.IndexFile != "default.html" || !c.Main.EnableDirListing {
		t.Errorf("unexpected main config %+v", c.Main)
	}
	if c.Frontend.ListenPort != 8000 || c.Frontend.ConnectionsLimit != 512 {
		t.Errorf("unexpected frontend config %+v", c.Frontend)
	}
	if c.Metrics.ListenPort != 9090 {
		t.Errorf("unexpected metrics config %+v", c.Metrics)
	}
	if c.Proxy.ConnectTimeoutMS != 2000 ||
		c.Proxy.MaxIdleConns != DefaultProxyMaxIdleConns {
		t.Errorf("unexpected proxy config %+v", c.Proxy)
	}
	if len(c.Sites) != 2 || !c.Sites[0].ServesTLS() || c.Sites[1].Port != 8081 {
		t.Errorf("unexpected sites %s", c.Sites)
	}
}

func TestLoadEnvSite(t *testing.T) {
	t.Setenv(evHost, "env.example.com")
	t.Setenv(evUpstream, "127.0.0.1:9000")
	t.Setenv(evPort, "8088")
	c, err := Load([]string{"-config", filepath.Join(t.TempDir(), "no-such-file")})
	if err == nil {
		t.Fatal("expected error for custom path to missing file")
	}
	c, err = Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Sites) != 1 {
		t.Fatalf("expected 1 site, got %d", len(c.Sites))
	}
	s := c.Sites[0]
	if s.HostPattern != "env.example.com" ||
		s.Directives[0].Type != DirectiveReverseProxy ||
		s.Directives[0].Upstream != "127.0.0.1:9000" {
		t.Errorf("unexpected env-derived site %s {%s}", s.Header(), s.Directives[0])
	}
	if c.Frontend.ListenPort != 8088 {
		t.Errorf("expected listen port 8088, got %d", c.Frontend.ListenPort)
	}
	if len(c.LoaderWarnings) == 0 {
		t.Error("expected a loader warning for env-derived configuration")
	}
}

func TestLoadEnvSiteAmbiguous(t *testing.T) {
	t.Setenv(evRoot, "/srv/www")
	t.Setenv(evUpstream, "127.0.0.1:9000")
	_, err := Load(nil)
	if err == nil || !strings.Contains(err.Error(), "exactly one of") {
		t.Errorf("expected ambiguity error, got %v", err)
	}
}

func TestValidateTLSConflict(t *testing.T) {
	const text = `
example.com {
    serve / /srv/a
    tls /etc/a.crt /etc/a.key
}
example.com {
    serve /b /srv/b
    tls /etc/b.crt /etc/b.key
}
`
	path := writeTestConfig(t, "Cbltfile", text)
	_, err := Load([]string{"-config", path})
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected a *ConflictError, got %v", err)
	}
	if ce.Host != "example.com" || len(ce.Lines) != 2 {
		t.Errorf("unexpected conflict %v", ce)
	}
}

func TestValidateMixedPortConflict(t *testing.T) {
	const text = `
a.example.com:8443 {
    serve / /srv/a
    tls /etc/a.crt /etc/a.key
}
b.example.com:8443 {
    serve / /srv/b
}
`
	path := writeTestConfig(t, "Cbltfile", text)
	_, err := Load([]string{"-config", path})
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected a *ConflictError, got %v", err)
	}
	if !strings.Contains(ce.Error(), "port 8443") {
		t.Errorf("unexpected conflict message %q", ce)
	}
}

func TestValidateDuplicateRoutesAllowed(t *testing.T) {
	// identical host+prefix in two blocks is not a conflict; the
	// first-declared directive wins at dispatch time
	const text = `
example.com {
    serve / /srv/a
}
example.com {
    serve / /srv/b
}
`
	path := writeTestConfig(t, "Cbltfile", text)
	if _, err := Load([]string{"-config", path}); err != nil {
		t.Errorf("expected duplicate routes to load, got %v", err)
	}
}

func TestValidateBadUpstream(t *testing.T) {
	const text = "example.com {\n reverse_proxy / ftp://backend:21\n}\n"
	path := writeTestConfig(t, "Cbltfile", text)
	_, err := Load([]string{"-config", path})
	if err == nil || !strings.Contains(err.Error(), "invalid upstream scheme") {
		t.Errorf("expected upstream scheme error, got %v", err)
	}
}

func TestConfigCloneAndEqual(t *testing.T) {
	path := writeTestConfig(t, "Cbltfile", testCbltfile)
	c, err := Load([]string{"-config", path})
	if err != nil {
		t.Fatal(err)
	}
	c2 := c.Clone()
	if !c.Equal(c2) {
		t.Error("expected clone to equal original")
	}
	c2.Sites[0].Directives[0].Root = "/srv/other"
	if c.Equal(c2) {
		t.Error("expected modified clone to differ")
	}
	if c.Sites[0].Directives[0].Root == "/srv/other" {
		t.Error("clone mutation leaked into original")
	}
}
