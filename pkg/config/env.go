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
	"os"
	"strconv"

	to "github.com/cbltserver/cblt/pkg/proxy/tls/options"
)

// environment variable names
const (
	evHost        = "CBLT_HOST"
	evRoot        = "CBLT_ROOT"
	evUpstream    = "CBLT_UPSTREAM"
	evRedirect    = "CBLT_REDIRECT"
	evCertPath    = "CBLT_CERT_PATH"
	evKeyPath     = "CBLT_KEY_PATH"
	evPort        = "CBLT_PORT"
	evTLSPort     = "CBLT_TLS_PORT"
	evMetricsPort = "CBLT_METRICS_PORT"
	evLogLevel    = "CBLT_LOG_LEVEL"
	evLogFile     = "CBLT_LOG_FILE"
)

// envSiteConfigured returns true when enough CBLT_* variables are present to
// derive a single-site configuration without a configuration file
func envSiteConfigured() bool {
	if _, ok := os.LookupEnv(evRoot); ok {
		return true
	}
	if _, ok := os.LookupEnv(evUpstream); ok {
		return true
	}
	if _, ok := os.LookupEnv(evRedirect); ok {
		return true
	}
	return false
}

// sitesFromEnv derives a single-site configuration from CBLT_* variables.
// Exactly one of CBLT_ROOT, CBLT_UPSTREAM or CBLT_REDIRECT selects the
// behavior; CBLT_HOST defaults to the fallback pattern.
func sitesFromEnv() (Sites, error) {
	host := os.Getenv(evHost)
	if host == "" {
		host = "*"
	}
	if err := validateHostPattern(host); err != nil {
		return nil, &Error{Directive: evHost, Err: err}
	}
	site := &Site{HostPattern: host, Line: 0}

	root, hasRoot := os.LookupEnv(evRoot)
	upstream, hasUpstream := os.LookupEnv(evUpstream)
	redirect, hasRedirect := os.LookupEnv(evRedirect)
	n := 0
	for _, ok := range []bool{hasRoot, hasUpstream, hasRedirect} {
		if ok {
			n++
		}
	}
	if n != 1 {
		return nil, &Error{Err: fmt.Errorf(
			"exactly one of %s, %s or %s must be set", evRoot, evUpstream, evRedirect)}
	}

	switch {
	case hasRoot:
		site.Directives = []*Directive{{Type: DirectiveServe, PathPrefix: "/", Root: root}}
	case hasUpstream:
		site.Directives = []*Directive{{Type: DirectiveReverseProxy, PathPrefix: "/",
			Upstream: upstream}}
	case hasRedirect:
		site.Directives = []*Directive{{Type: DirectiveRedirect, PathPrefix: "/",
			Target: redirect, RedirectCode: DefaultRedirectCode}}
	}

	cert, key := os.Getenv(evCertPath), os.Getenv(evKeyPath)
	if (cert == "") != (key == "") {
		return nil, &Error{Err: fmt.Errorf(
			"%s and %s must be set together", evCertPath, evKeyPath)}
	}
	if cert != "" {
		site.TLS = &to.Options{FullChainCertPath: cert, PrivateKeyPath: key}
		site.Directives = append(site.Directives,
			&Directive{Type: DirectiveTLS, CertPath: cert, KeyPath: key})
	}
	return Sites{site}, nil
}

// loadEnvVars overlays non-site environment variables onto the Config
func (c *Config) loadEnvVars() error {
	for _, ev := range []struct {
		name string
		dst  *int
	}{
		{evPort, &c.Frontend.ListenPort},
		{evTLSPort, &c.Frontend.TLSListenPort},
		{evMetricsPort, &c.Metrics.ListenPort},
	} {
		if v, ok := os.LookupEnv(ev.name); ok {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 || n > 65535 {
				return &Error{Directive: ev.name,
					Err: fmt.Errorf("invalid port value %q", v)}
			}
			*ev.dst = n
		}
	}
	if v, ok := os.LookupEnv(evLogLevel); ok {
		c.Logging.LogLevel = v
	}
	if v, ok := os.LookupEnv(evLogFile); ok {
		c.Logging.LogFile = v
	}
	return nil
}
