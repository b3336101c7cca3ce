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

// Package tls handles the certificate material for tls-serving sites: it
// loads and verifies certificates from the configuration and swaps them on
// running listeners during reloads.
package tls

import (
	"crypto/tls"

	"github.com/cbltserver/cblt/pkg/config"
	to "github.com/cbltserver/cblt/pkg/proxy/tls/options"
)

// CertsForPort returns the certificates for all tls-serving sites bound to
// the provided effective port, in site declaration order. Duplicate
// certificate material for one host pattern is collapsed; validation has
// already rejected contradictory material.
func CertsForPort(c *config.Config, port int) ([]tls.Certificate, error) {
	var certs []tls.Certificate
	seen := make(map[string]bool)
	for _, site := range c.Sites {
		if !site.ServesTLS() {
			continue
		}
		if site.EffectivePort(c.Frontend.ListenPort, c.Frontend.TLSListenPort) != port {
			continue
		}
		key := site.TLS.FullChainCertPath + "\x00" + site.TLS.PrivateKeyPath
		if seen[key] {
			continue
		}
		seen[key] = true
		cert, err := site.TLS.Validate()
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

// OptionsChanged returns true if the tls options for any site on any port
// differ between the provided configs
func OptionsChanged(conf, oldConf *config.Config) bool {
	if oldConf == nil {
		return true
	}
	old := tlsOptionsByHeader(oldConf)
	next := tlsOptionsByHeader(conf)
	if len(old) != len(next) {
		return true
	}
	for k, o := range next {
		o2, ok := old[k]
		if !ok || !o.Equal(o2) {
			return true
		}
	}
	return false
}

func tlsOptionsByHeader(c *config.Config) map[string]*to.Options {
	out := make(map[string]*to.Options)
	for _, site := range c.Sites {
		if site.ServesTLS() {
			out[site.Header()] = site.TLS
		}
	}
	return out
}
