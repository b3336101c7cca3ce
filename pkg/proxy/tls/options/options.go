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

// Package options provides the TLS options for a site
package options

import (
	"crypto/tls"
)

// Options is a collection of TLS-related server configurations for a site
type Options struct {
	// FullChainCertPath specifies the path of the file containing the
	// concatenated server certificate and any intermediates for the tls endpoint
	FullChainCertPath string `yaml:"full_chain_cert_path,omitempty"`
	// PrivateKeyPath specifies the path of the private key file for the tls endpoint
	PrivateKeyPath string `yaml:"private_key_path,omitempty"`
	// ServeTLS is set to true once the Cert and Key files have been validated,
	// indicating the consumer of this config can service requests over TLS
	ServeTLS bool `yaml:"-"`
}

// New will return a *Options with the default settings
func New() *Options {
	return &Options{}
}

// Clone returns an exact copy of the subject *Options
func (o *Options) Clone() *Options {
	return &Options{
		FullChainCertPath: o.FullChainCertPath,
		PrivateKeyPath:    o.PrivateKeyPath,
		ServeTLS:          o.ServeTLS,
	}
}

// Equal returns true if all exposed option members are equal
func (o *Options) Equal(o2 *Options) bool {
	if o2 == nil {
		return false
	}
	return o.FullChainCertPath == o2.FullChainCertPath &&
		o.PrivateKeyPath == o2.PrivateKeyPath
}

// Validate loads the configured certificate and key pair, returning the
// parsed certificate on success. Validation failures do not mutate ServeTLS.
func (o *Options) Validate() (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(o.FullChainCertPath, o.PrivateKeyPath)
	if err != nil {
		return tls.Certificate{}, err
	}
	o.ServeTLS = true
	return cert, nil
}
