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

package tls

import (
	"crypto/tls"
	"sync"

	"github.com/cbltserver/cblt/pkg/errors"
)

// CertSwapper is the vehicle for dynamically swapping the list of
// certificates used by a listener without restarting it. GetCert is consulted
// per-handshake; SetCerts replaces the list during a reload.
type CertSwapper struct {
	Certificates []tls.Certificate
	mtx          sync.RWMutex
}

// NewSwapper returns a new CertSwapper based on the provided certs
func NewSwapper(certs []tls.Certificate) *CertSwapper {
	return &CertSwapper{Certificates: certs}
}

// GetCert returns the first certificate supporting the ClientHello's server
// name. A handshake naming no configured certificate fails outright rather
// than falling back to an arbitrary certificate.
func (c *CertSwapper) GetCert(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	if len(c.Certificates) == 0 {
		return nil, errors.ErrNoCertificates
	}
	for i := range c.Certificates {
		if err := hello.SupportsCertificate(&c.Certificates[i]); err == nil {
			return &c.Certificates[i], nil
		}
	}
	return nil, errors.ErrNoCertificates
}

// SetCerts safely updates the certs list for the subject CertSwapper
func (c *CertSwapper) SetCerts(certs []tls.Certificate) {
	c.mtx.Lock()
	c.Certificates = certs
	c.mtx.Unlock()
}
