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

// Package providers enumerates the supported content encodings and selects
// one from a client's Accept-Encoding header
package providers

import (
	"strconv"
	"strings"
)

type Provider byte

const (
	// Identity is the no-encoding provider
	Identity Provider = 0

	Zstandard Provider = 1 << iota
	Brotli
	GZip
)

// Content-Encoding / Accept-Encoding token values
const (
	ZstandardValue = "zstd"
	BrotliValue    = "br"
	GZipValue      = "gzip"
)

var providerNames = map[Provider]string{
	Zstandard: ZstandardValue,
	Brotli:    BrotliValue,
	GZip:      GZipValue,
}

var providerIDs = map[string]Provider{
	ZstandardValue: Zstandard,
	BrotliValue:    Brotli,
	GZipValue:      GZip,
}

// Name returns the header token for the provider, or empty for Identity
func Name(p Provider) string {
	return providerNames[p]
}

// ProviderID returns the Provider for the header token, or Identity when
// the token names no supported encoding
func ProviderID(name string) Provider {
	return providerIDs[strings.ToLower(name)]
}

// preference orders the supported providers best-first
var preference = []Provider{Zstandard, Brotli, GZip}

// Negotiate returns the preferred supported Provider named with a nonzero
// quality in the provided Accept-Encoding header value, or Identity
func Negotiate(acceptEncoding string) Provider {
	if acceptEncoding == "" {
		return Identity
	}
	accepted := Identity
	for _, part := range strings.Split(acceptEncoding, ",") {
		token := strings.TrimSpace(part)
		q := 1.0
		if i := strings.Index(token, ";"); i >= 0 {
			params := token[i+1:]
			token = strings.TrimSpace(token[:i])
			if j := strings.Index(params, "q="); j >= 0 {
				if f, err := strconv.ParseFloat(strings.TrimSpace(params[j+2:]), 64); err == nil {
					q = f
				}
			}
		}
		if q <= 0 {
			continue
		}
		accepted |= ProviderID(token)
	}
	for _, p := range preference {
		if accepted&p == p {
			return p
		}
	}
	return Identity
}
