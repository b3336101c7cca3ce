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

package handlers

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/cbltserver/cblt/pkg/proxy/headers"
)

// URIPlaceholder in a redirect target is replaced with the request path
const URIPlaceholder = "{uri}"

// NewRedirectHandler returns a handler that responds with the provided
// status code and a Location built from the target, substituting the request
// path for any {uri} placeholder
func NewRedirectHandler(target string, code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		location := strings.ReplaceAll(target, URIPlaceholder, r.URL.Path)
		w.Header().Set(headers.NameLocation, location)
		w.WriteHeader(code)
	})
}

// NewTLSRedirectHandler returns a handler that upgrades plaintext requests
// to their https equivalent, preserving host, path and query. A nonstandard
// tls port is carried in the Location; 443 is implied.
func NewTLSRedirectHandler(tlsPort int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if tlsPort > 0 && tlsPort != 443 {
			host = net.JoinHostPort(host, strconv.Itoa(tlsPort))
		}
		location := "https://" + host + r.URL.RequestURI()
		w.Header().Set(headers.NameLocation, location)
		w.WriteHeader(http.StatusMovedPermanently)
	})
}
