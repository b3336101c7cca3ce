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

// Package handler provides a response-compressing middleware that negotiates
// the encoding from the client's Accept-Encoding header
package handler

import (
	"net/http"

	"github.com/cbltserver/cblt/pkg/encoding/providers"
	"github.com/cbltserver/cblt/pkg/proxy/headers"
)

// HandleCompression wraps next so that encodable response bodies are
// compressed with the client's preferred supported encoding
func HandleCompression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := providers.Negotiate(r.Header.Get(headers.NameAcceptEncoding))
		if p == providers.Identity || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		ew := NewResponseEncoder(w, p)
		defer ew.Close()
		next.ServeHTTP(ew, r)
	})
}
