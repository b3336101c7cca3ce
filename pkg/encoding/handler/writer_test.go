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

package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cbltserver/cblt/pkg/encoding/gzip"
	"github.com/cbltserver/cblt/pkg/encoding/providers"
	"github.com/cbltserver/cblt/pkg/proxy/headers"
)

const testBody = "<html><body>hello hello hello hello hello</body></html>"

func testHandler(status int, contentType string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headers.NameContentType, contentType)
		w.WriteHeader(status)
		w.Write([]byte(testBody))
	})
}

func TestHandleCompressionGZip(t *testing.T) {
	h := HandleCompression(testHandler(http.StatusOK, "text/html"))
	r := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	r.Header.Set(headers.NameAcceptEncoding, "gzip, deflate")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if ce := w.Header().Get(headers.NameContentEncoding); ce != providers.GZipValue {
		t.Fatalf("expected gzip content encoding, got %q", ce)
	}
	if v := w.Header().Get(headers.NameVary); v != headers.NameAcceptEncoding {
		t.Errorf("expected Vary: Accept-Encoding, got %q", v)
	}
	b, err := gzip.Decode(w.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != testBody {
		t.Errorf("unexpected decoded body %q", string(b))
	}
}

func TestHandleCompressionPreference(t *testing.T) {
	h := HandleCompression(testHandler(http.StatusOK, "application/json"))
	r := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	r.Header.Set(headers.NameAcceptEncoding, "gzip;q=1.0, br;q=0.9, zstd")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if ce := w.Header().Get(headers.NameContentEncoding); ce != providers.ZstandardValue {
		t.Errorf("expected zstd content encoding, got %q", ce)
	}
}

func TestHandleCompressionSkips(t *testing.T) {

	tests := []struct {
		name, acceptEncoding, contentType string
		method                            string
		status                            int
	}{
		{"no accept-encoding", "", "text/html", http.MethodGet, http.StatusOK},
		{"q zero", "gzip;q=0", "text/html", http.MethodGet, http.StatusOK},
		{"unknown encoding", "compress", "text/html", http.MethodGet, http.StatusOK},
		{"binary content", "gzip", "image/png", http.MethodGet, http.StatusOK},
		{"head request", "gzip", "text/html", http.MethodHead, http.StatusOK},
		{"non-200 status", "gzip", "text/html", http.MethodGet, http.StatusPartialContent},
	}

	for _, tc := range tests {
		h := HandleCompression(testHandler(tc.status, tc.contentType))
		r := httptest.NewRequest(tc.method, "http://example.com/", nil)
		if tc.acceptEncoding != "" {
			r.Header.Set(headers.NameAcceptEncoding, tc.acceptEncoding)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if ce := w.Header().Get(headers.NameContentEncoding); ce != "" {
			t.Errorf("%s: expected identity response, got %q", tc.name, ce)
		}
		if tc.method == http.MethodGet && !strings.Contains(w.Body.String(), "hello") {
			t.Errorf("%s: unexpected body %q", tc.name, w.Body.String())
		}
	}
}

func TestHandleCompressionNoTransform(t *testing.T) {
	h := HandleCompression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headers.NameContentType, "text/html")
		w.Header().Set(headers.NameCacheControl, "public, no-transform")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(testBody))
	}))
	r := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	r.Header.Set(headers.NameAcceptEncoding, "gzip")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if ce := w.Header().Get(headers.NameContentEncoding); ce != "" {
		t.Errorf("expected no-transform response to pass through, got %q", ce)
	}
	if w.Body.String() != testBody {
		t.Errorf("expected body to pass through untouched, got %q", w.Body.String())
	}
}

func TestHandleCompressionUpstreamAlreadyEncoded(t *testing.T) {
	h := HandleCompression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headers.NameContentType, "text/html")
		w.Header().Set(headers.NameContentEncoding, providers.BrotliValue)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pre-encoded"))
	}))
	r := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	r.Header.Set(headers.NameAcceptEncoding, "gzip")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if ce := w.Header().Get(headers.NameContentEncoding); ce != providers.BrotliValue {
		t.Errorf("expected the existing encoding to pass through, got %q", ce)
	}
	if w.Body.String() != "pre-encoded" {
		t.Errorf("expected body to pass through untouched, got %q", w.Body.String())
	}
}
