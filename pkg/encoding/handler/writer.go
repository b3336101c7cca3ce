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
	"io"
	"net/http"
	"strings"

	"github.com/cbltserver/cblt/pkg/encoding/brotli"
	"github.com/cbltserver/cblt/pkg/encoding/gzip"
	"github.com/cbltserver/cblt/pkg/encoding/providers"
	"github.com/cbltserver/cblt/pkg/encoding/zstd"
	"github.com/cbltserver/cblt/pkg/proxy/headers"
)

// ResponseEncoder wraps a ResponseWriter and encodes the response body with
// the negotiated provider when the response turns out to be encodable. The
// decision is deferred until the headers are written, since the content type
// and status are unknown before then.
type ResponseEncoder struct {
	http.ResponseWriter
	provider providers.Provider
	enc      io.WriteCloser
	decided  bool
}

// NewResponseEncoder returns a ResponseEncoder for the negotiated provider
func NewResponseEncoder(w http.ResponseWriter, p providers.Provider) *ResponseEncoder {
	return &ResponseEncoder{ResponseWriter: w, provider: p}
}

func (ew *ResponseEncoder) WriteHeader(code int) {
	if ew.decided {
		ew.ResponseWriter.WriteHeader(code)
		return
	}
	ew.decided = true
	h := ew.Header()
	// range and error responses pass through unencoded, as does anything
	// already carrying a content encoding
	if code == http.StatusOK && ew.provider != providers.Identity &&
		h.Get(headers.NameContentEncoding) == "" &&
		!strings.Contains(h.Get(headers.NameCacheControl), "no-transform") &&
		isEncodableContentType(h.Get(headers.NameContentType)) {
		h.Del(headers.NameContentLength)
		h.Set(headers.NameContentEncoding, providers.Name(ew.provider))
		h.Add(headers.NameVary, headers.NameAcceptEncoding)
		ew.enc = newEncoder(ew.ResponseWriter, ew.provider)
	}
	ew.ResponseWriter.WriteHeader(code)
}

func (ew *ResponseEncoder) Write(b []byte) (int, error) {
	if !ew.decided {
		ew.WriteHeader(http.StatusOK)
	}
	if ew.enc != nil {
		return ew.enc.Write(b)
	}
	return ew.ResponseWriter.Write(b)
}

// Close flushes and closes the underlying encoder, if any. It must be called
// once the wrapped handler returns.
func (ew *ResponseEncoder) Close() error {
	if ew.enc != nil {
		return ew.enc.Close()
	}
	return nil
}

func newEncoder(w io.Writer, p providers.Provider) io.WriteCloser {
	switch p {
	case providers.Zstandard:
		return zstd.NewEncoder(w, -1)
	case providers.Brotli:
		return brotli.NewEncoder(w, -1)
	case providers.GZip:
		return gzip.NewEncoder(w, -1)
	}
	return nil
}

// isEncodableContentType returns true for text-like content types that
// benefit from compression
func isEncodableContentType(ct string) bool {
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	if strings.HasPrefix(ct, "text/") {
		return true
	}
	switch ct {
	case "application/json", "application/javascript", "application/xml",
		"application/xhtml+xml", "application/rss+xml", "application/atom+xml",
		"application/wasm", "image/svg+xml":
		return true
	}
	return false
}
