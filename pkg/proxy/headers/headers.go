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

// Package headers provides functionality for HTTP Headers not provided by
// the builtin net/http package
package headers

import (
	"net/http"
	"strings"
)

const (
	// Common HTTP Header Values

	// ValueClose represents the HTTP Header Value of "close"
	ValueClose = "close"
	// ValueNoTransform represents the HTTP Header Value of "no-transform"
	ValueNoTransform = "no-transform"

	// Common HTTP Header Names

	// NameCacheControl represents the HTTP Header Name of "Cache-Control"
	NameCacheControl = "Cache-Control"
	// NameConnection represents the HTTP Header Name of "Connection"
	NameConnection = "Connection"
	// NameContentType represents the HTTP Header Name of "Content-Type"
	NameContentType = "Content-Type"
	// NameContentEncoding represents the HTTP Header Name of "Content-Encoding"
	NameContentEncoding = "Content-Encoding"
	// NameContentLength represents the HTTP Header Name of "Content-Length"
	NameContentLength = "Content-Length"
	// NameAcceptEncoding represents the HTTP Header Name of "Accept-Encoding"
	NameAcceptEncoding = "Accept-Encoding"
	// NameHost represents the HTTP Header Name of "Host"
	NameHost = "Host"
	// NameKeepAlive represents the HTTP Header Name of "Keep-Alive"
	NameKeepAlive = "Keep-Alive"
	// NameLastModified represents the HTTP Header Name of "Last-Modified"
	NameLastModified = "Last-Modified"
	// NameLocation represents the HTTP Header Name of "Location"
	NameLocation = "Location"
	// NameProxyAuthenticate represents the HTTP Header Name of "Proxy-Authenticate"
	NameProxyAuthenticate = "Proxy-Authenticate"
	// NameProxyAuthorization represents the HTTP Header Name of "Proxy-Authorization"
	NameProxyAuthorization = "Proxy-Authorization"
	// NameProxyConnection represents the HTTP Header Name of "Proxy-Connection"
	NameProxyConnection = "Proxy-Connection"
	// NameTe represents the HTTP Header Name of "Te"
	NameTe = "Te"
	// NameTrailer represents the HTTP Header Name of "Trailer"
	NameTrailer = "Trailer"
	// NameTransferEncoding represents the HTTP Header Name of "Transfer-Encoding"
	NameTransferEncoding = "Transfer-Encoding"
	// NameUpgrade represents the HTTP Header Name of "Upgrade"
	NameUpgrade = "Upgrade"
	// NameXForwardedFor represents the HTTP Header Name of "X-Forwarded-For"
	NameXForwardedFor = "X-Forwarded-For"
	// NameXForwardedProto represents the HTTP Header Name of "X-Forwarded-Proto"
	NameXForwardedProto = "X-Forwarded-Proto"
	// NameXForwardedHost represents the HTTP Header Name of "X-Forwarded-Host"
	NameXForwardedHost = "X-Forwarded-Host"
	// NameVia represents the HTTP Header Name of "Via"
	NameVia = "Via"
	// NameVary represents the HTTP Header Name of "Vary"
	NameVary = "Vary"
	// NameServer represents the HTTP Header Name of "Server"
	NameServer = "Server"
)

// hopHeaders enumerates the hop-by-hop headers, which are stripped before a
// request or response is relayed to the other side of the proxy
var hopHeaders = []string{
	NameConnection,
	NameKeepAlive,
	NameProxyAuthenticate,
	NameProxyAuthorization,
	NameProxyConnection,
	NameTe,
	NameTrailer,
	NameTransferEncoding,
	NameUpgrade,
}

// StripHopHeaders removes the hop-by-hop headers from the provided header
// collection, including any headers nominated by the Connection header
func StripHopHeaders(h http.Header) {
	if h == nil {
		return
	}
	for _, v := range h.Values(NameConnection) {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				h.Del(f)
			}
		}
	}
	for _, name := range hopHeaders {
		h.Del(name)
	}
}

// AppendToXForwardedFor appends the client address from the provided request
// to the X-Forwarded-For header value of the same request
func AppendToXForwardedFor(r *http.Request, clientIP string) {
	if r == nil || clientIP == "" {
		return
	}
	if prior := r.Header.Get(NameXForwardedFor); prior != "" {
		clientIP = prior + ", " + clientIP
	}
	r.Header.Set(NameXForwardedFor, clientIP)
}
