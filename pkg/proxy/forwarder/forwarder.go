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

// Package forwarder relays requests to an upstream origin and streams the
// response back to the client. Neither direction is fully buffered, so large
// and long-lived responses flow as they arrive.
package forwarder

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cbltserver/cblt/pkg/appinfo"
	"github.com/cbltserver/cblt/pkg/config"
	"github.com/cbltserver/cblt/pkg/observability/logging"
	"github.com/cbltserver/cblt/pkg/observability/logging/logger"
	"github.com/cbltserver/cblt/pkg/observability/metrics"
	"github.com/cbltserver/cblt/pkg/proxy/handlers"
	"github.com/cbltserver/cblt/pkg/proxy/headers"
	meth "github.com/cbltserver/cblt/pkg/proxy/methods"
)

// Forwarder relays matched requests to one upstream address
type Forwarder struct {
	site      string
	upstream  *url.URL
	transport http.RoundTripper
}

// New returns a Forwarder for the provided upstream address, which may be
// `host`, `host:port`, or a full http(s) url. siteName labels the
// forwarder's log events and metrics.
func New(siteName, upstream string, pc *config.ProxyConfig) (*Forwarder, error) {
	s := upstream
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	return &Forwarder{
		site:      siteName,
		upstream:  u,
		transport: newTransport(pc),
	}, nil
}

// newTransport returns a pooled transport honoring the configured upstream
// connection tunables
func newTransport(pc *config.ProxyConfig) *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   pc.ConnectTimeout(),
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          pc.MaxIdleConns,
		MaxIdleConnsPerHost:   pc.MaxIdleConnsPerHost,
		IdleConnTimeout:       pc.IdleConnTimeout(),
		ResponseHeaderTimeout: pc.ResponseHeaderTimeout(),
	}
}

func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	out := f.outboundRequest(r)
	resp, err := f.transport.RoundTrip(out)
	if err != nil {
		f.handleUpstreamError(w, r, err)
		return
	}
	defer resp.Body.Close()

	metrics.UpstreamRequestStatus.WithLabelValues(f.site, f.upstream.Host,
		r.Method, strconv.Itoa(resp.StatusCode)).Inc()

	h := w.Header()
	for k, vs := range resp.Header {
		// the upstream's value replaces any default set by the frontend
		h.Del(k)
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	headers.StripHopHeaders(h)
	h.Add(headers.NameVia, viaValue())
	w.WriteHeader(resp.StatusCode)
	relay(w, resp.Body)
}

// outboundRequest clones the inbound request, retargets it at the upstream,
// strips hop-by-hop headers and stamps the forwarding headers
func (f *Forwarder) outboundRequest(r *http.Request) *http.Request {
	out := r.Clone(r.Context())
	out.URL.Scheme = f.upstream.Scheme
	out.URL.Host = f.upstream.Host
	out.Host = f.upstream.Host
	out.RequestURI = ""

	// a bodiless inbound request forwards with no body at all, not a
	// zero-length chunked stream
	if out.ContentLength == 0 && !meth.HasBody(out.Method) {
		out.Body = nil
	}

	headers.StripHopHeaders(out.Header)
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		headers.AppendToXForwardedFor(out, ip)
	}
	proto := "http"
	if r.TLS != nil {
		proto = "https"
	}
	out.Header.Set(headers.NameXForwardedProto, proto)
	out.Header.Set(headers.NameXForwardedHost, r.Host)
	out.Header.Add(headers.NameVia, viaValue())
	return out
}

func viaValue() string {
	return "1.1 " + appinfo.Name
}

// handleUpstreamError distinguishes timeouts (504) from connection failures
// (502); client disconnects are logged and receive no response
func (f *Forwarder) handleUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		logger.Debug("client disconnected during upstream request",
			logging.Pairs{"site": f.site, "upstream": f.upstream.Host})
		return
	}
	status := http.StatusBadGateway
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &ne) && ne.Timeout()) {
		status = http.StatusGatewayTimeout
	}
	logger.Error("upstream request failed",
		logging.Pairs{"site": f.site, "upstream": f.upstream.Host,
			"path": r.URL.Path, "detail": err.Error(), "status": status})
	metrics.UpstreamRequestStatus.WithLabelValues(f.site, f.upstream.Host,
		r.Method, strconv.Itoa(status)).Inc()
	if status == http.StatusGatewayTimeout {
		handlers.HandleGatewayTimeout(w, r)
		return
	}
	handlers.HandleBadGateway(w, r)
}

// relay streams the upstream body to the client, flushing after each chunk
// so long-lived responses are delivered as they arrive
func relay(w http.ResponseWriter, body io.Reader) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			return
		}
	}
}
