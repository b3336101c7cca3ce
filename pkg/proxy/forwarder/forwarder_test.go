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

package forwarder

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cbltserver/cblt/pkg/config"
	"github.com/cbltserver/cblt/pkg/proxy/headers"
)

func testProxyConfig() *config.ProxyConfig {
	return &config.ProxyConfig{
		ConnectTimeoutMS:        500,
		ResponseHeaderTimeoutMS: 500,
		IdleConnTimeoutMS:       config.DefaultProxyIdleConnTimeoutMS,
		MaxIdleConns:            config.DefaultProxyMaxIdleConns,
		MaxIdleConnsPerHost:     config.DefaultProxyMaxIdleConnsPerHost,
	}
}

func TestForwarderRelaysRequest(t *testing.T) {
	var sawPath, sawXFF, sawProto, sawConnection string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawPath = r.URL.RequestURI()
		sawXFF = r.Header.Get(headers.NameXForwardedFor)
		sawProto = r.Header.Get(headers.NameXForwardedProto)
		sawConnection = r.Header.Get(headers.NameKeepAlive)
		w.Header().Set(headers.NameContentType, "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	f, err := New("example.com", upstream.Listener.Addr().String(), testProxyConfig())
	if err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest(http.MethodPost, "http://example.com/api/v1?x=1",
		strings.NewReader(`{"in":1}`))
	r.RemoteAddr = "198.51.100.7:50000"
	r.Header.Set(headers.NameKeepAlive, "timeout=5")
	w := httptest.NewRecorder()
	f.ServeHTTP(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if sawPath != "/api/v1?x=1" {
		t.Errorf("expected full path and query to relay, got %q", sawPath)
	}
	if sawXFF != "198.51.100.7" {
		t.Errorf("expected X-Forwarded-For with client ip, got %q", sawXFF)
	}
	if sawProto != "http" {
		t.Errorf("expected X-Forwarded-Proto http, got %q", sawProto)
	}
	if sawConnection != "" {
		t.Errorf("expected hop-by-hop header to be stripped, got %q", sawConnection)
	}
	if w.Body.String() != `{"ok":true}` {
		t.Errorf("unexpected body %q", w.Body.String())
	}
	if via := w.Header().Get(headers.NameVia); via == "" {
		t.Error("expected a Via header on the relayed response")
	}
}

func TestForwarderDeadUpstream(t *testing.T) {
	// grab a port that nothing is listening on
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	f, err := New("example.com", addr, testProxyConfig())
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodGet, "http://example.com/api", nil)
	w := httptest.NewRecorder()
	start := time.Now()
	f.ServeHTTP(w, r)
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502 for dead upstream, got %d", w.Code)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("expected a fast failure, took %s", elapsed)
	}
}

func TestForwarderSlowUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer upstream.Close()

	f, err := New("example.com", upstream.Listener.Addr().String(), testProxyConfig())
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodGet, "http://example.com/slow", nil)
	w := httptest.NewRecorder()
	f.ServeHTTP(w, r)
	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("expected 504 for slow upstream, got %d", w.Code)
	}
}

func TestForwarderStreams(t *testing.T) {
	release := make(chan bool)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("chunk-1\n"))
		w.(http.Flusher).Flush()
		<-release
		w.Write([]byte("chunk-2\n"))
	}))
	defer upstream.Close()
	defer close(release)

	f, err := New("example.com", "http://"+upstream.Listener.Addr().String(),
		testProxyConfig())
	if err != nil {
		t.Fatal(err)
	}

	// drive the forwarder through a real server so streaming is observable
	front := httptest.NewServer(f)
	defer front.Close()
	resp, err := http.Get(front.URL + "/stream")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	buf := make([]byte, 64)
	n, err := resp.Body.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	// the first chunk arrives while the upstream still holds the connection
	if string(buf[:n]) != "chunk-1\n" {
		t.Fatalf("expected first chunk before upstream completion, got %q", string(buf[:n]))
	}
	release <- true
	rest, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(rest) != "chunk-2\n" {
		t.Errorf("unexpected remainder %q", string(rest))
	}
}

func TestForwarderBodilessRequest(t *testing.T) {
	var sawChunked bool
	var sawLength int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, te := range r.TransferEncoding {
			if te == "chunked" {
				sawChunked = true
			}
		}
		sawLength = r.ContentLength
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	f, err := New("example.com", upstream.Listener.Addr().String(), testProxyConfig())
	if err != nil {
		t.Fatal(err)
	}

	// drive the forwarder through a real server so the inbound request
	// carries the empty body a live connection would
	front := httptest.NewServer(f)
	defer front.Close()
	resp, err := http.Get(front.URL + "/ping")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
	if sawChunked || sawLength != 0 {
		t.Errorf("expected the GET to forward without a body, got chunked=%t length=%d",
			sawChunked, sawLength)
	}
}

func TestNewForwarderBadUpstream(t *testing.T) {
	if _, err := New("example.com", "http://%zz", testProxyConfig()); err == nil {
		t.Error("expected a parse error for an invalid upstream")
	}
	f, err := New("example.com", "backend:9000", testProxyConfig())
	if err != nil {
		t.Fatal(err)
	}
	if f.upstream.Scheme != "http" || f.upstream.Host != "backend:9000" {
		t.Errorf("unexpected upstream url %s", f.upstream)
	}
	if _, ok := f.transport.(*http.Transport); !ok {
		t.Error("expected a pooled http transport")
	}
}
