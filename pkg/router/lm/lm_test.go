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

package lm

import (
	"net/http"
	"net/http/httptest"
	"testing"

	te "github.com/cbltserver/cblt/pkg/errors"
	meth "github.com/cbltserver/cblt/pkg/proxy/methods"
)

func marker(id string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test-Route", id)
		w.WriteHeader(http.StatusOK)
	})
}

func routeFor(t *testing.T, rt interface {
	Handler(*http.Request) http.Handler
}, method, host, path string) string {
	t.Helper()
	r := httptest.NewRequest(method, "http://"+host+path, nil)
	w := httptest.NewRecorder()
	rt.Handler(r).ServeHTTP(w, r)
	return w.Header().Get("X-Test-Route")
}

func TestLongestPrefixWins(t *testing.T) {
	rt := NewRouter()
	rt.RegisterRoute("/", []string{"example.com"}, nil, true, marker("root"))
	rt.RegisterRoute("/static", []string{"example.com"}, nil, true, marker("static"))
	rt.RegisterRoute("/static/img", []string{"example.com"}, nil, true, marker("img"))

	for path, want := range map[string]string{
		"/":                "root",
		"/about":           "root",
		"/static":          "static",
		"/static/site.css": "static",
		"/static/img/a":    "img",
	} {
		if got := routeFor(t, rt, http.MethodGet, "example.com", path); got != want {
			t.Errorf("path %s: expected route %q, got %q", path, want, got)
		}
	}
}

func TestExactHostBeatsWildcard(t *testing.T) {
	rt := NewRouter()
	rt.RegisterRoute("/", []string{"*.example.com"}, nil, true, marker("wild"))
	rt.RegisterRoute("/", []string{"api.example.com"}, nil, true, marker("api"))
	rt.RegisterRoute("/", []string{"*"}, nil, true, marker("any"))

	if got := routeFor(t, rt, http.MethodGet, "api.example.com", "/"); got != "api" {
		t.Errorf("expected exact host route, got %q", got)
	}
	if got := routeFor(t, rt, http.MethodGet, "www.example.com", "/"); got != "wild" {
		t.Errorf("expected wildcard host route, got %q", got)
	}
	// wildcard covers one label only
	if got := routeFor(t, rt, http.MethodGet, "a.b.example.com", "/"); got != "any" {
		t.Errorf("expected any-host route for two-label subdomain, got %q", got)
	}
	if got := routeFor(t, rt, http.MethodGet, "other.example", "/"); got != "any" {
		t.Errorf("expected any-host route, got %q", got)
	}
}

func TestFirstRegisteredWins(t *testing.T) {
	rt := NewRouter()
	rt.RegisterRoute("/", []string{"example.com"}, nil, true, marker("first"))
	rt.RegisterRoute("/", []string{"example.com"}, nil, true, marker("second"))
	if got := routeFor(t, rt, http.MethodGet, "example.com", "/"); got != "first" {
		t.Errorf("expected first-registered route, got %q", got)
	}
}

func TestMethodHandling(t *testing.T) {
	rt := NewRouter()
	rt.RegisterRoute("/", []string{"example.com"}, nil, true, marker("files"))
	rt.RegisterRoute("/api", []string{"example.com"}, meth.AllHTTPMethods(),
		true, marker("api"))

	// nil methods implies GET and HEAD
	if got := routeFor(t, rt, http.MethodHead, "example.com", "/x"); got != "files" {
		t.Errorf("expected HEAD to route with GET, got %q", got)
	}
	r := httptest.NewRequest(http.MethodPost, "http://example.com/x", nil)
	w := httptest.NewRecorder()
	rt.ServeHTTP(w, r)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for POST to static route, got %d", w.Code)
	}
	if got := routeFor(t, rt, http.MethodPost, "example.com", "/api/v1"); got != "api" {
		t.Errorf("expected POST to route to api, got %q", got)
	}

	if err := rt.RegisterRoute("/bad", nil, []string{"YEET"}, true, marker("x")); err == nil {
		t.Error("expected an error for an invalid method")
	}
	if err := rt.RegisterRoute("", nil, nil, true, marker("x")); err == nil {
		t.Error("expected an error for an empty path")
	}
	// wildcards are valid only as a leading label
	if err := rt.RegisterRoute("/bad", []string{"a.*.example.com"}, nil, true,
		marker("x")); err != te.ErrInvalidHost {
		t.Errorf("expected an invalid host error, got %v", err)
	}
}

func TestNotFoundAndBadRequest(t *testing.T) {
	rt := NewRouter()
	rt.RegisterRoute("/app", []string{"example.com"}, nil, true, marker("app"))

	r := httptest.NewRequest(http.MethodGet, "http://example.com/other", nil)
	w := httptest.NewRecorder()
	rt.ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unmatched path, got %d", w.Code)
	}

	r = httptest.NewRequest(http.MethodOptions, "http://example.com/", nil)
	r.RequestURI = "*"
	w = httptest.NewRecorder()
	rt.ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for asterisk request, got %d", w.Code)
	}
}
