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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cbltserver/cblt/pkg/proxy/headers"
)

func TestNewRedirectHandler(t *testing.T) {
	h := NewRedirectHandler("https://other.example{uri}", http.StatusFound)
	r := httptest.NewRequest(http.MethodGet, "http://example.com/old/path", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusFound {
		t.Errorf("expected 302, got %d", w.Code)
	}
	if l := w.Header().Get(headers.NameLocation); l != "https://other.example/old/path" {
		t.Errorf("unexpected location %q", l)
	}

	h = NewRedirectHandler("/gone", http.StatusMovedPermanently)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if l := w.Header().Get(headers.NameLocation); l != "/gone" {
		t.Errorf("unexpected location %q", l)
	}
}

func TestNewTLSRedirectHandler(t *testing.T) {
	h := NewTLSRedirectHandler(443)
	r := httptest.NewRequest(http.MethodGet, "http://example.com/a/b?c=d", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusMovedPermanently {
		t.Errorf("expected 301, got %d", w.Code)
	}
	if l := w.Header().Get(headers.NameLocation); l != "https://example.com/a/b?c=d" {
		t.Errorf("unexpected location %q", l)
	}

	// nonstandard tls port is carried in the location
	h = NewTLSRedirectHandler(8443)
	r = httptest.NewRequest(http.MethodGet, "http://example.com:8080/a", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if l := w.Header().Get(headers.NameLocation); l != "https://example.com:8443/a" {
		t.Errorf("unexpected location %q", l)
	}
}

func TestSwitchHandler(t *testing.T) {
	a := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	b := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	sw := NewSwitchHandler(a)
	r := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)

	w := httptest.NewRecorder()
	sw.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 before update, got %d", w.Code)
	}

	sw.Update(b)
	w = httptest.NewRecorder()
	sw.ServeHTTP(w, r)
	if w.Code != http.StatusTeapot {
		t.Errorf("expected 418 after update, got %d", w.Code)
	}
	if sw.Handler() == nil {
		t.Error("expected a current handler")
	}
}
