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

// Package lm represents a simple Longest Match router. Requests match the
// most specific host pattern first (exact name, then single-label wildcard,
// then the any-host pattern), and within a host the longest registered path
// prefix. Among routes of equal specificity the first-registered wins.
package lm

import (
	"net/http"
	"sort"
	"strings"

	"github.com/cbltserver/cblt/pkg/errors"
	"github.com/cbltserver/cblt/pkg/proxy/handlers"
	"github.com/cbltserver/cblt/pkg/proxy/headers"
	meth "github.com/cbltserver/cblt/pkg/proxy/methods"
	"github.com/cbltserver/cblt/pkg/router"
	"github.com/cbltserver/cblt/pkg/router/route"
)

var _ router.Router = &lmRouter{}

type lmRouter struct {
	matchScheme router.MatchingScheme
	routes      route.HostRouteSetLookup
}

func NewRouter() router.Router {
	return &lmRouter{
		matchScheme: router.DefaultMatchingScheme,
		routes:      make(route.HostRouteSetLookup),
	}
}

var emptyHost = []string{""}
var defaultMethods = []string{http.MethodGet, http.MethodHead}

func (rt *lmRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.RequestURI == "*" {
		if r.ProtoAtLeast(1, 1) {
			w.Header().Set(headers.NameConnection, headers.ValueClose)
		}
		handlers.HandleBadRequestResponse(w, r)
		return
	}
	rt.Handler(r).ServeHTTP(w, r)
}

func (rt *lmRouter) RegisterRoute(path string, hosts, methods []string,
	matchPrefix bool, handler http.Handler) error {
	pl := len(path)
	if pl == 0 {
		return errors.ErrInvalidPath
	}
	if len(methods) == 0 {
		methods = defaultMethods
	} else {
		for i, m := range methods {
			if !meth.IsValidMethod(m) {
				return errors.ErrInvalidMethod
			}
			methods[i] = strings.ToUpper(m)
		}
	}
	if hosts == nil {
		hosts = emptyHost
	}
	for _, h := range hosts {
		if !validHostPattern(h) {
			return errors.ErrInvalidHost
		}
	}
	for _, h := range hosts {
		hrc, ok := rt.routes[h]
		if !ok || hrc == nil {
			hrc = &route.HostRouteSet{
				ExactMatchRoutes:     make(route.LookupLookup),
				PrefixMatchRoutes:    make(route.PrefixRouteSets, 0, 16),
				PrefixMatchRoutesLkp: make(route.PrefixRouteSetLookup),
			}
			rt.routes[h] = hrc
		}
		if !matchPrefix {
			rl, ok := hrc.ExactMatchRoutes[path]
			if rl == nil || !ok {
				rl = make(route.Lookup)
				hrc.ExactMatchRoutes[path] = rl
			}
			registerMethods(rl, methods, h, path, true, handler)
			continue
		}
		prc, ok := hrc.PrefixMatchRoutesLkp[path]
		if prc == nil || !ok {
			prc = &route.PrefixRouteSet{
				Path:           path,
				PathLen:        pl,
				RoutesByMethod: make(route.Lookup),
			}
			hrc.PrefixMatchRoutesLkp[path] = prc
			hrc.PrefixMatchRoutes = append(hrc.PrefixMatchRoutes, prc)
		}
		registerMethods(prc.RoutesByMethod, methods, h, path, false, handler)
	}
	rt.sort()
	return nil
}

// validHostPattern accepts the empty pattern (any host), the any-host
// pattern, an exact hostname, or a hostname whose wildcard is a single
// leading label
func validHostPattern(h string) bool {
	if h == "" || h == "*" {
		return true
	}
	rest := strings.TrimPrefix(h, "*.")
	return rest != "" && !strings.Contains(rest, "*") &&
		!strings.ContainsAny(rest, " \t")
}

// registerMethods adds the handler under each method, keeping any
// already-registered handler so that the first declaration wins
func registerMethods(rl route.Lookup, methods []string, host, path string,
	exact bool, handler http.Handler) {
	for _, m := range methods {
		if _, ok := rl[m]; !ok {
			rl[m] = &route.Route{
				ExactMatch: exact,
				Method:     m,
				Host:       host,
				Path:       path,
				Handler:    handler,
			}
		}
		if m == http.MethodGet {
			if _, ok := rl[http.MethodHead]; !ok {
				rl[http.MethodHead] = &route.Route{
					ExactMatch: exact,
					Method:     http.MethodHead,
					Host:       host,
					Path:       path,
					Handler:    handler,
				}
			}
		}
	}
}

// this sorts the prefix-match paths longest to shortest
func (rt *lmRouter) sort() {
	for _, hrc := range rt.routes {
		if len(hrc.PrefixMatchRoutes) == 0 {
			continue
		}
		prs := hrc.PrefixMatchRoutes
		sort.SliceStable(prs, func(i, j int) bool {
			return prs[i].PathLen > prs[j].PathLen
		})
	}
}

func (rt *lmRouter) Handler(r *http.Request) http.Handler {
	if rt.matchScheme&router.MatchHostname == router.MatchHostname {
		host := r.Host
		if i := strings.Index(host, ":"); i >= 0 {
			host = host[0:i]
		}
		for _, h := range hostCandidates(host) {
			if handler := rt.matchByHost(r.Method, h, r.URL.Path); handler != nil {
				return handler
			}
		}
	}
	if h := rt.matchByHost(r.Method, "", r.URL.Path); h != nil {
		return h
	}
	return notFoundHandler
}

// hostCandidates returns the host patterns a request host is checked
// against, most specific first: the exact name, its single-label wildcard
// form, and the any-host pattern
func hostCandidates(host string) []string {
	if i := strings.Index(host, "."); i > 0 {
		return []string{host, "*" + host[i:], "*"}
	}
	return []string{host, "*"}
}

func (rt *lmRouter) matchByHost(method, host, path string) http.Handler {
	if hrc, ok := rt.routes[host]; ok && hrc != nil {
		if rs, ok := hrc.ExactMatchRoutes[path]; ok && rs != nil {
			r, ok := rs[method]
			if !ok || r == nil {
				return methodNotAllowedHandler
			}
			return r.Handler
		}
		if rt.matchScheme&router.MatchPathPrefix != router.MatchPathPrefix {
			return nil
		}
		lp := len(path)
		for _, prc := range hrc.PrefixMatchRoutes {
			if prc.PathLen > lp {
				continue
			}
			if strings.HasPrefix(path, prc.Path) {
				r, ok := prc.RoutesByMethod[method]
				if !ok || r == nil {
					return methodNotAllowedHandler
				}
				return r.Handler
			}
		}
	}
	return nil
}

func (rt *lmRouter) SetMatchingScheme(s router.MatchingScheme) {
	rt.matchScheme = s
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "405 method not allowed", http.StatusMethodNotAllowed)
}

var methodNotAllowedHandler = http.HandlerFunc(MethodNotAllowed)
var notFoundHandler = http.NotFoundHandler()
