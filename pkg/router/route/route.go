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

// Package route provides the lookup structures used by routers
package route

import "net/http"

type Route struct {
	ExactMatch bool
	Method     string
	Host       string
	Path       string
	Handler    http.Handler
}

type Routes []*Route

// Lookup maps a method to its Route
type Lookup map[string]*Route

// LookupLookup maps a path to its method Lookup
type LookupLookup map[string]Lookup

// PrefixRouteSet is the set of per-method routes sharing one path prefix
type PrefixRouteSet struct {
	Path           string
	PathLen        int
	RoutesByMethod Lookup
}

type PrefixRouteSets []*PrefixRouteSet
type PrefixRouteSetLookup map[string]*PrefixRouteSet

// HostRouteSet is the complete set of routes for one host pattern
type HostRouteSet struct {
	ExactMatchRoutes     LookupLookup
	PrefixMatchRoutes    PrefixRouteSets
	PrefixMatchRoutesLkp PrefixRouteSetLookup
}

// HostRouteSetLookup maps a host pattern to its HostRouteSet
type HostRouteSetLookup map[string]*HostRouteSet
