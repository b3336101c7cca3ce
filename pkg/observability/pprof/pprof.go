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

package pprof

import (
	"net/http"
	"net/http/pprof"

	"github.com/cbltserver/cblt/pkg/observability/logging"
	"github.com/cbltserver/cblt/pkg/observability/logging/logger"
	"github.com/cbltserver/cblt/pkg/router"
)

// RegisterRoutes registers the pprof debugging endpoints to the provided router
func RegisterRoutes(routerName string, r router.Router) {
	logger.Info("registering pprof /debug routes", logging.Pairs{"routerName": routerName})
	// the index handler also serves the named profiles beneath its path
	r.RegisterRoute("/debug/pprof/", nil, nil,
		true, http.HandlerFunc(pprof.Index))
	r.RegisterRoute("/debug/pprof/cmdline", nil, nil,
		false, http.HandlerFunc(pprof.Cmdline))
	r.RegisterRoute("/debug/pprof/profile", nil, nil,
		false, http.HandlerFunc(pprof.Profile))
	r.RegisterRoute("/debug/pprof/symbol", nil, nil,
		false, http.HandlerFunc(pprof.Symbol))
	r.RegisterRoute("/debug/pprof/trace", nil, nil,
		false, http.HandlerFunc(pprof.Trace))
}
