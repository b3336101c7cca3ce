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

// Package frontend instruments the handlers registered to the server's
// routers with request metrics and identifying response headers
package frontend

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cbltserver/cblt/pkg/appinfo"
	"github.com/cbltserver/cblt/pkg/observability/metrics"
	"github.com/cbltserver/cblt/pkg/proxy/headers"
)

// responseObserver captures the status code and written byte count of a
// response as it passes through
type responseObserver struct {
	http.ResponseWriter
	status  int
	written int64
}

func (o *responseObserver) WriteHeader(code int) {
	if o.status == 0 {
		o.status = code
	}
	o.ResponseWriter.WriteHeader(code)
}

func (o *responseObserver) Write(b []byte) (int, error) {
	if o.status == 0 {
		o.status = http.StatusOK
	}
	n, err := o.ResponseWriter.Write(b)
	o.written += int64(n)
	return n, err
}

func (o *responseObserver) Flush() {
	if f, ok := o.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Observe wraps next so that its responses are counted and timed under the
// provided site, handler type and route path labels
func Observe(site, handlerType, path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		o := &responseObserver{ResponseWriter: w}
		o.Header().Set(headers.NameServer, appinfo.Name)
		start := time.Now()
		next.ServeHTTP(o, r)
		elapsed := time.Since(start)
		if o.status == 0 {
			o.status = http.StatusOK
		}
		status := strconv.Itoa(o.status)
		metrics.FrontendRequestStatus.WithLabelValues(
			site, handlerType, r.Method, path, status).Inc()
		metrics.FrontendRequestDuration.WithLabelValues(
			site, handlerType, r.Method, path, status).Observe(elapsed.Seconds())
		metrics.FrontendRequestWrittenBytes.WithLabelValues(
			site, handlerType, r.Method, path, status).Add(float64(o.written))
	})
}
