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
)

// HandleBadRequestResponse responds to an HTTP Request with 400 Bad Request
func HandleBadRequestResponse(w http.ResponseWriter, r *http.Request) {
	if w == nil {
		return
	}
	http.Error(w, "400 bad request", http.StatusBadRequest)
}

// HandleForbiddenResponse responds to an HTTP Request with 403 Forbidden
func HandleForbiddenResponse(w http.ResponseWriter, r *http.Request) {
	if w == nil {
		return
	}
	http.Error(w, "403 forbidden", http.StatusForbidden)
}

// HandleNotFoundResponse responds to an HTTP Request with 404 Not Found
func HandleNotFoundResponse(w http.ResponseWriter, r *http.Request) {
	if w == nil {
		return
	}
	http.Error(w, "404 not found", http.StatusNotFound)
}

// HandleInternalServerError responds to an HTTP Request with 500 Internal
// Server Error
func HandleInternalServerError(w http.ResponseWriter, r *http.Request) {
	if w == nil {
		return
	}
	http.Error(w, "500 internal server error", http.StatusInternalServerError)
}

// HandleBadGateway responds to an HTTP Request with 502 Bad Gateway
func HandleBadGateway(w http.ResponseWriter, r *http.Request) {
	if w == nil {
		return
	}
	http.Error(w, "502 bad gateway", http.StatusBadGateway)
}

// HandleGatewayTimeout responds to an HTTP Request with 504 Gateway Timeout
func HandleGatewayTimeout(w http.ResponseWriter, r *http.Request) {
	if w == nil {
		return
	}
	http.Error(w, "504 gateway timeout", http.StatusGatewayTimeout)
}
