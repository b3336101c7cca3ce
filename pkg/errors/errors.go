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

// Package errors provides sentinel errors shared across the application
package errors

import "errors"

// ErrInvalidOptions is an error for when a configuration is invalid
var ErrInvalidOptions = errors.New("invalid options")

// ErrNoSites is an error for when a configuration declares no sites
var ErrNoSites = errors.New("no sites configured")

// ErrInvalidPath is an error for when a configured path is invalid
var ErrInvalidPath = errors.New("invalid path value in config")

// ErrInvalidMethod is an error for when a request method is invalid
var ErrInvalidMethod = errors.New("invalid method")

// ErrInvalidHost is an error for when a configured host pattern is invalid
var ErrInvalidHost = errors.New("invalid host pattern in config")

// ErrNilListener indicates an error that the underlying net.Listener is nil
var ErrNilListener = errors.New("nil listener")

// ErrNoSuchListener indicates an error that the provided listener name is unknown
var ErrNoSuchListener = errors.New("no such listener")

// ErrServerAlreadyStarted indicates the daemon was started more than once
var ErrServerAlreadyStarted = errors.New("server already started")

// ErrNoCertificates indicates a TLS handshake could not be served because no
// certificate matched the requested server name
var ErrNoCertificates = errors.New("tls: no certificates configured")
