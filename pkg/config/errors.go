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

package config

import (
	"errors"
	"fmt"
)

// Error is a configuration error carrying the file location it arose from
type Error struct {
	// File is the configuration file path, when loaded from a file
	File string
	// Line is the 1-based line number the error was detected on, or 0
	Line int
	// Directive names the directive or block under scrutiny, when known
	Directive string
	// Err is the underlying error
	Err error
}

func (e *Error) Error() string {
	s := e.Err.Error()
	if e.Directive != "" {
		s = fmt.Sprintf("%s: %s", e.Directive, s)
	}
	if e.Line > 0 {
		s = fmt.Sprintf("line %d: %s", e.Line, s)
	}
	if e.File != "" {
		s = fmt.Sprintf("%s: %s", e.File, s)
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ConflictError indicates two site blocks make irreconcilable demands, such
// as contradictory TLS material for one host or mixing TLS and plaintext
// sites on one explicit port
type ConflictError struct {
	// Host is the host pattern (or port description) in conflict
	Host string
	// Lines are the Cbltfile lines of the conflicting blocks
	Lines []int
	// Detail describes the nature of the conflict
	Detail string
}

func (e *ConflictError) Error() string {
	if len(e.Lines) == 2 {
		return fmt.Sprintf("conflicting configuration for %s (lines %d and %d): %s",
			e.Host, e.Lines[0], e.Lines[1], e.Detail)
	}
	return fmt.Sprintf("conflicting configuration for %s: %s", e.Host, e.Detail)
}

// errors raised while parsing or validating configuration
var (
	// ErrEmptyConfig indicates the configuration contained no site blocks
	ErrEmptyConfig = errors.New("configuration defines no sites")
	// ErrUnexpectedEOF indicates the configuration ended inside a site block
	ErrUnexpectedEOF = errors.New("unexpected end of configuration inside site block")
)
