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
	"fmt"
	"html"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cbltserver/cblt/pkg/proxy/headers"
)

// StaticFileHandler serves files beneath a root directory. The full request
// path is resolved against the root; a resolved path escaping the root is
// rejected before any file is opened. Directory requests serve the
// configured index file, or a generated listing only when explicitly
// enabled.
type StaticFileHandler struct {
	root          string
	indexFile     string
	enableListing bool
}

// NewStaticFileHandler returns a StaticFileHandler rooted at root
func NewStaticFileHandler(root, indexFile string, enableListing bool) *StaticFileHandler {
	return &StaticFileHandler{
		root:          filepath.Clean(root),
		indexFile:     indexFile,
		enableListing: enableListing,
	}
}

func (h *StaticFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// a rooted Clean collapses any ".." segments before they can climb
	// above the root
	upath := path.Clean("/" + r.URL.Path)
	resolved := filepath.Join(h.root, filepath.FromSlash(upath))
	if resolved != h.root &&
		!strings.HasPrefix(resolved, h.root+string(filepath.Separator)) {
		HandleForbiddenResponse(w, r)
		return
	}

	fi, err := os.Stat(resolved)
	if err != nil {
		h.handleFileError(w, r, err)
		return
	}
	if fi.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			w.Header().Set(headers.NameLocation, r.URL.Path+"/")
			w.WriteHeader(http.StatusMovedPermanently)
			return
		}
		index := filepath.Join(resolved, h.indexFile)
		ifi, err := os.Stat(index)
		switch {
		case err == nil && !ifi.IsDir():
			resolved, fi = index, ifi
		case h.enableListing:
			h.serveListing(w, r, resolved)
			return
		default:
			HandleNotFoundResponse(w, r)
			return
		}
	}

	f, err := os.Open(resolved)
	if err != nil {
		h.handleFileError(w, r, err)
		return
	}
	defer f.Close()
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}

// handleFileError maps filesystem errors to responses without leaking
// path information
func (h *StaticFileHandler) handleFileError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case os.IsNotExist(err):
		HandleNotFoundResponse(w, r)
	case os.IsPermission(err):
		HandleForbiddenResponse(w, r)
	default:
		HandleInternalServerError(w, r)
	}
}

// serveListing writes a minimal HTML directory listing
func (h *StaticFileHandler) serveListing(w http.ResponseWriter, r *http.Request, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		h.handleFileError(w, r, err)
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	w.Header().Set(headers.NameContentType, "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><title>Index of %s</title></head><body>\n",
		html.EscapeString(r.URL.Path))
	fmt.Fprintf(w, "<h1>Index of %s</h1>\n<ul>\n", html.EscapeString(r.URL.Path))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		u := url.URL{Path: name}
		fmt.Fprintf(w, "<li><a href=\"%s\">%s</a></li>\n",
			u.String(), html.EscapeString(name))
	}
	fmt.Fprint(w, "</ul>\n</body></html>\n")
}
