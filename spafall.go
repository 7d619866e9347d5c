// Copyright 2024 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package spafall

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// DefaultIndex is the name of the fallback document served for all request
// paths that don't resolve to a file and don't look like a static asset.
// Change it using WithIndex, in case your SPA build environment names its
// entry document differently.
const DefaultIndex = "index.html"

// DefaultAssetExtensions lists the file extensions considered to mark static
// assets. A request path carrying one of these extensions is always answered
// literally, never with the fallback document, regardless of whether the
// asset actually exists. The comparison is case-insensitive.
var DefaultAssetExtensions = []string{
	".png", ".jpg", ".jpeg", ".js", ".css", ".ico", ".gif", ".svg",
}

// Handler implements an http.Handler that serves files from a document root
// fs.FS, falling back to the index document for request paths that neither
// name an existing regular file nor carry a recognized static-asset
// extension. This behavior is required for SPAs with client-side DOM routers,
// as otherwise bookmarking (router) links or reloading an SPA with the
// current route other than "/" would fail.
type Handler struct {
	fs                fs.FS               // the FS to serve the SPA bundle from.
	index             string              // (unrooted) path and name of the index document inside fs.
	assetExts         map[string]struct{} // lowercased extensions never rewritten to the index.
	staticfileHandler http.Handler        // FS adapted to http's file serving handler needs.
	indexRewriter     IndexRewriter       // optional user function to rewrite the index document as necessary.
}

// New returns a new HTTP handler serving static files from the specified fs,
// with fsys acting as the document root. Whenever a request path doesn't
// resolve to an existing regular file and its extension doesn't mark it as a
// static asset, the index document is served instead.
//
// In order to serve an SPA bundle from a directory on the OS file system, use
// os.DirFS:
//
//	h := spafall.New(os.DirFS("/opt/data/myspa"))
func New(fsys fs.FS, opts ...Option) *Handler {
	h := &Handler{
		fs:                fsys,
		staticfileHandler: http.FileServer(http.FS(fsys)),
		index:             DefaultIndex,
		assetExts:         extensionSet(DefaultAssetExtensions),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Option sets optional properties at the time of creating a Handler.
type Option func(*Handler)

// WithIndex sets the name of the fallback document, instead of the
// DefaultIndex. The name should be an unrooted, slash-separated path+name to
// be servable from the handler's fs; it gets sanitized anyway.
func WithIndex(index string) Option {
	return func(h *Handler) {
		h.index = path.Clean("/" + index)[1:]
	}
}

// WithAssetExtensions replaces the DefaultAssetExtensions set with the
// specified extensions (each including its leading dot). Matching is
// case-insensitive, so the casing of the specified extensions doesn't matter.
func WithAssetExtensions(exts ...string) Option {
	return func(h *Handler) {
		h.assetExts = extensionSet(exts)
	}
}

// IndexRewriter rewrites (parts of) the index document contents to be
// delivered to a requesting client. It can be optionally activated using the
// WithIndexRewriter option when creating a new Handler.
type IndexRewriter func(r *http.Request, index string) string

// WithIndexRewriter sets the specified IndexRewriter that gets called before
// delivering the index document contents to requesting clients, allowing for
// application-specific changes.
func WithIndexRewriter(rewriter IndexRewriter) Option {
	return func(h *Handler) {
		h.indexRewriter = rewriter
	}
}

// ServeHTTP serves the requested file when it exists inside the handler's
// document root, or when its extension marks it as a static asset (missing
// assets then turn up as "404"s for their original path). All other request
// paths are taken to be client-side routes and answered with the index
// document.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Get the absolute and also cleaned path to the requested resource in
	// order to prevent parent directory traversal outside the document root.
	// Slapping on "/" ensures that path.Clean does NOT use the current
	// working dir for resolving the request path ... whichever current
	// working directory it might be at the moment.
	r.URL.Path = path.Clean("/" + r.URL.Path)
	if r.URL.Path[1:] == h.index {
		// http.FileServer would answer a literal request for the index
		// document with a redirect to "./"; serve it directly instead.
		h.serveIndex(w, r)
		return
	}
	if h.serveFile(w, r) {
		return
	}
	if h.isAsset(r.URL.Path) {
		// A static asset by extension, yet no such file: delegate anyway, so
		// the client sees a plain "404" for the path it actually asked for
		// instead of getting the index document slipped under the door.
		h.staticfileHandler.ServeHTTP(w, r)
		return
	}
	h.serveIndex(w, r)
}

// isAsset reports whether the specified request path carries one of the
// configured static-asset extensions, comparing case-insensitively.
func (h *Handler) isAsset(reqpath string) bool {
	ext := strings.ToLower(path.Ext(reqpath))
	if ext == "" {
		return false
	}
	_, ok := h.assetExts[ext]
	return ok
}

// serveFile tries to serve the file the (already sanitized) r.URL.Path names
// inside the handler's fs, returning true if successful. If no such file
// exists, nothing is served and false is returned instead.
func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request) bool {
	name := r.URL.Path[1:] // ...fs.FS uses unrooted paths.
	if name == "" {
		return false // hitting root is always a case for the index document.
	}
	// Thankfully, fs.Stat deals with fs.FS implementations that don't support
	// fs.StatFS and works around this situation, so we get stat information
	// if the file exists, whatever measures that takes.
	info, err := fs.Stat(h.fs, name)
	if err == nil && info.Mode().IsRegular() {
		h.staticfileHandler.ServeHTTP(w, r)
		return true
	}
	// If we got an error and it isn't simply a missing file, then normalize
	// (or rather, sanitize) the error and send that back to the client.
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		NormalizedHTTPError(w, err)
		return true
	}
	return false
}

// serveIndex serves the index document, optionally passing its contents
// through the configured IndexRewriter first.
func (h *Handler) serveIndex(w http.ResponseWriter, r *http.Request) {
	f, err := h.fs.Open(h.index)
	if err != nil {
		NormalizedHTTPError(w, err)
		return
	}
	defer func() { _ = f.Close() }()
	fileInfo, err := f.Stat()
	if err != nil {
		NormalizedHTTPError(w, err)
		return
	}
	contents, err := io.ReadAll(f)
	if err != nil {
		NormalizedHTTPError(w, err)
		return
	}
	index := string(contents)
	if h.indexRewriter != nil {
		index = h.indexRewriter(r, index)
	}
	// http.ServeContent brings content-type sniffing as well as HEAD, range
	// and conditional request handling to the table, so the index document
	// gets the full static-file treatment.
	http.ServeContent(w, r, path.Base(h.index), fileInfo.ModTime(), strings.NewReader(index))
}

// extensionSet lowercases the specified extensions into a set for exact
// membership testing.
func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		set[strings.ToLower(ext)] = struct{}{}
	}
	return set
}
