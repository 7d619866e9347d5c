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

// Command spafall serves a Single Page Application bundle from a local
// directory, answering client-side route paths with the SPA's index document
// so reloads and bookmarked routes keep working.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/thediveo/spafall"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	root := flag.String("root", ".", "document root directory containing the SPA bundle")
	index := flag.String("index", spafall.DefaultIndex,
		"name of the SPA index document inside the document root")
	quiet := flag.Bool("quiet", false, "don't log individual requests")
	flag.Parse()

	logger := log.New(os.Stdout, "spafall ", log.LstdFlags)
	if err := serve(logger, *addr, *root, *index, *quiet); err != nil {
		logger.Fatal(err)
	}
}

func serve(logger *log.Logger, addr, root, index string, quiet bool) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving document root: %w", err)
	}
	if _, err := os.Stat(absRoot); err != nil {
		return fmt.Errorf("document root: %w", err)
	}

	var handler http.Handler = spafall.New(os.DirFS(absRoot), spafall.WithIndex(index))
	if !quiet {
		handler = requestLogging(logger, handler)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	servErr := make(chan error, 1)
	go func() {
		color.Green("serving %s at http://localhost%s", absRoot, addr)
		servErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-servErr:
		return err
	case <-ctx.Done():
	}
	logger.Print("received termination signal, shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-servErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogging logs each request's method and path before handing it on.
func requestLogging(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Printf("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
