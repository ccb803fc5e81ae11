// Copyright 2019 The sweeprun authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rest exposes the sweep store and scheduler state over a read-only
// HTTP API, for dashboards polling a login node.
package rest

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeprun/sweeprun/config"
	"github.com/sweeprun/sweeprun/log"
	"github.com/sweeprun/sweeprun/slurm"
	"github.com/sweeprun/sweeprun/sweep"
)

type router struct {
	*httprouter.Router
}

func (r *router) Get(path string, handler http.Handler) {
	r.GET(path, wrapHandler(handler))
}

func (r *router) Head(path string, handler http.Handler) {
	r.HEAD(path, wrapHandler(handler))
}

type contextKey int8

const paramsLookupKey contextKey = 1

func wrapHandler(h http.Handler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := r.Context()
		h.ServeHTTP(w, r.WithContext(context.WithValue(ctx, paramsLookupKey, ps)))
	}
}

func newRouter() *router {
	return &router{httprouter.New()}
}

// A Server is an HTTP server that runs the sweeprun REST API
type Server struct {
	router      *router
	listener    net.Listener
	store       *sweep.Store
	schedClient slurm.Client
	config      config.Configuration
}

// Shutdown stops the HTTP server
func (s *Server) Shutdown() {
	if s != nil {
		log.Printf("Shutting down http server")
		err := s.listener.Close()
		if err != nil {
			log.Print(errors.Wrap(err, "Failed to close server listener"))
		}
	}
}

// NewServer creates a Server to serve the REST API
func NewServer(configuration config.Configuration, store *sweep.Store, schedClient slurm.Client) (*Server, error) {
	addr, err := getAddress(configuration)
	if err != nil {
		return nil, err
	}
	listener, err := net.Listen(addr.Network(), addr.String())
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to bind on %s", addr)
	}

	httpServer := &Server{
		router:      newRouter(),
		listener:    listener,
		store:       store,
		schedClient: schedClient,
		config:      configuration,
	}

	httpServer.registerHandlers()
	log.Printf("Starting HTTPServer on address %s", listener.Addr())
	go http.Serve(httpServer.listener, httpServer.router)

	return httpServer, nil
}

func (s *Server) registerHandlers() {
	commonHandlers := alice.New(loggingHandler, recoverHandler)
	s.router.Get("/sweeps", commonHandlers.Append(acceptHandler("application/json")).ThenFunc(s.listSweepsHandler))
	s.router.Get("/sweeps/:id", commonHandlers.Append(acceptHandler("application/json")).ThenFunc(s.getSweepHandler))
	s.router.Get("/sweeps/:id/status", commonHandlers.Append(acceptHandler("application/json")).ThenFunc(s.getSweepStatusHandler))
	s.router.Get("/sweeps/:id/trials", commonHandlers.Append(acceptHandler("application/json")).ThenFunc(s.listTrialsHandler))
	s.router.Get("/server/health", commonHandlers.ThenFunc(s.healthHandler))
	s.router.Head("/server/health", commonHandlers.ThenFunc(s.healthHandler))

	if s.config.Telemetry.PrometheusEndpoint {
		s.router.Get("/metrics", commonHandlers.Then(promhttp.Handler()))
	}
}

func encodeJSONResponse(w http.ResponseWriter, r *http.Request, resp interface{}) {
	jEnc := json.NewEncoder(w)
	if _, ok := r.URL.Query()["pretty"]; ok {
		jEnc.SetIndent("", "  ")
	}
	w.Header().Set("Content-Type", "application/json")
	jEnc.Encode(resp)
}

func getAddress(configuration config.Configuration) (net.Addr, error) {

	var port int
	if configuration.HTTPPort == 0 {
		// Use default value
		port = config.DefaultHTTPPort
	} else if configuration.HTTPPort < 0 {
		// Use random port
		port = 0
	} else {
		port = configuration.HTTPPort
	}
	var ip net.IP
	if configuration.HTTPAddress != "" {
		ip = net.ParseIP(configuration.HTTPAddress)
	} else {
		ip = net.ParseIP(config.DefaultHTTPAddress)
	}
	if ip == nil {
		return nil, errors.Errorf("Failed to parse IP: %v", configuration.HTTPAddress)
	}
	return &net.TCPAddr{IP: ip, Port: port}, nil
}
