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

package rest

import (
	"net/http"
	"path"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	"github.com/sweeprun/sweeprun/sweep"
)

func getParams(r *http.Request) httprouter.Params {
	return r.Context().Value(paramsLookupKey).(httprouter.Params)
}

func (s *Server) listSweepsHandler(w http.ResponseWriter, r *http.Request) {
	sweeps, err := s.store.List()
	if err != nil {
		writeError(w, r, newInternalServerError(err))
		return
	}
	if len(sweeps) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	links := make([]AtomLink, len(sweeps))
	for i, sw := range sweeps {
		links[i] = newAtomLink(LinkRelSweep, path.Join("/sweeps", sw.ID))
	}
	encodeJSONResponse(w, r, SweepsCollection{Sweeps: links})
}

func (s *Server) getSweepHandler(w http.ResponseWriter, r *http.Request) {
	id := getParams(r).ByName("id")
	sw, err := s.store.Get(id)
	if err != nil {
		writeError(w, r, newContentNotFoundError("sweep "+id))
		return
	}
	encodeJSONResponse(w, r, sw)
}

func (s *Server) getSweepStatusHandler(w http.ResponseWriter, r *http.Request) {
	id := getParams(r).ByName("id")
	sw, err := s.store.Get(id)
	if err != nil {
		writeError(w, r, newContentNotFoundError("sweep "+id))
		return
	}
	if sw.BatchJobID == "" {
		writeError(w, r, newBadRequestError(errors.Errorf("sweep %q has not been submitted yet", id)))
		return
	}
	status, err := sweep.GetStatus(s.schedClient, sw)
	if err != nil {
		writeError(w, r, newInternalServerError(err))
		return
	}
	encodeJSONResponse(w, r, status)
}

func (s *Server) listTrialsHandler(w http.ResponseWriter, r *http.Request) {
	id := getParams(r).ByName("id")
	sw, err := s.store.Get(id)
	if err != nil {
		writeError(w, r, newContentNotFoundError("sweep "+id))
		return
	}
	encodeJSONResponse(w, r, sw.Space.Enumerate())
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	encodeJSONResponse(w, r, map[string]string{"status": "passing"})
}
