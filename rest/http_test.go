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
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sweeprun/sweeprun/config"
	"github.com/sweeprun/sweeprun/grid"
	"github.com/sweeprun/sweeprun/sweep"
)

type mockClient struct {
	output string
}

func (c *mockClient) RunCommand(cmd string) (string, error) {
	return c.output, nil
}

func newTestHTTPRouter(store *sweep.Store, client *mockClient, req *http.Request) *http.Response {
	s := &Server{
		router:      newRouter(),
		store:       store,
		schedClient: client,
		config:      config.Configuration{},
	}
	s.registerHandlers()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w.Result()
}

func testSpace() grid.Space {
	return grid.Space{
		LearningRates: []float64{0.3, 0.05},
		Epochs:        []int{30},
		WeightDecays:  []float64{0.000001},
		Runs:          []int{0},
		Archs:         []string{"resnet50"},
		Datasets:      []string{"cifar10"},
		BatchSize:     256,
		Checkpoints:   map[string][]string{"resnet50": {"/ckpt/seer.pth"}},
		Trainer:       grid.TrainerSettings{Command: []string{"python", "supervised.py"}},
	}
}

func TestSweepsHandlers(t *testing.T) {
	dir, err := ioutil.TempDir("", "sweeprun-rest-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	store := sweep.NewStore(dir)
	sw := sweep.NewSweep("cifar-finetune", testSpace(), "sweep.yaml", "/results")
	sw.BatchJobID = "4242"
	require.NoError(t, store.Save(sw))
	client := &mockClient{output: "4242_0|COMPLETED\n4242_1|RUNNING\n"}

	t.Run("testListSweeps", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/sweeps", nil)
		req.Header.Add("Accept", "application/json")
		resp := newTestHTTPRouter(store, client, req)
		body, err := ioutil.ReadAll(resp.Body)

		require.Nil(t, err, "unexpected error reading body response")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var collection SweepsCollection
		require.Nil(t, json.Unmarshal(body, &collection), "unexpected error unmarshalling json body")
		require.Equal(t, 1, len(collection.Sweeps))
		require.Equal(t, "/sweeps/"+sw.ID, collection.Sweeps[0].Href)
	})

	t.Run("testGetSweep", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/sweeps/"+sw.ID, nil)
		req.Header.Add("Accept", "application/json")
		resp := newTestHTTPRouter(store, client, req)
		body, err := ioutil.ReadAll(resp.Body)

		require.Nil(t, err, "unexpected error reading body response")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var read sweep.Sweep
		require.Nil(t, json.Unmarshal(body, &read), "unexpected error unmarshalling json body")
		require.Equal(t, sw.ID, read.ID)
		require.Equal(t, "4242", read.BatchJobID)
	})

	t.Run("testGetSweepNotFound", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/sweeps/unknown", nil)
		req.Header.Add("Accept", "application/json")
		resp := newTestHTTPRouter(store, client, req)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("testGetSweepStatus", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/sweeps/"+sw.ID+"/status", nil)
		req.Header.Add("Accept", "application/json")
		resp := newTestHTTPRouter(store, client, req)
		body, err := ioutil.ReadAll(resp.Body)

		require.Nil(t, err, "unexpected error reading body response")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var status sweep.Status
		require.Nil(t, json.Unmarshal(body, &status), "unexpected error unmarshalling json body")
		require.Equal(t, sw.ID, status.SweepID)
		require.Equal(t, 2, len(status.Trials))
		require.Equal(t, "COMPLETED", status.Trials[0].State)
	})

	t.Run("testListTrials", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/sweeps/"+sw.ID+"/trials", nil)
		req.Header.Add("Accept", "application/json")
		resp := newTestHTTPRouter(store, client, req)
		body, err := ioutil.ReadAll(resp.Body)

		require.Nil(t, err, "unexpected error reading body response")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var trials []grid.Trial
		require.Nil(t, json.Unmarshal(body, &trials), "unexpected error unmarshalling json body")
		require.Equal(t, 2, len(trials))
	})

	t.Run("testMissingAcceptHeader", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/sweeps", nil)
		resp := newTestHTTPRouter(store, client, req)
		require.Equal(t, http.StatusNotAcceptable, resp.StatusCode)
	})

	t.Run("testHealth", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/server/health", nil)
		resp := newTestHTTPRouter(store, client, req)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestListSweepsEmptyStore(t *testing.T) {
	dir, err := ioutil.TempDir("", "sweeprun-rest-empty-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	req := httptest.NewRequest("GET", "/sweeps", nil)
	req.Header.Add("Accept", "application/json")
	resp := newTestHTTPRouter(sweep.NewStore(dir), &mockClient{}, req)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestGetAddress(t *testing.T) {
	t.Parallel()
	addr, err := getAddress(config.Configuration{})
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8600", addr.String())

	addr, err = getAddress(config.Configuration{HTTPAddress: "127.0.0.1", HTTPPort: 9000})
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", addr.String())

	_, err = getAddress(config.Configuration{HTTPAddress: "not-an-ip"})
	require.Error(t, err)
}
