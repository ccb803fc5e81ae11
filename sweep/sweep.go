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

// Package sweep records submitted sweeps as JSON manifests in the working
// directory and aggregates their task states from the scheduler.
package sweep

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/sweeprun/sweeprun/grid"
)

// A Sweep is one submitted hyperparameter sweep
type Sweep struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	CreatedAt   time.Time  `json:"created_at"`
	BatchJobID  string     `json:"batch_job_id"`
	ResultsRoot string     `json:"results_root"`
	SweepFile   string     `json:"sweep_file"`
	TrialCount  int        `json:"trial_count"`
	Space       grid.Space `json:"space"`
}

// NewSweep builds a Sweep with a fresh unique ID
func NewSweep(name string, space grid.Space, sweepFile, resultsRoot string) *Sweep {
	return &Sweep{
		ID:          uuid.NewV4().String(),
		Name:        name,
		CreatedAt:   time.Now().UTC(),
		ResultsRoot: resultsRoot,
		SweepFile:   sweepFile,
		TrialCount:  space.Size(),
		Space:       space,
	}
}

// A Store persists sweep manifests on the filesystem
type Store struct {
	dir string
}

// NewStore returns a Store rooted in the given working directory
func NewStore(workingDirectory string) *Store {
	return &Store{dir: filepath.Join(workingDirectory, "sweeps")}
}

// Save writes the sweep manifest, creating the store directory if needed
func (s *Store) Save(sw *Sweep) error {
	if sw.ID == "" {
		return errors.New("cannot save a sweep without ID")
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create sweep store directory %q", s.dir)
	}
	b, err := json.MarshalIndent(sw, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal sweep manifest")
	}
	p := s.manifestPath(sw.ID)
	return errors.Wrapf(ioutil.WriteFile(p, b, 0644), "failed to write sweep manifest %q", p)
}

// Get returns the sweep with the given ID
func (s *Store) Get(id string) (*Sweep, error) {
	b, err := ioutil.ReadFile(s.manifestPath(id))
	if os.IsNotExist(err) {
		return nil, errors.Errorf("no sweep found with id %q", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sweep manifest for id %q", id)
	}
	var sw Sweep
	if err = json.Unmarshal(b, &sw); err != nil {
		return nil, errors.Wrapf(err, "corrupted sweep manifest for id %q", id)
	}
	return &sw, nil
}

// List returns all recorded sweeps, most recent first
func (s *Store) List() ([]*Sweep, error) {
	entries, err := ioutil.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list sweep store directory %q", s.dir)
	}
	sweeps := make([]*Sweep, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		sw, err := s.Get(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		sweeps = append(sweeps, sw)
	}
	sort.Slice(sweeps, func(i, j int) bool { return sweeps[i].CreatedAt.After(sweeps[j].CreatedAt) })
	return sweeps, nil
}

func (s *Store) manifestPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}
