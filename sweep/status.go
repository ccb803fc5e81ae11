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

package sweep

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sweeprun/sweeprun/grid"
	"github.com/sweeprun/sweeprun/slurm"
)

// StateUnknown is reported for trials the scheduler no longer knows about
const StateUnknown = "UNKNOWN"

// TrialStatus is the scheduler state of one trial of a sweep
type TrialStatus struct {
	Trial grid.Trial `json:"trial"`
	State string     `json:"state"`
}

// Status aggregates the task states of one sweep
type Status struct {
	SweepID string         `json:"sweep_id"`
	Trials  []TrialStatus  `json:"trials"`
	Counts  map[string]int `json:"counts"`
}

// Done checks whether every trial reached a terminal state
func (st *Status) Done() bool {
	for _, ts := range st.Trials {
		if ts.State != StateUnknown && !slurm.IsTerminalState(ts.State) {
			return false
		}
	}
	return true
}

// GetStatus queries the scheduler for the state of every trial of a sweep
func GetStatus(client slurm.Client, sw *Sweep) (*Status, error) {
	states, err := slurm.GetArrayJobStates(client, sw.BatchJobID)
	if err != nil {
		return nil, err
	}
	trials := sw.Space.Enumerate()
	status := &Status{
		SweepID: sw.ID,
		Trials:  make([]TrialStatus, len(trials)),
		Counts:  make(map[string]int),
	}
	for i, trial := range trials {
		state, ok := states[trial.Index]
		if !ok {
			state = StateUnknown
		}
		status.Trials[i] = TrialStatus{Trial: trial, State: state}
		status.Counts[state]++
	}
	return status, nil
}

// GetStatuses queries the scheduler for several sweeps in parallel and
// returns the statuses keyed by sweep ID
func GetStatuses(client slurm.Client, sweeps []*Sweep) (map[string]*Status, error) {
	var g errgroup.Group
	var mu sync.Mutex
	statuses := make(map[string]*Status, len(sweeps))
	for _, sw := range sweeps {
		sw := sw
		g.Go(func() error {
			st, err := GetStatus(client, sw)
			if err != nil {
				return err
			}
			mu.Lock()
			statuses[sw.ID] = st
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return statuses, nil
}
