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
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeprun/sweeprun/grid"
)

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

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()
	dir, err := ioutil.TempDir("", "sweeprun-store-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	store := NewStore(dir)
	sw := NewSweep("cifar-finetune", testSpace(), "sweep.yaml", "/results")
	sw.BatchJobID = "4242"
	require.NoError(t, store.Save(sw))

	read, err := store.Get(sw.ID)
	require.NoError(t, err)
	assert.Equal(t, sw.ID, read.ID)
	assert.Equal(t, "cifar-finetune", read.Name)
	assert.Equal(t, "4242", read.BatchJobID)
	assert.Equal(t, 2, read.TrialCount)
	assert.Equal(t, sw.Space, read.Space)
}

func TestStoreGetUnknown(t *testing.T) {
	t.Parallel()
	dir, err := ioutil.TempDir("", "sweeprun-store-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	_, err = NewStore(dir).Get("does-not-exist")
	require.Error(t, err)
}

func TestStoreListOrdering(t *testing.T) {
	t.Parallel()
	dir, err := ioutil.TempDir("", "sweeprun-store-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	store := NewStore(dir)
	older := NewSweep("older", testSpace(), "sweep.yaml", "/results")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := NewSweep("newer", testSpace(), "sweep.yaml", "/results")
	require.NoError(t, store.Save(older))
	require.NoError(t, store.Save(newer))

	sweeps, err := store.List()
	require.NoError(t, err)
	require.Len(t, sweeps, 2)
	assert.Equal(t, "newer", sweeps[0].Name)
	assert.Equal(t, "older", sweeps[1].Name)
}

func TestStoreListEmpty(t *testing.T) {
	t.Parallel()
	dir, err := ioutil.TempDir("", "sweeprun-store-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	sweeps, err := NewStore(dir).List()
	require.NoError(t, err)
	require.Empty(t, sweeps)
}

type mockClient struct {
	output string
}

func (c *mockClient) RunCommand(cmd string) (string, error) {
	return c.output, nil
}

func TestGetStatus(t *testing.T) {
	t.Parallel()
	sw := NewSweep("cifar-finetune", testSpace(), "sweep.yaml", "/results")
	sw.BatchJobID = "4242"

	client := &mockClient{output: "4242_0|COMPLETED\n4242_1|RUNNING\n"}
	st, err := GetStatus(client, sw)
	require.NoError(t, err)
	require.Len(t, st.Trials, 2)
	assert.Equal(t, "COMPLETED", st.Trials[0].State)
	assert.Equal(t, "RUNNING", st.Trials[1].State)
	assert.Equal(t, map[string]int{"COMPLETED": 1, "RUNNING": 1}, st.Counts)
	assert.False(t, st.Done())
}

func TestGetStatusUnknownTrials(t *testing.T) {
	t.Parallel()
	sw := NewSweep("cifar-finetune", testSpace(), "sweep.yaml", "/results")
	sw.BatchJobID = "4242"

	client := &mockClient{output: "4242_0|COMPLETED\n"}
	st, err := GetStatus(client, sw)
	require.NoError(t, err)
	assert.Equal(t, StateUnknown, st.Trials[1].State)
	assert.True(t, st.Done(), "completed and purged trials are both final")
}

func TestGetStatuses(t *testing.T) {
	t.Parallel()
	sw1 := NewSweep("s1", testSpace(), "sweep.yaml", "/results")
	sw1.BatchJobID = "1"
	sw2 := NewSweep("s2", testSpace(), "sweep.yaml", "/results")
	sw2.BatchJobID = "2"

	client := &mockClient{output: "1_0|COMPLETED\n1_1|COMPLETED\n"}
	statuses, err := GetStatuses(client, []*Sweep{sw1, sw2})
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	require.Contains(t, statuses, sw1.ID)
	require.Contains(t, statuses, sw2.ID)
}
