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

package slurm

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandNodeList(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{"SingleNode", "node1", []string{"node1"}, false},
		{"PlainList", "node1,node2", []string{"node1", "node2"}, false},
		{"Range", "node[3-5]", []string{"node3", "node4", "node5"}, false},
		{"RangeAndSingle", "node[3-5,9]", []string{"node3", "node4", "node5", "node9"}, false},
		{"ZeroPadded", "node[01-03]", []string{"node01", "node02", "node03"}, false},
		{"MixedGroups", "node[3-4],gpu1", []string{"node3", "node4", "gpu1"}, false},
		{"Empty", "", nil, false},
		{"UnclosedBracket", "node[3-5", nil, true},
		{"ReversedRange", "node[5-3]", nil, true},
		{"GarbageRange", "node[a-b]", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hosts, err := ExpandNodeList(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, hosts)
		})
	}
}

func TestMasterAddr(t *testing.T) {
	t.Parallel()
	env := TaskEnv{NodeList: "learnfair[0217-0219]"}
	addr, err := env.MasterAddr()
	require.NoError(t, err)
	assert.Equal(t, "learnfair0217", addr)

	env = TaskEnv{NodeList: ""}
	_, err = env.MasterAddr()
	require.Error(t, err)
}

func TestTaskEnvFromSystem(t *testing.T) {
	os.Setenv("SLURM_ARRAY_TASK_ID", "7")
	os.Setenv("SLURM_JOB_ID", "4242")
	os.Setenv("SLURM_ARRAY_JOB_ID", "4240")
	os.Setenv("SLURM_JOB_NODELIST", "node[1-2]")
	os.Setenv("SLURM_NNODES", "2")
	os.Setenv("SLURM_PROCID", "1")
	defer func() {
		os.Unsetenv("SLURM_ARRAY_TASK_ID")
		os.Unsetenv("SLURM_JOB_ID")
		os.Unsetenv("SLURM_ARRAY_JOB_ID")
		os.Unsetenv("SLURM_JOB_NODELIST")
		os.Unsetenv("SLURM_NNODES")
		os.Unsetenv("SLURM_PROCID")
	}()

	env, err := TaskEnvFromSystem()
	require.NoError(t, err)
	assert.Equal(t, 7, env.ArrayTaskID)
	assert.Equal(t, "4242", env.JobID)
	assert.Equal(t, "4240", env.ArrayJobID)
	assert.Equal(t, "node[1-2]", env.NodeList)
	assert.Equal(t, 2, env.Nodes)
	assert.Equal(t, 1, env.ProcID)
}

func TestTaskEnvFromSystemMissingIndex(t *testing.T) {
	os.Unsetenv("SLURM_ARRAY_TASK_ID")
	_, err := TaskEnvFromSystem()
	require.Error(t, err, "a missing array task index should be an error")
}

func TestTaskEnvFromSystemMalformedIndex(t *testing.T) {
	os.Setenv("SLURM_ARRAY_TASK_ID", "not-a-number")
	defer os.Unsetenv("SLURM_ARRAY_TASK_ID")
	_, err := TaskEnvFromSystem()
	require.Error(t, err)
}
