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

package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpace() *Space {
	return &Space{
		Name:          "cifar-finetune",
		LearningRates: []float64{0.3, 0.05},
		Epochs:        []int{30},
		WeightDecays:  []float64{0.000001, 0.0001},
		Runs:          []int{0, 1},
		Archs:         []string{"resnet50"},
		Datasets:      []string{"cifar10", "cifar100"},
		BatchSize:     256,
		Checkpoints: map[string][]string{
			"resnet50": {"/checkpoints/seer_resnet50.pth"},
		},
		Trainer: TrainerSettings{
			Command:       []string{"python", "-u", "supervised.py"},
			Mode:          "finetune",
			SchedulerType: "cosine",
			FinalLR:       0.0006,
			Classifier:    "linear",
			DataPath:      "/datasets",
			Toggles:       map[string]string{"use_bn": "true"},
		},
	}
}

func TestSpaceSize(t *testing.T) {
	t.Parallel()
	s := testSpace()
	require.Equal(t, 16, s.Size())
	require.Len(t, s.Enumerate(), 16)
}

func TestEnumerateNestingOrder(t *testing.T) {
	t.Parallel()
	s := testSpace()
	trials := s.Enumerate()

	// Innermost dimension (dataset) varies first
	assert.Equal(t, "cifar10", trials[0].Dataset)
	assert.Equal(t, "cifar100", trials[1].Dataset)
	assert.Equal(t, trials[0].Run, trials[1].Run)

	// Outermost dimension (learning rate) varies last
	assert.Equal(t, 0.3, trials[0].LearningRate)
	assert.Equal(t, 0.3, trials[7].LearningRate)
	assert.Equal(t, 0.05, trials[8].LearningRate)

	for i, trial := range trials {
		assert.Equal(t, i, trial.Index)
		assert.Equal(t, 256, trial.BatchSize)
	}
}

func TestEnumerateIsDeterministic(t *testing.T) {
	t.Parallel()
	s := testSpace()
	require.Equal(t, s.Enumerate(), s.Enumerate(), "two enumerations of the same space should be identical")
}

func TestSelectMatchesEnumerate(t *testing.T) {
	t.Parallel()
	s := testSpace()
	for _, trial := range s.Enumerate() {
		selected, err := s.Select(trial.Index)
		require.NoError(t, err)
		require.Equal(t, trial, selected, "Select(%d) should return the enumerated trial", trial.Index)
	}
}

func TestSelectOutOfRange(t *testing.T) {
	t.Parallel()
	s := testSpace()
	_, err := s.Select(-1)
	require.Error(t, err, "negative index should be rejected")
	_, err = s.Select(s.Size())
	require.Error(t, err, "index equal to the grid size should be rejected")
}

func TestTrialsDrawnFromDeclaredSets(t *testing.T) {
	t.Parallel()
	s := testSpace()
	for _, trial := range s.Enumerate() {
		assert.Contains(t, s.LearningRates, trial.LearningRate)
		assert.Contains(t, s.Epochs, trial.Epochs)
		assert.Contains(t, s.WeightDecays, trial.WeightDecay)
		assert.Contains(t, s.Runs, trial.Run)
		assert.Contains(t, s.Archs, trial.Arch)
		assert.Contains(t, s.Datasets, trial.Dataset)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, testSpace().Validate())
}

func TestValidateAggregatesErrors(t *testing.T) {
	t.Parallel()
	s := testSpace()
	s.LearningRates = nil
	s.Datasets = nil
	s.BatchSize = 0
	s.Trainer.Toggles["use_bn"] = "maybe"
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no learning rates declared")
	assert.Contains(t, err.Error(), "no datasets declared")
	assert.Contains(t, err.Error(), "invalid batch size")
	assert.Contains(t, err.Error(), "boolean flag")
}

func TestValidateNonPositiveValues(t *testing.T) {
	t.Parallel()
	s := testSpace()
	s.LearningRates = []float64{0.3, 0}
	s.WeightDecays = []float64{-0.0001}
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid learning rate 0")
	assert.Contains(t, err.Error(), "invalid weight decay -0.0001")
}

func TestValidateMissingCheckpoint(t *testing.T) {
	t.Parallel()
	s := testSpace()
	s.Archs = append(s.Archs, "regnet256")
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regnet256")
}

func TestParseBoolFlag(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      string
		want    bool
		wantErr bool
	}{
		{"True", "true", true, false},
		{"On", "on", true, false},
		{"One", "1", true, false},
		{"UpperTrue", "TRUE", true, false},
		{"False", "false", false, false},
		{"Off", "off", false, false},
		{"Zero", "0", false, false},
		{"Garbage", "maybe", false, true},
		{"Empty", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBoolFlag(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
