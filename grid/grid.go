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

// Package grid enumerates hyperparameter grids into index-addressable trials.
//
// A Space declares ordered value lists. Enumerate flattens their Cartesian
// product with a fixed nesting order so that the mapping from a flattened
// index to a tuple is stable and reproducible across invocations: the same
// Space produces the same trial for the same index on the submit side and
// inside every scheduler array task.
package grid

import (
	"strings"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/sweeprun/sweeprun/helper/collections"
)

var falsyStrings = []string{"off", "false", "0"}
var truthyStrings = []string{"on", "true", "1"}

// TrainerSettings holds the static part of the trainer invocation, identical
// for every trial of a sweep.
type TrainerSettings struct {
	// Command is the trainer entry point, e.g. ["python", "-u", "supervised.py"]
	Command []string `json:"command" mapstructure:"command"`
	// Mode is the experiment mode flag value, e.g. "finetune" or "lineareval"
	Mode          string `json:"mode" mapstructure:"mode"`
	SchedulerType string `json:"scheduler_type" mapstructure:"scheduler_type"`
	FinalLR       float64 `json:"final_lr" mapstructure:"final_lr"`
	Classifier    string `json:"classifier" mapstructure:"classifier"`
	DataPath      string `json:"data_path" mapstructure:"data_path"`
	// Toggles are boolean flags passed to the trainer as literal strings
	// ("true"/"false" and friends), keyed by flag name without dashes.
	Toggles map[string]string `json:"toggles" mapstructure:"toggles"`
}

// Space declares the hyperparameter value lists of a sweep.
type Space struct {
	Name          string    `json:"name" mapstructure:"name"`
	LearningRates []float64 `json:"learning_rates" mapstructure:"learning_rates"`
	Epochs        []int     `json:"epochs" mapstructure:"epochs"`
	WeightDecays  []float64 `json:"weight_decays" mapstructure:"weight_decays"`
	Runs          []int     `json:"runs" mapstructure:"runs"`
	Archs         []string  `json:"archs" mapstructure:"archs"`
	Datasets      []string  `json:"datasets" mapstructure:"datasets"`
	BatchSize     int       `json:"batch_size" mapstructure:"batch_size"`
	// Checkpoints maps an architecture to its candidate pretrained checkpoint
	// paths. The first existing path is used.
	Checkpoints map[string][]string `json:"checkpoints" mapstructure:"checkpoints"`
	Trainer     TrainerSettings     `json:"trainer" mapstructure:"trainer"`
}

// Trial is one tuple of the flattened grid.
type Trial struct {
	Index        int     `json:"index"`
	LearningRate float64 `json:"learning_rate"`
	Epochs       int     `json:"epochs"`
	WeightDecay  float64 `json:"weight_decay"`
	Run          int     `json:"run"`
	Arch         string  `json:"arch"`
	Dataset      string  `json:"dataset"`
	BatchSize    int     `json:"batch_size"`
}

// Size returns the number of trials of the flattened grid
func (s *Space) Size() int {
	return len(s.LearningRates) * len(s.Epochs) * len(s.WeightDecays) * len(s.Runs) * len(s.Archs) * len(s.Datasets)
}

// Enumerate flattens the Cartesian product of the declared value lists.
//
// The nesting order is fixed, outer to inner: learning rate, epochs, weight
// decay, run, architecture, dataset.
func (s *Space) Enumerate() []Trial {
	trials := make([]Trial, 0, s.Size())
	idx := 0
	for _, lr := range s.LearningRates {
		for _, ep := range s.Epochs {
			for _, wd := range s.WeightDecays {
				for _, run := range s.Runs {
					for _, arch := range s.Archs {
						for _, ds := range s.Datasets {
							trials = append(trials, Trial{
								Index:        idx,
								LearningRate: lr,
								Epochs:       ep,
								WeightDecay:  wd,
								Run:          run,
								Arch:         arch,
								Dataset:      ds,
								BatchSize:    s.BatchSize,
							})
							idx++
						}
					}
				}
			}
		}
	}
	return trials
}

// Select returns the trial for the given flattened index.
//
// An out-of-range index is a checked error: the scheduler array must have
// been sized to the grid, reading past it would otherwise silently launch a
// trainer with empty hyperparameters.
func (s *Space) Select(index int) (Trial, error) {
	size := s.Size()
	if index < 0 || index >= size {
		return Trial{}, errors.Errorf("array task index %d out of range for grid of size %d", index, size)
	}

	// Unrank the index against the fixed nesting order instead of enumerating
	// the whole grid.
	t := Trial{Index: index, BatchSize: s.BatchSize}
	rem := index
	t.Dataset = s.Datasets[rem%len(s.Datasets)]
	rem /= len(s.Datasets)
	t.Arch = s.Archs[rem%len(s.Archs)]
	rem /= len(s.Archs)
	t.Run = s.Runs[rem%len(s.Runs)]
	rem /= len(s.Runs)
	t.WeightDecay = s.WeightDecays[rem%len(s.WeightDecays)]
	rem /= len(s.WeightDecays)
	t.Epochs = s.Epochs[rem%len(s.Epochs)]
	rem /= len(s.Epochs)
	t.LearningRate = s.LearningRates[rem]
	return t, nil
}

// Validate checks the space declaration and returns all problems found
func (s *Space) Validate() error {
	var err *multierror.Error
	if len(s.LearningRates) == 0 {
		err = multierror.Append(err, errors.New("no learning rates declared"))
	}
	if len(s.Epochs) == 0 {
		err = multierror.Append(err, errors.New("no epoch counts declared"))
	}
	if len(s.WeightDecays) == 0 {
		err = multierror.Append(err, errors.New("no weight decays declared"))
	}
	if len(s.Runs) == 0 {
		err = multierror.Append(err, errors.New("no run indices declared"))
	}
	if len(s.Archs) == 0 {
		err = multierror.Append(err, errors.New("no architectures declared"))
	}
	if len(s.Datasets) == 0 {
		err = multierror.Append(err, errors.New("no datasets declared"))
	}
	if s.BatchSize <= 0 {
		err = multierror.Append(err, errors.Errorf("invalid batch size %d", s.BatchSize))
	}
	for _, lr := range s.LearningRates {
		if lr <= 0 {
			err = multierror.Append(err, errors.Errorf("invalid learning rate %g", lr))
		}
	}
	for _, ep := range s.Epochs {
		if ep <= 0 {
			err = multierror.Append(err, errors.Errorf("invalid epoch count %d", ep))
		}
	}
	for _, wd := range s.WeightDecays {
		if wd < 0 {
			err = multierror.Append(err, errors.Errorf("invalid weight decay %g", wd))
		}
	}
	for _, arch := range s.Archs {
		if len(s.Checkpoints[arch]) == 0 {
			err = multierror.Append(err, errors.Errorf("no pretrained checkpoint declared for architecture %q", arch))
		}
	}
	if len(s.Trainer.Command) == 0 {
		err = multierror.Append(err, errors.New("no trainer command declared"))
	}
	for name, val := range s.Trainer.Toggles {
		if _, tErr := ParseBoolFlag(val); tErr != nil {
			err = multierror.Append(err, errors.Wrapf(tErr, "invalid value for toggle %q", name))
		}
	}
	return err.ErrorOrNil()
}

// ParseBoolFlag parses a boolean trainer flag the way the trainer itself
// does: "on", "true" and "1" are true, "off", "false" and "0" are false,
// anything else is an error.
func ParseBoolFlag(s string) (bool, error) {
	l := strings.ToLower(s)
	if collections.ContainsString(truthyStrings, l) {
		return true, nil
	}
	if collections.ContainsString(falsyStrings, l) {
		return false, nil
	}
	return false, errors.Errorf("invalid value for a boolean flag: %q", s)
}
