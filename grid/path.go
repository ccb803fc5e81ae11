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
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/sweeprun/sweeprun/helper/stringutil"
)

// ParamsFileName is the name of the hyperparameters dump written into each
// result directory
const ParamsFileName = "params.json"

// ResultPath derives the result directory of a trial under the given root.
//
// It is a pure function of the trial fields: the directory encodes dataset,
// weight decay, epoch count and learning rate, with run index and
// architecture isolating repeated runs.
func (t Trial) ResultPath(root string) string {
	return filepath.Join(root,
		t.Dataset,
		fmt.Sprintf("wd%s_ep%d_lr%s", stringutil.FormatFloat(t.WeightDecay), t.Epochs, stringutil.FormatFloat(t.LearningRate)),
		fmt.Sprintf("run%d_%s", t.Run, t.Arch),
	)
}

// EnsureResultDir creates the trial result directory with its parents and
// returns its path. The creation is idempotent: an existing directory is
// reused as is.
func (t Trial) EnsureResultDir(root string) (string, error) {
	dir := t.ResultPath(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create result directory %q", dir)
	}
	return dir, nil
}

// DumpParams writes the selected tuple as JSON into the result directory so
// a result tree stays interpretable without the sweep definition
func (t Trial) DumpParams(dir string) error {
	b, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal trial parameters")
	}
	p := filepath.Join(dir, ParamsFileName)
	if err := ioutil.WriteFile(p, b, 0644); err != nil {
		return errors.Wrapf(err, "failed to write %q", p)
	}
	return nil
}
