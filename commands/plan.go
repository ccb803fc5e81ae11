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

package commands

import (
	"fmt"
	"strconv"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sweeprun/sweeprun/helper/stringutil"
	"github.com/sweeprun/sweeprun/helper/tabutil"
)

func init() {
	RootCmd.AddCommand(planCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan <sweep file>",
	Short: "Preview the trials of a sweep",
	Long:  `Enumerate the hyperparameter grid of a sweep file and print the trial each array task index would run, without submitting anything.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		space, err := loadSpace(args[0])
		if err != nil {
			errExit(err)
		}
		if err = space.Validate(); err != nil {
			errExit(err)
		}

		trialsTable := tabutil.NewTable()
		trialsTable.AddHeaders("Index", "Dataset", "Arch", "LR", "WD", "Epochs", "Run")
		for _, trial := range space.Enumerate() {
			trialsTable.AddRow(
				strconv.Itoa(trial.Index),
				trial.Dataset,
				trial.Arch,
				stringutil.FormatFloat(trial.LearningRate),
				stringutil.FormatFloat(trial.WeightDecay),
				strconv.Itoa(trial.Epochs),
				strconv.Itoa(trial.Run))
		}
		fmt.Printf("Sweep of %s trials:\n", humanize.Comma(int64(space.Size())))
		fmt.Println(trialsTable.Render())
		return nil
	},
}
