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
	"strings"

	humanize "github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sweeprun/sweeprun/config"
	"github.com/sweeprun/sweeprun/helper/stringutil"
	"github.com/sweeprun/sweeprun/helper/tabutil"
	"github.com/sweeprun/sweeprun/slurm"
	"github.com/sweeprun/sweeprun/sweep"
)

func init() {
	RootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [sweep id]",
	Short: "Show recorded sweeps and their trial states",
	Long:  `Without argument, list the recorded sweeps. With a sweep id, query the scheduler for the state of each of its trials.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configuration := getConfig()
		store := sweep.NewStore(configuration.WorkingDirectory)
		if len(args) == 0 {
			return listSweeps(store)
		}
		return sweepStatus(store, args[0], configuration)
	},
}

func listSweeps(store *sweep.Store) error {
	sweeps, err := store.List()
	if err != nil {
		errExit(err)
	}
	sweepsTable := tabutil.NewTable()
	sweepsTable.AddHeaders("Id", "Name", "Job", "Trials", "Created")
	for _, sw := range sweeps {
		sweepsTable.AddRow(sw.ID, sw.Name, sw.BatchJobID, strconv.Itoa(sw.TrialCount), humanize.Time(sw.CreatedAt))
	}
	fmt.Println("Sweeps:")
	fmt.Println(sweepsTable.Render())
	return nil
}

func sweepStatus(store *sweep.Store, id string, configuration config.Configuration) error {
	sw, err := store.Get(id)
	if err != nil {
		errExit(err)
	}
	client, err := slurm.NewClient(configuration)
	if err != nil {
		errExit(err)
	}
	status, err := sweep.GetStatus(client, sw)
	if err != nil {
		errExit(err)
	}

	colorize := !noColor
	trialsTable := tabutil.NewTable()
	trialsTable.AddHeaders("Index", "Dataset", "Arch", "LR", "WD", "Run", "State")
	for _, ts := range status.Trials {
		trialsTable.AddRow(
			strconv.Itoa(ts.Trial.Index),
			ts.Trial.Dataset,
			ts.Trial.Arch,
			stringutil.FormatFloat(ts.Trial.LearningRate),
			stringutil.FormatFloat(ts.Trial.WeightDecay),
			strconv.Itoa(ts.Trial.Run),
			getColoredTaskState(colorize, ts.State))
	}
	if colorize {
		defer color.Unset()
	}
	fmt.Printf("Sweep %s (job %s):\n", sw.ID, sw.BatchJobID)
	fmt.Println(trialsTable.Render())

	counts := make([]string, 0, len(status.Counts))
	for state, n := range status.Counts {
		counts = append(counts, fmt.Sprintf("%s: %d", state, n))
	}
	fmt.Println(strings.Join(counts, ", "))
	return nil
}

func getColoredTaskState(colorize bool, state string) string {
	if !colorize {
		return state
	}
	switch {
	case slurm.IsSuccessState(state):
		return color.GreenString("%s", state)
	case slurm.IsTerminalState(state):
		return color.RedString("%s", state)
	default:
		return color.YellowString("%s", state)
	}
}
