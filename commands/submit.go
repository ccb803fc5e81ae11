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
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sweeprun/sweeprun/helper/stringutil"
	"github.com/sweeprun/sweeprun/slurm"
	"github.com/sweeprun/sweeprun/sweep"
)

var submitOpts slurm.BatchOptions

func init() {
	RootCmd.AddCommand(submitCmd)

	submitCmd.PersistentFlags().StringVar(&submitOpts.Name, "name", "", "Job name (defaults to the name declared in the sweep file)")
	submitCmd.PersistentFlags().StringVar(&submitOpts.Partition, "partition", "", "Scheduler partition to submit to")
	submitCmd.PersistentFlags().StringVar(&submitOpts.Gres, "gres", "", "Generic resources per task (e.g. gpu:1)")
	submitCmd.PersistentFlags().StringVar(&submitOpts.Time, "time", "", "Walltime limit per task (e.g. 72:00:00)")
	submitCmd.PersistentFlags().StringVar(&submitOpts.Account, "account", "", "Account to charge the allocation to")
	submitCmd.PersistentFlags().IntVar(&submitOpts.Nodes, "nodes", 0, "Nodes per task")
	submitCmd.PersistentFlags().IntVar(&submitOpts.TasksPerNode, "tasks-per-node", 0, "Scheduler tasks per node")
	submitCmd.PersistentFlags().IntVar(&submitOpts.CPUsPerTask, "cpus-per-task", 0, "CPUs per task")
	submitCmd.PersistentFlags().StringVar(&submitOpts.Mem, "mem", "", "Memory per node (e.g. 60G)")
	submitCmd.PersistentFlags().StringSliceVar(&submitOpts.ExtraOpts, "batch-opt", nil, "Additional raw batch directive (repeatable, without the leading --)")
}

var submitCmd = &cobra.Command{
	Use:   "submit <sweep file>",
	Short: "Submit a sweep as a scheduler job array",
	Long:  `Validate the sweep file, generate its batch script, submit it to the scheduler and record the sweep in the store.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sweepFile, err := filepath.Abs(args[0])
		if err != nil {
			errExit(err)
		}
		space, err := loadSpace(sweepFile)
		if err != nil {
			errExit(err)
		}
		if err = space.Validate(); err != nil {
			errExit(err)
		}

		configuration := getConfig()
		client, err := slurm.NewClient(configuration)
		if err != nil {
			errExit(err)
		}
		copier, ok := client.(slurm.FileCopier)
		if !ok {
			errExit(errors.New("the configured scheduler client cannot copy batch scripts to the frontend"))
		}

		opts := submitOpts
		opts.ArraySize = space.Size()
		if opts.Name == "" {
			opts.Name = space.Name
		}
		if opts.Name == "" {
			opts.Name = strings.TrimSuffix(filepath.Base(sweepFile), filepath.Ext(sweepFile))
		}

		// The sweep file itself must be readable from the compute nodes, the
		// shared filesystem takes care of that.
		launch := fmt.Sprintf("sweeprun launch --sweep-file %s", sweepFile)

		var script bytes.Buffer
		if err = slurm.GenerateBatchScript(&script, opts, launch); err != nil {
			errExit(err)
		}
		scriptPath := filepath.Join(configuration.WorkingDirectory, "scripts",
			stringutil.UniqueTimestampedName(opts.Name+"_", ".sbatch"))
		if err = copier.CopyFile(&script, scriptPath, "0755"); err != nil {
			errExit(err)
		}

		jobID, err := slurm.SubmitBatchScript(client, scriptPath)
		if err != nil {
			errExit(err)
		}

		sw := sweep.NewSweep(opts.Name, *space, sweepFile, configuration.ResultsRoot)
		sw.BatchJobID = jobID
		if err = sweep.NewStore(configuration.WorkingDirectory).Save(sw); err != nil {
			errExit(err)
		}

		fmt.Printf("Submitted sweep %s (%d trials) as job %s\n", sw.ID, sw.TrialCount, jobID)
		return nil
	},
}
