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

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sweeprun/sweeprun/slurm"
	"github.com/sweeprun/sweeprun/sweep"
)

func init() {
	RootCmd.AddCommand(cancelCmd)
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <sweep id>",
	Short: "Cancel all trials of a sweep",
	Long:  `Ask the scheduler to cancel the whole job array of a recorded sweep.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configuration := getConfig()
		sw, err := sweep.NewStore(configuration.WorkingDirectory).Get(args[0])
		if err != nil {
			errExit(err)
		}
		if sw.BatchJobID == "" {
			errExit(errors.Errorf("sweep %q has not been submitted yet", sw.ID))
		}
		client, err := slurm.NewClient(configuration)
		if err != nil {
			errExit(err)
		}
		if err = slurm.CancelJob(client, sw.BatchJobID); err != nil {
			errExit(err)
		}
		fmt.Printf("Cancelled job %s of sweep %s\n", sw.BatchJobID, sw.ID)
		return nil
	},
}
