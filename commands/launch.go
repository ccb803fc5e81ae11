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
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sweeprun/sweeprun/launcher"
	"github.com/sweeprun/sweeprun/log"
	"github.com/sweeprun/sweeprun/slurm"
)

var launchSweepFile string

func init() {
	RootCmd.AddCommand(launchCmd)
	launchCmd.PersistentFlags().StringVar(&launchSweepFile, "sweep-file", "", "Path to the sweep file, readable from the compute node")
	launchCmd.MarkPersistentFlagRequired("sweep-file")
}

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Run one trial inside a scheduler array task",
	Long: `Select the trial matching this array task's index, prepare its result
directory and run the trainer. Meant to be invoked by the batch script, not by
hand.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		space, err := loadSpace(launchSweepFile)
		if err != nil {
			errExit(err)
		}
		env, err := slurm.TaskEnvFromSystem()
		if err != nil {
			errExit(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		signalCh := make(chan os.Signal, 4)
		signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-signalCh
			log.Printf("Caught signal: %v, stopping the trainer", sig)
			cancel()
		}()

		return launcher.New(space, getConfig()).Run(ctx, env)
	},
}
