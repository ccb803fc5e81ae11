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

// Package commands implements the sweeprun command line interface.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sweeprun/sweeprun/grid"
	"github.com/sweeprun/sweeprun/log"
)

var noColor bool

// RootCmd is the root of sweeprun commands tree
var RootCmd = &cobra.Command{
	Use:   "sweeprun",
	Short: "A hyperparameter sweep runner for batch schedulers",
	Long: `sweeprun enumerates hyperparameter grids, submits them as scheduler
job arrays and runs one trial of the grid inside each array task.
`,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		err := cmd.Help()
		if err != nil {
			fmt.Print(err)
		}
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloring output")
	RootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")
	viper.BindPFlag("debug", RootCmd.PersistentFlags().Lookup("debug"))
	cobra.OnInitialize(func() {
		log.SetDebug(viper.GetBool("debug"))
	})
}

func errExit(msg interface{}) {
	fmt.Println("Error:", msg)
	os.Exit(1)
}

// loadSpace reads a sweep file (yaml or json) into a grid Space
func loadSpace(sweepFile string) (*grid.Space, error) {
	v := viper.New()
	v.SetConfigFile(sweepFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	space := &grid.Space{}
	if err := v.Unmarshal(space); err != nil {
		return nil, err
	}
	return space, nil
}
