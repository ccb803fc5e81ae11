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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sweeprun/sweeprun/config"
	"github.com/sweeprun/sweeprun/log"
	"github.com/sweeprun/sweeprun/rest"
	"github.com/sweeprun/sweeprun/slurm"
	"github.com/sweeprun/sweeprun/sweep"
)

func init() {
	RootCmd.AddCommand(serverCmd)
	setConfig()
	cobra.OnInitialize(initConfig)
}

var cfgFile string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the sweeprun REST server",
	Long:  `Run the HTTP server exposing recorded sweeps and their scheduler states`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configuration := getConfig()
		client, err := slurm.NewClient(configuration)
		if err != nil {
			return err
		}
		httpServer, err := rest.NewServer(configuration, sweep.NewStore(configuration.WorkingDirectory), client)
		if err != nil {
			return err
		}
		defer httpServer.Shutdown()

		signalCh := make(chan os.Signal, 4)
		signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
		sig := <-signalCh
		log.Printf("Caught signal: %v, exiting", sig)
		return nil
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// enable ability to specify config file via flag
		viper.SetConfigFile(cfgFile)
	}
	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Debugln("Using config file:", viper.ConfigFileUsed())
	} else {
		log.Debugln("Config not found... ")
	}
}

func setConfig() {

	RootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is /etc/sweeprun/config.sweeprun.json)")

	serverCmd.PersistentFlags().Int("http_port", config.DefaultHTTPPort, "Port number for the REST API")
	serverCmd.PersistentFlags().String("http_address", config.DefaultHTTPAddress, "Listening address for the REST API")
	serverCmd.PersistentFlags().Bool("telemetry_prometheus_endpoint", false, "Expose a Prometheus scrape endpoint on /metrics")

	viper.BindPFlag("http_port", serverCmd.PersistentFlags().Lookup("http_port"))
	viper.BindPFlag("http_address", serverCmd.PersistentFlags().Lookup("http_address"))
	viper.BindPFlag("telemetry.prometheus_endpoint", serverCmd.PersistentFlags().Lookup("telemetry_prometheus_endpoint"))

	//Environment Variables
	viper.SetEnvPrefix("sweeprun") // will be uppercased automatically - Become "SWEEPRUN_"
	viper.AutomaticEnv()           // read in environment variables that match
	viper.BindEnv("working_directory")
	viper.BindEnv("results_root")
	viper.BindEnv("http_port")
	viper.BindEnv("http_address")

	//Setting Defaults
	viper.SetDefault("working_directory", "work")
	viper.SetDefault("results_root", "results")
	viper.SetDefault("http_port", config.DefaultHTTPPort)
	viper.SetDefault("http_address", config.DefaultHTTPAddress)

	//Configuration file directories
	viper.SetConfigName("config.sweeprun") // name of config file (without extension)
	viper.AddConfigPath("/etc/sweeprun/")
	viper.AddConfigPath(".")
}

func getConfig() config.Configuration {
	configuration := config.Configuration{}
	configuration.WorkingDirectory = viper.GetString("working_directory")
	configuration.ResultsRoot = viper.GetString("results_root")
	configuration.HTTPPort = viper.GetInt("http_port")
	configuration.HTTPAddress = viper.GetString("http_address")
	configuration.Telemetry.PrometheusEndpoint = viper.GetBool("telemetry.prometheus_endpoint")
	configuration.Scheduler = viper.GetStringMap("scheduler")
	return configuration
}
