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

// Package config defines configuration structures
package config

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// DefaultHTTPPort is the default port number for the HTTP REST API
const DefaultHTTPPort int = 8600

// DefaultHTTPAddress is the default listening address for the HTTP REST API
const DefaultHTTPAddress string = "0.0.0.0"

// DefaultSchedulerPort is the default SSH port of the scheduler frontend
const DefaultSchedulerPort int = 22

// DefaultMasterPort is the port exported to trainers for their distributed
// rendezvous. Kept off the well-known ranges to avoid conflicts when several
// jobs land on the same node.
const DefaultMasterPort int = 22451

// DefaultJobMonitoringTimeInterval is the default polling interval for job states
const DefaultJobMonitoringTimeInterval = 5 * time.Second

// Configuration holds config information filled by Cobra and Viper (see commands package for more information)
type Configuration struct {
	WorkingDirectory string
	ResultsRoot      string
	HTTPPort         int
	HTTPAddress      string
	Telemetry        Telemetry
	Scheduler        DynamicMap
}

// Telemetry holds the configuration for the telemetry service
type Telemetry struct {
	PrometheusEndpoint bool
}

// DynamicMap holds parameters for a given section of the configuration, as
// the scheduler access parameters.
//
// It has methods to automatically cast data to the desired type.
type DynamicMap map[string]interface{}

// Get returns the raw value of a given configuration key
func (dm DynamicMap) Get(name string) interface{} {
	return dm[name]
}

// Set sets a value for a given configuration key
func (dm DynamicMap) Set(name string, value interface{}) {
	dm[name] = value
}

// GetString returns the value of the given key casted into a string.
// An empty string is returned if not found.
func (dm DynamicMap) GetString(name string) string {
	return cast.ToString(dm[name])
}

// GetStringOrDefault returns the value of the given key casted into a string.
// The given default value is returned if not found.
func (dm DynamicMap) GetStringOrDefault(name, defaultValue string) string {
	if res := dm.GetString(name); res != "" {
		return res
	}
	return defaultValue
}

// GetBool returns the value of the given key casted into a boolean.
// False is returned if not found.
func (dm DynamicMap) GetBool(name string) bool {
	return cast.ToBool(dm[name])
}

// GetInt returns the value of the given key casted into an int.
// 0 is returned if not found.
func (dm DynamicMap) GetInt(name string) int {
	return cast.ToInt(dm[name])
}

// GetIntOrDefault returns the value of the given key casted into an int.
// The given default value is returned if not found or equal to 0.
func (dm DynamicMap) GetIntOrDefault(name string, defaultValue int) int {
	if res := dm.GetInt(name); res != 0 {
		return res
	}
	return defaultValue
}

// GetDuration returns the value of the given key casted into a duration.
// A zero duration is returned if not found.
func (dm DynamicMap) GetDuration(name string) time.Duration {
	return cast.ToDuration(dm[name])
}

// GetStringSlice returns the value of the given key casted into a slice of string.
// If the corresponding raw value is a string, it is split on commas.
// A nil or empty slice is returned if not found.
func (dm DynamicMap) GetStringSlice(name string) []string {
	val := dm[name]
	switch v := val.(type) {
	case string:
		return strings.Split(v, ",")
	default:
		return cast.ToStringSlice(val)
	}
}
