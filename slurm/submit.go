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

package slurm

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/sweeprun/sweeprun/log"
)

// BatchOptions describes the sbatch directives of a job array submission
type BatchOptions struct {
	Name         string
	ArraySize    int
	Partition    string
	Gres         string
	Time         string
	Account      string
	Nodes        int
	TasksPerNode int
	CPUsPerTask  int
	Mem          string
	// OutputPattern is where the scheduler itself writes task output before
	// the launcher takes over redirection, %A/%a expanded by the scheduler
	OutputPattern string
	ExtraOpts     []string
}

// GenerateBatchScript writes the batch script submitting the given command
// once per array task
func GenerateBatchScript(w io.Writer, opts BatchOptions, command string) error {
	if opts.ArraySize <= 0 {
		return errors.Errorf("invalid array size %d", opts.ArraySize)
	}
	if opts.Name == "" {
		return errors.New("a job name is required")
	}
	var b strings.Builder
	b.WriteString("#!/usr/bin/env bash\n")
	fmt.Fprintf(&b, "#SBATCH --job-name=%s\n", opts.Name)
	fmt.Fprintf(&b, "#SBATCH --array=0-%d\n", opts.ArraySize-1)
	if opts.Partition != "" {
		fmt.Fprintf(&b, "#SBATCH --partition=%s\n", opts.Partition)
	}
	if opts.Gres != "" {
		fmt.Fprintf(&b, "#SBATCH --gres=%s\n", opts.Gres)
	}
	if opts.Time != "" {
		fmt.Fprintf(&b, "#SBATCH --time=%s\n", opts.Time)
	}
	if opts.Account != "" {
		fmt.Fprintf(&b, "#SBATCH --account=%s\n", opts.Account)
	}
	if opts.Nodes > 0 {
		fmt.Fprintf(&b, "#SBATCH --nodes=%d\n", opts.Nodes)
	}
	if opts.TasksPerNode > 0 {
		fmt.Fprintf(&b, "#SBATCH --ntasks-per-node=%d\n", opts.TasksPerNode)
	}
	if opts.CPUsPerTask > 0 {
		fmt.Fprintf(&b, "#SBATCH --cpus-per-task=%d\n", opts.CPUsPerTask)
	}
	if opts.Mem != "" {
		fmt.Fprintf(&b, "#SBATCH --mem=%s\n", opts.Mem)
	}
	if opts.OutputPattern != "" {
		fmt.Fprintf(&b, "#SBATCH --output=%s\n", opts.OutputPattern)
	}
	for _, opt := range opts.ExtraOpts {
		fmt.Fprintf(&b, "#SBATCH --%s\n", opt)
	}
	b.WriteString("\n")
	b.WriteString(command)
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return errors.Wrap(err, "failed to write batch script")
}

// SubmitBatchScript submits the batch script at the given frontend path and
// returns the array job ID
func SubmitBatchScript(client Client, scriptPath string) (string, error) {
	cmd := fmt.Sprintf("sbatch %s", scriptPath)
	output, err := client.RunCommand(cmd)
	if err != nil {
		return "", errors.Wrap(err, strings.TrimSpace(output))
	}
	jobID, err := parseJobIDFromBatchOutput(strings.Trim(output, "\n"))
	if err != nil {
		return "", err
	}
	log.Debugf("Submitted batch script %q as job %q", scriptPath, jobID)
	return jobID, nil
}

// parseJobIDFromBatchOutput parses the "Submitted batch job <ID>" sbatch
// response
func parseJobIDFromBatchOutput(out string) (string, error) {
	fields := strings.Fields(out)
	if len(fields) != 4 || fields[0] != "Submitted" {
		return "", errors.Errorf("unexpected sbatch output: %q", out)
	}
	return fields[3], nil
}
