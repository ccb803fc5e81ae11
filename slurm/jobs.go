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
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sweeprun/sweeprun/helper/collections"
)

// JobInfo is the short state of a job as reported by squeue
type JobInfo struct {
	ID    string
	Name  string
	State string
}

type noJobFound struct {
	msg string
}

func (jnf *noJobFound) Error() string {
	return jnf.msg
}

// IsNoJobFoundError checks if an error means the job is unknown to the
// scheduler (typically already purged from its accounting window)
func IsNoJobFoundError(err error) bool {
	_, ok := errors.Cause(err).(*noJobFound)
	return ok
}

var liveStates = []string{"PENDING", "RUNNING", "COMPLETING", "CONFIGURING", "SIGNALING", "RESIZING", "REQUEUED", "SUSPENDED"}

// IsTerminalState checks if a job state is final
func IsTerminalState(state string) bool {
	return state != "" && !collections.ContainsString(liveStates, state)
}

// IsSuccessState checks if a job state is the successful final state
func IsSuccessState(state string) bool {
	return state == "COMPLETED"
}

// GetJobInfo returns the job info of the job with the given ID or name.
//
// A *noJobFound error is returned when the scheduler doesn't know the job.
func GetJobInfo(client Client, jobID, jobName string) (*JobInfo, error) {
	var cmd string
	switch {
	case jobID != "":
		cmd = fmt.Sprintf("squeue --noheader -j %s -o \"%%j,%%i,%%T\"", jobID)
	case jobName != "":
		cmd = fmt.Sprintf("squeue --noheader -n %s -o \"%%j,%%i,%%T\"", jobName)
	default:
		return nil, errors.New("a job ID or a job name is required to retrieve job information")
	}
	output, err := client.RunCommand(cmd)
	if err != nil {
		return nil, errors.Wrap(err, strings.TrimSpace(output))
	}
	output = strings.Trim(output, "\" \t\n")
	if output == "" {
		return nil, &noJobFound{msg: fmt.Sprintf("no information found for job with id:%q, name:%q", jobID, jobName)}
	}
	fields := strings.Split(strings.SplitN(output, "\n", 2)[0], ",")
	if len(fields) != 3 {
		return nil, errors.Errorf("unexpected squeue output: %q", output)
	}
	return &JobInfo{Name: fields[0], ID: fields[1], State: fields[2]}, nil
}

// GetArrayJobStates returns the state of each task of a job array, keyed by
// array task index, using the accounting database so that finished tasks are
// reported too.
func GetArrayJobStates(client Client, arrayJobID string) (map[int]string, error) {
	cmd := fmt.Sprintf("sacct -n -X -P -j %s --format=JobID,State", arrayJobID)
	output, err := client.RunCommand(cmd)
	if err != nil {
		return nil, errors.Wrap(err, strings.TrimSpace(output))
	}
	states := make(map[int]string)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 2 || strings.TrimSpace(fields[1]) == "" {
			return nil, errors.Errorf("unexpected sacct output line: %q", line)
		}
		// JobID is reported as <arrayJobID>_<taskIndex> for array tasks
		idx := strings.Index(fields[0], "_")
		if idx == -1 {
			continue
		}
		taskPart := fields[0][idx+1:]
		if strings.HasPrefix(taskPart, "[") {
			// Pending tasks are folded as 123_[4-9], with a %N suffix when the
			// array is throttled: strip it, then expand the bracket notation
			if pct := strings.Index(taskPart, "%"); pct != -1 {
				taskPart = taskPart[:pct] + "]"
			}
			expanded, err := ExpandNodeList(fields[0][:idx] + taskPart)
			if err != nil {
				return nil, errors.Wrapf(err, "unexpected sacct job id: %q", fields[0])
			}
			for _, e := range expanded {
				taskIdx, err := strconv.Atoi(strings.TrimPrefix(e, fields[0][:idx]))
				if err != nil {
					return nil, errors.Wrapf(err, "unexpected sacct job id: %q", fields[0])
				}
				states[taskIdx] = normalizeState(fields[1])
			}
			continue
		}
		taskIdx, err := strconv.Atoi(taskPart)
		if err != nil {
			return nil, errors.Wrapf(err, "unexpected sacct job id: %q", fields[0])
		}
		states[taskIdx] = normalizeState(fields[1])
	}
	return states, nil
}

// normalizeState strips the suffix sacct appends to cancelled states
// ("CANCELLED by 1234")
func normalizeState(state string) string {
	return strings.Fields(state)[0]
}

// CancelJob cancels the given job, or all the tasks of an array when given
// the array job ID
func CancelJob(client Client, jobID string) error {
	output, err := client.RunCommand(fmt.Sprintf("scancel %s", jobID))
	return errors.Wrapf(err, "failed to cancel job %q: %s", jobID, strings.TrimSpace(output))
}

// RequeueJob asks the scheduler to requeue the given job as a whole.
// This is the only failure handling of a trial: no backoff, no exit code
// inspection.
func RequeueJob(client Client, jobID string) error {
	output, err := client.RunCommand(fmt.Sprintf("scontrol requeue %s", jobID))
	return errors.Wrapf(err, "failed to requeue job %q: %s", jobID, strings.TrimSpace(output))
}

// GetJobDetails parses the key=value output of scontrol show job
func GetJobDetails(client Client, jobID string) (map[string]string, error) {
	output, err := client.RunCommand(fmt.Sprintf("scontrol show job %s", jobID))
	if err != nil {
		return nil, errors.Wrap(err, strings.TrimSpace(output))
	}
	if strings.Contains(output, "Invalid job id specified") {
		return nil, &noJobFound{msg: fmt.Sprintf("no information found for job with id:%q", jobID)}
	}
	details := make(map[string]string)
	for _, field := range strings.Fields(output) {
		if is, k, v := parseKeyValue(field); is {
			details[k] = v
		}
	}
	return details, nil
}

// parseKeyValue checks if a string is formatted as "key=value" and splits it
func parseKeyValue(str string) (bool, string, string) {
	if strings.ContainsRune(str, '=') {
		propVal := strings.SplitN(str, "=", 2)
		return true, propVal[0], propVal[1]
	}
	return false, "", ""
}
