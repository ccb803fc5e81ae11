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
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// TaskEnv is the scheduler-injected environment of one array task
type TaskEnv struct {
	// ArrayTaskID is the index of this task within the job array
	ArrayTaskID int
	// JobID identifies this task's job, the unit of requeue requests
	JobID string
	// ArrayJobID identifies the whole array
	ArrayJobID string
	// ProcID is the rank of this process within the job
	ProcID int
	// NodeList is the compressed list of nodes allocated to the job
	NodeList string
	// Nodes is the number of allocated nodes
	Nodes int
}

// TaskEnvFromSystem reads the scheduler environment of the current process.
//
// A missing or non-numeric array task index is an error: without it there is
// no way to select a grid tuple.
func TaskEnvFromSystem() (TaskEnv, error) {
	var env TaskEnv
	idx, ok := os.LookupEnv("SLURM_ARRAY_TASK_ID")
	if !ok {
		return env, errors.New("SLURM_ARRAY_TASK_ID is not set, not running inside a scheduler array task")
	}
	var err error
	env.ArrayTaskID, err = strconv.Atoi(idx)
	if err != nil {
		return env, errors.Wrapf(err, "invalid SLURM_ARRAY_TASK_ID %q", idx)
	}
	env.JobID = os.Getenv("SLURM_JOB_ID")
	env.ArrayJobID = os.Getenv("SLURM_ARRAY_JOB_ID")
	env.NodeList = os.Getenv("SLURM_JOB_NODELIST")
	if p := os.Getenv("SLURM_PROCID"); p != "" {
		env.ProcID, err = strconv.Atoi(p)
		if err != nil {
			return env, errors.Wrapf(err, "invalid SLURM_PROCID %q", p)
		}
	}
	if n := os.Getenv("SLURM_NNODES"); n != "" {
		env.Nodes, err = strconv.Atoi(n)
		if err != nil {
			return env, errors.Wrapf(err, "invalid SLURM_NNODES %q", n)
		}
	}
	return env, nil
}

// MasterAddr returns the host the trainer should use for its distributed
// rendezvous: the first host of the allocated node list.
func (env TaskEnv) MasterAddr() (string, error) {
	hosts, err := ExpandNodeList(env.NodeList)
	if err != nil {
		return "", err
	}
	if len(hosts) == 0 {
		return "", errors.New("empty scheduler node list")
	}
	return hosts[0], nil
}

// ExpandNodeList expands a compressed scheduler node list such as
// "node[3-5,9],gpu1" into individual host names.
func ExpandNodeList(nodeList string) ([]string, error) {
	var hosts []string
	for _, group := range splitNodeGroups(nodeList) {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		open := strings.Index(group, "[")
		if open == -1 {
			hosts = append(hosts, group)
			continue
		}
		if !strings.HasSuffix(group, "]") {
			return nil, errors.Errorf("malformed node list group %q", group)
		}
		prefix := group[:open]
		ranges := group[open+1 : len(group)-1]
		for _, r := range strings.Split(ranges, ",") {
			expanded, err := expandNodeRange(prefix, r)
			if err != nil {
				return nil, err
			}
			hosts = append(hosts, expanded...)
		}
	}
	return hosts, nil
}

// splitNodeGroups splits on the commas separating node groups, not on the
// commas inside bracketed ranges
func splitNodeGroups(nodeList string) []string {
	var groups []string
	depth := 0
	start := 0
	for i, c := range nodeList {
		switch c {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				groups = append(groups, nodeList[start:i])
				start = i + 1
			}
		}
	}
	groups = append(groups, nodeList[start:])
	return groups
}

func expandNodeRange(prefix, r string) ([]string, error) {
	r = strings.TrimSpace(r)
	if r == "" {
		return nil, errors.Errorf("empty range in node list for prefix %q", prefix)
	}
	if !strings.Contains(r, "-") {
		return []string{prefix + r}, nil
	}
	bounds := strings.SplitN(r, "-", 2)
	lo, err := strconv.Atoi(bounds[0])
	if err != nil {
		return nil, errors.Wrapf(err, "malformed node range %q", r)
	}
	hi, err := strconv.Atoi(bounds[1])
	if err != nil {
		return nil, errors.Wrapf(err, "malformed node range %q", r)
	}
	if hi < lo {
		return nil, errors.Errorf("malformed node range %q", r)
	}
	// Numbers may be zero-padded: node[01-03] expands to node01..node03
	width := len(bounds[0])
	hosts := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		num := strconv.Itoa(i)
		for len(num) < width {
			num = "0" + num
		}
		hosts = append(hosts, prefix+num)
	}
	return hosts, nil
}
