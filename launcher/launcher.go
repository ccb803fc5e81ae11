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

// Package launcher runs one trial of a sweep inside a scheduler array task:
// it selects the trial for the task index, prepares its result directory and
// invokes the external trainer with the trial hyperparameters.
package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/sweeprun/sweeprun/config"
	"github.com/sweeprun/sweeprun/grid"
	"github.com/sweeprun/sweeprun/helper/executil"
	"github.com/sweeprun/sweeprun/helper/stringutil"
	"github.com/sweeprun/sweeprun/log"
	"github.com/sweeprun/sweeprun/slurm"
)

// Launcher runs trials of a single sweep on the node it executes on
type Launcher struct {
	Space  *grid.Space
	Config config.Configuration
	// Client runs the requeue request on trainer failure. Array tasks run on
	// compute nodes where scheduler tools are local.
	Client slurm.Client
}

// New returns a Launcher for the given space and configuration
func New(space *grid.Space, cfg config.Configuration) *Launcher {
	return &Launcher{Space: space, Config: cfg, Client: slurm.NewLocalClient()}
}

// Run selects the trial for the task's array index, prepares its result
// directory and executes the trainer. On non-zero trainer exit it requests a
// requeue of the whole job before returning the original error.
func (l *Launcher) Run(ctx context.Context, env slurm.TaskEnv) error {
	trial, err := l.Space.Select(env.ArrayTaskID)
	if err != nil {
		return err
	}
	log.Printf("Array task %d runs trial: dataset=%s arch=%s lr=%s wd=%s epochs=%d run=%d",
		env.ArrayTaskID, trial.Dataset, trial.Arch,
		stringutil.FormatFloat(trial.LearningRate), stringutil.FormatFloat(trial.WeightDecay),
		trial.Epochs, trial.Run)

	resultDir, err := trial.EnsureResultDir(l.Config.ResultsRoot)
	if err != nil {
		return err
	}
	if err = trial.DumpParams(resultDir); err != nil {
		return err
	}

	checkpoint, err := ResolveCheckpoint(l.Space.Checkpoints[trial.Arch])
	if err != nil {
		return err
	}

	args := BuildArgs(trial, l.Space.Trainer, checkpoint, resultDir)

	runErr := l.runTrainer(ctx, env, trial, resultDir, args)
	if runErr == nil {
		return nil
	}

	if env.JobID == "" {
		log.Printf("No job ID in environment, skipping the requeue request")
		return runErr
	}
	log.Printf("Trainer failed for trial %d, requesting a requeue of job %s", trial.Index, env.JobID)
	if reqErr := slurm.RequeueJob(l.Client, env.JobID); reqErr != nil {
		log.Printf("Requeue request failed: %v", reqErr)
	}
	return runErr
}

func (l *Launcher) runTrainer(ctx context.Context, env slurm.TaskEnv, trial grid.Trial, resultDir string, args []string) error {
	stdout, stderr, err := openOutputFiles(resultDir, env.JobID)
	if err != nil {
		return err
	}
	defer stdout.Close()
	defer stderr.Close()

	cmd := executil.Command(ctx, l.Space.Trainer.Command[0], append(l.Space.Trainer.Command[1:], args...)...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env, err = trainerEnv(env)
	if err != nil {
		return err
	}

	log.Debugf("Running trainer: %s %v", l.Space.Trainer.Command[0], args)
	if err = cmd.Run(); err != nil {
		return errors.Wrapf(err, "trainer exited with an error for trial %d", trial.Index)
	}
	return nil
}

// openOutputFiles opens the per-job stdout/stderr files inside the result
// directory, named by the scheduler job id
func openOutputFiles(resultDir, jobID string) (*os.File, *os.File, error) {
	if jobID == "" {
		jobID = "local"
	}
	stdout, err := os.OpenFile(filepath.Join(resultDir, jobID+".out"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open trainer stdout file")
	}
	stderr, err := os.OpenFile(filepath.Join(resultDir, jobID+".err"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		stdout.Close()
		return nil, nil, errors.Wrap(err, "failed to open trainer stderr file")
	}
	return stdout, stderr, nil
}

// trainerEnv extends the process environment with the distributed rendezvous
// variables derived from the allocated node list
func trainerEnv(env slurm.TaskEnv) ([]string, error) {
	e := os.Environ()
	if env.NodeList == "" {
		return e, nil
	}
	masterAddr, err := env.MasterAddr()
	if err != nil {
		return nil, err
	}
	e = append(e,
		"MASTER_ADDR="+masterAddr,
		"MASTER_PORT="+strconv.Itoa(config.DefaultMasterPort),
		"RANK="+strconv.Itoa(env.ProcID),
	)
	return e, nil
}

// ResolveCheckpoint returns the first existing path among the candidate
// pretrained checkpoint paths
func ResolveCheckpoint(candidates []string) (string, error) {
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", errors.Errorf("no pretrained checkpoint found among candidates %v", candidates)
}

// BuildArgs renders the trainer command line for a trial. Each flag carries
// exactly one value.
func BuildArgs(t grid.Trial, settings grid.TrainerSettings, checkpoint, resultDir string) []string {
	args := []string{
		"--arch", t.Arch,
		"--lr", stringutil.FormatFloat(t.LearningRate),
		"--scheduler-type", settings.SchedulerType,
		"--final-lr", stringutil.FormatFloat(settings.FinalLR),
		"--epochs", strconv.Itoa(t.Epochs),
		"--pretrained", checkpoint,
		"--dataset", t.Dataset,
		"--classifier", settings.Classifier,
		"--batch-size", strconv.Itoa(t.BatchSize),
		"--data-path", settings.DataPath,
		"--wd", stringutil.FormatFloat(t.WeightDecay),
		"--mode", settings.Mode,
		"--seed", strconv.Itoa(t.Run),
		"--dump-path", resultDir,
	}
	// Deterministic toggle order keeps the command line reproducible
	names := make([]string, 0, len(settings.Toggles))
	for name := range settings.Toggles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		args = append(args, fmt.Sprintf("--%s", name), settings.Toggles[name])
	}
	return args
}
