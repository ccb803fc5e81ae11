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

// Package slurm talks to a SLURM frontend: it submits batch arrays, queries
// job states and issues cancel/requeue requests, either on the local node or
// over SSH against a remote login node.
package slurm

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"os"
	"path"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"

	"github.com/sweeprun/sweeprun/config"
	"github.com/sweeprun/sweeprun/helper/executil"
	"github.com/sweeprun/sweeprun/helper/sshutil"
	"github.com/sweeprun/sweeprun/log"
)

// A Client runs scheduler commands on a SLURM frontend
type Client interface {
	RunCommand(string) (string, error)
}

// A FileCopier places files on the SLURM frontend, where batch scripts must
// live before sbatch can read them
type FileCopier interface {
	CopyFile(source io.Reader, remotePath, permissions string) error
}

type localClient struct {
}

// NewLocalClient returns a Client running commands directly on this node.
// This is the client used inside array tasks, where the scheduler tools are
// on the PATH.
func NewLocalClient() Client {
	return &localClient{}
}

func (c *localClient) RunCommand(cmd string) (string, error) {
	log.Debugf("[local] %q", cmd)
	var b bytes.Buffer
	execCmd := executil.Command(context.Background(), "/bin/sh", "-c", cmd)
	execCmd.Stdout = &b
	execCmd.Stderr = &b
	err := execCmd.Run()
	return b.String(), err
}

func (c *localClient) CopyFile(source io.Reader, remotePath, permissions string) error {
	if err := os.MkdirAll(path.Dir(remotePath), 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %q", remotePath)
	}
	b, err := ioutil.ReadAll(source)
	if err != nil {
		return errors.Wrap(err, "failed to read script content")
	}
	return errors.Wrapf(ioutil.WriteFile(remotePath, b, 0755), "failed to write %q", remotePath)
}

// checkSchedulerUserConfig checks that the scheduler section declares enough
// to authenticate against a remote frontend
func checkSchedulerUserConfig(cfg config.Configuration) error {
	if cfg.Scheduler.GetString("user_name") == "" {
		return errors.New("scheduler user_name is missing in configuration")
	}
	if cfg.Scheduler.GetString("private_key") == "" && cfg.Scheduler.GetString("password") == "" {
		return errors.New("scheduler configuration must provide at least a private_key or a password")
	}
	return nil
}

// NewClient returns a Client for the configured frontend: an SSH client when
// a scheduler url is configured, the local client otherwise.
func NewClient(cfg config.Configuration) (Client, error) {
	if cfg.Scheduler.GetString("url") == "" {
		return NewLocalClient(), nil
	}
	return newSSHClient(cfg)
}

func newSSHClient(cfg config.Configuration) (*sshutil.SSHClient, error) {
	if err := checkSchedulerUserConfig(cfg); err != nil {
		return nil, err
	}

	authMethods := make([]ssh.AuthMethod, 0)
	if pk := cfg.Scheduler.GetString("private_key"); pk != "" {
		keyAuth, err := sshutil.ReadPrivateKey(pk)
		if err != nil {
			return nil, err
		}
		authMethods = append(authMethods, keyAuth)
	}
	if pass := cfg.Scheduler.GetString("password"); pass != "" {
		authMethods = append(authMethods, ssh.Password(pass))
	}

	return &sshutil.SSHClient{
		Config: &ssh.ClientConfig{
			User:            cfg.Scheduler.GetString("user_name"),
			Auth:            authMethods,
			HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		},
		Host: cfg.Scheduler.GetString("url"),
		Port: cfg.Scheduler.GetIntOrDefault("port", config.DefaultSchedulerPort),
	}, nil
}
