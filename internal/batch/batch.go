// Package batch submits the external training program to the cluster
// scheduler. The program itself (main.py) is an opaque collaborator; this
// package only renders the resource request and its fixed flag surface.
package batch

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Jaebeom-git/InferBiomechanics/internal/logging"
)

// Job describes one training run and its cluster allocation.
type Job struct {
	Name          string
	Script        string // entry point of the training program
	DatasetDir    string
	CheckpointDir string
	HiddenSize    int

	CPUs      int
	MemGB     int
	WallClock string // HH:MM:SS
	Partition string
	MailUser  string // empty disables mail notifications
}

// DefaultJob returns the allocation used for the regression baseline.
func DefaultJob() Job {
	return Job{
		Name:          "regression",
		Script:        "main.py",
		DatasetDir:    "./data/train",
		CheckpointDir: "./checkpoints",
		HiddenSize:    256,
		CPUs:          32,
		MemGB:         64,
		WallClock:     "48:00:00",
		Partition:     "owners",
	}
}

// SbatchArgs renders the deterministic sbatch argument list: the resource
// request first, then the wrapped program invocation.
func (j Job) SbatchArgs() []string {
	args := []string{
		"--job-name=" + j.Name,
		fmt.Sprintf("--cpus-per-task=%d", j.CPUs),
		fmt.Sprintf("--mem=%dG", j.MemGB),
		"--time=" + j.WallClock,
		"--partition=" + j.Partition,
	}
	if j.MailUser != "" {
		args = append(args,
			"--mail-type=BEGIN,END,FAIL",
			"--mail-user="+j.MailUser,
		)
	}
	args = append(args, "--wrap", j.command())
	return args
}

func (j Job) command() string {
	return strings.Join([]string{
		"python3", j.Script,
		"--dataset-home", j.DatasetDir,
		"--checkpoint-dir", j.CheckpointDir,
		"--hidden-size", fmt.Sprintf("%d", j.HiddenSize),
	}, " ")
}

// Submit hands the job to sbatch and returns the scheduler's output.
func (j Job) Submit(ctx context.Context) (string, error) {
	args := j.SbatchArgs()
	logging.Info("submitting job",
		logging.String("name", j.Name),
		logging.String("partition", j.Partition))

	out, err := exec.CommandContext(ctx, "sbatch", args...).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("sbatch: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}
