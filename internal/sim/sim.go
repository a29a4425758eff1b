// Package sim constructs the subprocess invocations for the simulation
// collaborators. The collaborators are opaque: they take a numeric identifier
// and durations in minutes, write their artifacts to the output directory,
// and report success through their exit status.
package sim

import (
	"context"
	"os"
	"os/exec"
	"strconv"
)

// Default collaborator commands for the minimal cell simulation chain.
var (
	DefaultInitCommand = []string{"python3", "MinCell_CMEODE.py"}
	DefaultMainCommand = []string{"python3", "MinCell_restart.py"}
)

// Invoker builds exec.Cmd values for the two collaborator phases. The
// thread-limit environment is appended explicitly to every command rather
// than inherited from mutated process state.
type Invoker struct {
	// InitCommand is the base argv of the initialization-phase collaborator.
	InitCommand []string

	// MainCommand is the base argv of the main-phase collaborator.
	MainCommand []string

	// Dir is the working directory collaborators run in.
	Dir string

	// Env holds extra KEY=VALUE pairs, typically the thread limits.
	Env []string
}

// Init returns the initialization-phase command for id running for the given
// number of minutes. On success the collaborator writes one snapshot artifact
// derived from id.
func (v *Invoker) Init(ctx context.Context, id, minutes int) *exec.Cmd {
	args := append(
		[]string{},
		v.InitCommand[1:]...,
	)
	args = append(args, "-procid", strconv.Itoa(id), "-t", strconv.Itoa(minutes))

	return v.command(ctx, v.InitCommand[0], args)
}

// Main returns the main-phase command for id running for simMinutes with a
// checkpoint/restart interval of restartMinutes. On success the collaborator
// writes an updated snapshot and a tabular report derived from id.
func (v *Invoker) Main(ctx context.Context, id, simMinutes, restartMinutes int) *exec.Cmd {
	args := append(
		[]string{},
		v.MainCommand[1:]...,
	)
	args = append(
		args,
		"-procid", strconv.Itoa(id),
		"-t", strconv.Itoa(simMinutes),
		"-rs", strconv.Itoa(restartMinutes),
	)

	return v.command(ctx, v.MainCommand[0], args)
}

func (v *Invoker) command(ctx context.Context, program string, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Dir = v.Dir
	cmd.Env = append(os.Environ(), v.Env...)

	return cmd
}
