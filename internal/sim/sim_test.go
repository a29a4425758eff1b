package sim_test

import (
	"context"
	"testing"

	"github.com/nixpig/simrunner/internal/sim"
	"github.com/stretchr/testify/assert"
)

func TestInitCommandArgs(t *testing.T) {
	v := &sim.Invoker{
		InitCommand: []string{"python3", "MinCell_CMEODE.py"},
		MainCommand: []string{"python3", "MinCell_restart.py"},
	}

	cmd := v.Init(context.Background(), 0, 1)

	assert.Equal(
		t,
		[]string{"python3", "MinCell_CMEODE.py", "-procid", "0", "-t", "1"},
		cmd.Args,
	)
}

func TestMainCommandArgs(t *testing.T) {
	v := &sim.Invoker{
		InitCommand: []string{"python3", "MinCell_CMEODE.py"},
		MainCommand: []string{"python3", "MinCell_restart.py"},
	}

	cmd := v.Main(context.Background(), 4, 20, 2)

	assert.Equal(
		t,
		[]string{
			"python3", "MinCell_restart.py",
			"-procid", "4", "-t", "20", "-rs", "2",
		},
		cmd.Args,
	)
}

func TestCommandEnvAndDir(t *testing.T) {
	v := &sim.Invoker{
		InitCommand: []string{"sh", "-c", "true"},
		MainCommand: []string{"sh", "-c", "true"},
		Dir:         "/tmp",
		Env:         []string{"OMP_NUM_THREADS=2"},
	}

	cmd := v.Main(context.Background(), 1, 1, 1)

	assert.Equal(t, "/tmp", cmd.Dir)
	assert.Contains(t, cmd.Env, "OMP_NUM_THREADS=2")
}

func TestCommandsDoNotShareBaseArgv(t *testing.T) {
	// Two builds from the same Invoker must not clobber each other's args
	// through a shared backing array.
	v := &sim.Invoker{
		InitCommand: []string{"python3", "MinCell_CMEODE.py"},
		MainCommand: []string{"python3", "MinCell_restart.py"},
	}

	a := v.Main(context.Background(), 1, 20, 1)
	b := v.Main(context.Background(), 2, 20, 1)

	assert.Equal(t, "1", a.Args[3])
	assert.Equal(t, "2", b.Args[3])
}
