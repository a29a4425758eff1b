package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nixpig/simrunner/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()

	ws, err := workspace.New(filepath.Join(t.TempDir(), "simulations"))
	require.NoError(t, err)

	return ws
}

func TestNewCreatesDirectory(t *testing.T) {
	ws := newTestWorkspace(t)

	info, err := os.Stat(ws.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewRejectsEmptyDir(t *testing.T) {
	_, err := workspace.New("")
	require.Error(t, err)
}

func TestArtifactPaths(t *testing.T) {
	ws := newTestWorkspace(t)

	assert.Equal(t, filepath.Join(ws.Dir(), "out-3.lm"), ws.SnapshotPath(3))
	assert.Equal(t, filepath.Join(ws.Dir(), "rep-3.csv"), ws.ReportPath(3))
	assert.Equal(t, filepath.Join(ws.Dir(), "sim-3.log"), ws.LogPath(3))
	assert.Equal(t, ws.SnapshotPath(workspace.SharedID), ws.SharedSnapshotPath())
}

func TestCheckShared(t *testing.T) {
	t.Run("missing artifact", func(t *testing.T) {
		ws := newTestWorkspace(t)

		assert.ErrorIs(t, ws.CheckShared(), workspace.ErrMissingSharedState)
	})

	t.Run("empty artifact", func(t *testing.T) {
		ws := newTestWorkspace(t)

		require.NoError(t, os.WriteFile(ws.SharedSnapshotPath(), nil, 0o644))

		assert.ErrorIs(t, ws.CheckShared(), workspace.ErrMissingSharedState)
	})

	t.Run("non-empty artifact", func(t *testing.T) {
		ws := newTestWorkspace(t)

		require.NoError(
			t,
			os.WriteFile(ws.SharedSnapshotPath(), []byte("state"), 0o644),
		)

		assert.NoError(t, ws.CheckShared())
	})
}

func TestStage(t *testing.T) {
	t.Run("copies shared state to private path", func(t *testing.T) {
		ws := newTestWorkspace(t)

		require.NoError(
			t,
			os.WriteFile(ws.SharedSnapshotPath(), []byte("initial state"), 0o644),
		)

		require.NoError(t, ws.Stage(2))

		got, err := os.ReadFile(ws.SnapshotPath(2))
		require.NoError(t, err)
		assert.Equal(t, []byte("initial state"), got)
	})

	t.Run("fails when shared state is missing", func(t *testing.T) {
		ws := newTestWorkspace(t)

		assert.ErrorIs(t, ws.Stage(2), workspace.ErrMissingSharedState)
		assert.NoFileExists(t, ws.SnapshotPath(2))
	})
}

func TestRemoveShared(t *testing.T) {
	ws := newTestWorkspace(t)

	require.NoError(
		t,
		os.WriteFile(ws.SharedSnapshotPath(), []byte("state"), 0o644),
	)

	require.NoError(t, ws.RemoveShared())
	assert.NoFileExists(t, ws.SharedSnapshotPath())

	assert.Error(t, ws.RemoveShared())
}
