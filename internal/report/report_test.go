package report_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixpig/simrunner/internal/jobmanager"
	"github.com/nixpig/simrunner/internal/report"
	"github.com/nixpig/simrunner/internal/workspace"
)

func newTestWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()

	ws, err := workspace.New(filepath.Join(t.TempDir(), "simulations"))
	require.NoError(t, err)

	return ws
}

func writeArtifact(t *testing.T, path, contents string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestAggregate(t *testing.T) {
	t.Run("counts ids with both artifacts", func(t *testing.T) {
		ws := newTestWorkspace(t)

		writeArtifact(t, ws.SnapshotPath(1), "snapshot-1")
		writeArtifact(t, ws.ReportPath(1), "report-1")
		writeArtifact(t, ws.SnapshotPath(2), "snapshot-2")
		// Job 2 has no tabular report.
		writeArtifact(t, ws.SnapshotPath(3), "snapshot-3")
		writeArtifact(t, ws.ReportPath(3), "report-3")

		r := report.Aggregate(ws, 3)

		assert.Equal(t, 2, r.Succeeded)
		assert.Equal(t, 3, r.Total)
		assert.Equal(t, []int{2}, r.FailedIDs)
		assert.False(t, r.AllSucceeded())

		assert.True(t, r.Verified(1))
		assert.False(t, r.Verified(2))
		assert.True(t, r.Verified(3))
	})

	t.Run("lists artifacts with sizes in id order", func(t *testing.T) {
		ws := newTestWorkspace(t)

		writeArtifact(t, ws.SnapshotPath(1), "0123456789")
		writeArtifact(t, ws.ReportPath(1), "01234")

		r := report.Aggregate(ws, 1)

		require.Len(t, r.Artifacts, 2)
		assert.Equal(t, ws.SnapshotPath(1), r.Artifacts[0].Path)
		assert.Equal(t, int64(10), r.Artifacts[0].Size)
		assert.Equal(t, ws.ReportPath(1), r.Artifacts[1].Path)
		assert.Equal(t, int64(5), r.Artifacts[1].Size)
	})

	t.Run("partial files alone never count", func(t *testing.T) {
		ws := newTestWorkspace(t)

		writeArtifact(t, ws.ReportPath(1), "report only")

		r := report.Aggregate(ws, 1)

		assert.Equal(t, 0, r.Succeeded)
		assert.Equal(t, []int{1}, r.FailedIDs)
		// The orphaned file is still listed for the operator.
		require.Len(t, r.Artifacts, 1)
	})

	t.Run("is idempotent over an unmodified directory", func(t *testing.T) {
		ws := newTestWorkspace(t)

		writeArtifact(t, ws.SnapshotPath(1), "snapshot")
		writeArtifact(t, ws.ReportPath(1), "report")
		writeArtifact(t, ws.SnapshotPath(2), "snapshot")

		first := report.Aggregate(ws, 2)
		second := report.Aggregate(ws, 2)

		assert.Equal(t, first, second)
	})

	t.Run("all succeeded on empty run", func(t *testing.T) {
		ws := newTestWorkspace(t)

		r := report.Aggregate(ws, 0)

		assert.True(t, r.AllSucceeded())
		assert.Empty(t, r.FailedIDs)
	})
}

func TestDisagreements(t *testing.T) {
	ws := newTestWorkspace(t)

	// Job 1: self-reported success, artifacts complete. Agreement.
	writeArtifact(t, ws.SnapshotPath(1), "snapshot")
	writeArtifact(t, ws.ReportPath(1), "report")
	// Job 2: self-reported success, artifacts incomplete. Disagreement.
	writeArtifact(t, ws.SnapshotPath(2), "snapshot")
	// Job 3: self-reported failure, artifacts complete. Disagreement.
	writeArtifact(t, ws.SnapshotPath(3), "snapshot")
	writeArtifact(t, ws.ReportPath(3), "report")

	r := report.Aggregate(ws, 3)

	statuses := []jobmanager.JobStatus{
		{ID: 1, State: jobmanager.JobStateSucceeded},
		{ID: 2, State: jobmanager.JobStateSucceeded},
		{ID: 3, State: jobmanager.JobStateFailed},
	}

	assert.Equal(t, []int{2, 3}, r.Disagreements(statuses))
}
