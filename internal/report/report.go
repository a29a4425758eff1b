// Package report verifies run output independently of the jobs' own
// self-reported outcomes. A job id counts as successful only if both of its
// expected artifacts exist, which catches collaborators that exit zero
// without producing complete output.
package report

import (
	"os"
	"slices"

	"github.com/nixpig/simrunner/internal/jobmanager"
	"github.com/nixpig/simrunner/internal/workspace"
)

// Artifact is one produced output file and its size in bytes.
type Artifact struct {
	Path string
	Size int64
}

// Report is the consolidated outcome of a run. It is computed strictly after
// every job has reached a terminal state, and is authoritative for the
// process exit code.
type Report struct {
	Succeeded int
	Total     int

	// FailedIDs lists, in ascending order, the job ids missing at least one
	// expected artifact.
	FailedIDs []int

	// Artifacts lists every produced output file in ascending id order,
	// snapshot before report.
	Artifacts []Artifact
}

// Aggregate scans the expected output locations for each id in
// [1, jobCount]. It reads only; running it twice over an unmodified output
// directory yields an identical Report.
func Aggregate(ws *workspace.Workspace, jobCount int) Report {
	r := Report{Total: jobCount}

	for id := 1; id <= jobCount; id++ {
		snapshot, snapshotOK := statArtifact(ws.SnapshotPath(id))
		tabular, tabularOK := statArtifact(ws.ReportPath(id))

		if snapshotOK {
			r.Artifacts = append(r.Artifacts, snapshot)
		}

		if tabularOK {
			r.Artifacts = append(r.Artifacts, tabular)
		}

		if snapshotOK && tabularOK {
			r.Succeeded++
		} else {
			r.FailedIDs = append(r.FailedIDs, id)
		}
	}

	return r
}

// AllSucceeded returns whether every job id produced both expected
// artifacts.
func (r Report) AllSucceeded() bool {
	return r.Succeeded == r.Total
}

// Verified returns whether the given id passed artifact verification.
func (r Report) Verified(id int) bool {
	return !slices.Contains(r.FailedIDs, id)
}

// Disagreements returns the ids whose self-reported terminal state disagrees
// with artifact verification, in the order given. A disagreement indicates a
// collaborator defect worth surfacing: either it exited zero without
// producing complete output, or it left both artifacts behind despite
// failing.
func (r Report) Disagreements(statuses []jobmanager.JobStatus) []int {
	var ids []int

	for _, status := range statuses {
		selfReported := status.State == jobmanager.JobStateSucceeded
		if selfReported != r.Verified(status.ID) {
			ids = append(ids, status.ID)
		}
	}

	return ids
}

func statArtifact(path string) (Artifact, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, false
	}

	return Artifact{Path: path, Size: info.Size()}, true
}
