package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixpig/simrunner/internal/report"
)

func TestWriteSummary(t *testing.T) {
	r := report.Report{
		Succeeded: 2,
		Total:     3,
		FailedIDs: []int{2},
		Artifacts: []report.Artifact{
			{Path: "simulations/out-1.lm", Size: 2 * 1024 * 1024},
			{Path: "simulations/rep-1.csv", Size: 512},
		},
	}

	out := &bytes.Buffer{}
	require.NoError(t, r.WriteSummary(out, 90*time.Second))

	got := out.String()

	assert.Contains(t, got, "2/3")
	assert.Contains(t, got, "1m30s")
	assert.Contains(t, got, "[2]")
	assert.Contains(t, got, "simulations/out-1.lm")
	assert.Contains(t, got, "2.00 MB")
	assert.Contains(t, got, "0.00 MB")
}
