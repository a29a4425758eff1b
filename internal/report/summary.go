package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

const bytesPerMB = 1024 * 1024

// WriteSummary writes the human-readable run summary: the success count, the
// wall time, and the per-artifact size listing.
func (r Report) WriteSummary(w io.Writer, elapsed time.Duration) error {
	fmt.Fprintf(w, "Simulations succeeded: %d/%d\n", r.Succeeded, r.Total)
	fmt.Fprintf(w, "Total wall time: %s\n", elapsed.Round(time.Second))

	if len(r.FailedIDs) > 0 {
		fmt.Fprintf(w, "Failed job ids: %v\n", r.FailedIDs)
	}

	fmt.Fprintf(w, "Output files generated: %d\n", len(r.Artifacts))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for _, artifact := range r.Artifacts {
		fmt.Fprintf(
			tw,
			"  %s\t%.2f MB\n",
			artifact.Path,
			float64(artifact.Size)/bytesPerMB,
		)
	}

	return tw.Flush()
}
