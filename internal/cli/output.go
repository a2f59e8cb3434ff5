package cli

import (
	"fmt"
	"io"

	"github.com/Aleph-Alpha/vecsearch/v1/retrieval"
)

// printResults writes one "Result i (Similarity: s)" header per hit followed
// by the detail line produced by describe.
func printResults(w io.Writer, results []retrieval.Result, describe func(retrieval.Result) string) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results")
		return
	}
	for _, r := range results {
		fmt.Fprintf(w, "Result %d (Similarity: %.4f)\n", r.Rank, r.Score)
		if line := describe(r); line != "" {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}
