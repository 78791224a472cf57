package compose

import (
	"fmt"
	"strings"
)

// InvalidTrimError reports a trim window that resolves to a non-positive
// duration. Compilation stops before the engine is ever started.
type InvalidTrimError struct {
	Clip  string
	Start float64
	End   float64
}

func (e *InvalidTrimError) Error() string {
	return fmt.Sprintf("invalid %s trim: end %.3fs must be greater than start %.3fs", e.Clip, e.End, e.Start)
}

// GraphAssemblyError reports a pad bookkeeping violation in the filter graph.
// It indicates a compiler defect, never bad user input.
type GraphAssemblyError struct {
	Problems []string
}

func (e *GraphAssemblyError) Error() string {
	return "filter graph assembly failed: " + strings.Join(e.Problems, "; ")
}
