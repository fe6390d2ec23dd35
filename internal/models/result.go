package models

import "time"

// ItemResult is the recorded outcome of executing one work item.
type ItemResult struct {
	Item     WorkItem      // The item that was executed
	Success  bool          // True when the operation returned no error
	Action   string        // What the operation did, e.g. "exported STEP"
	Error    string        // Failure reason, empty on success
	Duration time.Duration // Wall-clock time spent in the operation
}

// RunSummary aggregates the results of one Execute call.
// Total always equals len(Results) and Succeeded+Failed equals Total.
// Cancellation truncates Results; the items that never started are counted
// in Skipped.
type RunSummary struct {
	Total     int
	Succeeded int
	Failed    int
	Planned   int  // Included items handed to Execute
	Skipped   int  // Planned items not started because of cancellation
	Cancelled bool // Execution stopped at an item boundary
	Duration  time.Duration
	Results   []ItemResult
}

// Record appends a result and updates the counters.
func (s *RunSummary) Record(result ItemResult) {
	s.Results = append(s.Results, result)
	s.Total++
	if result.Success {
		s.Succeeded++
	} else {
		s.Failed++
	}
}

// FailedResults returns the failed results in execution order.
func (s *RunSummary) FailedResults() []ItemResult {
	var failed []ItemResult
	for _, r := range s.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

// ItemTime is the sum of per-item durations.
func (s *RunSummary) ItemTime() time.Duration {
	var total time.Duration
	for _, r := range s.Results {
		total += r.Duration
	}
	return total
}

// ExitCode is 0 when no item failed, 1 otherwise.
func (s *RunSummary) ExitCode() int {
	if s.Failed > 0 {
		return 1
	}
	return 0
}

// ScanSummary is the outcome of the scan phase: the planned items plus the
// counts and non-fatal warnings gathered while walking and planning.
type ScanSummary struct {
	RootName              string
	RootPath              string
	TotalComponents       int // Components emitted by the walk, root included
	ContentCenterExcluded int
	SuppressedExcluded    int
	UnresolvedReferences  int
	Items                 []WorkItem
	Warnings              []string
}

// IncludedCount returns the number of items currently selected for execution.
func (s *ScanSummary) IncludedCount() int {
	n := 0
	for _, item := range s.Items {
		if item.Include {
			n++
		}
	}
	return n
}
