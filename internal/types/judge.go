package types

// TestResult is a single measured test run reported by the judging engine.
type TestResult struct {
	Time   float64 `json:"time"`
	Memory float64 `json:"memory"`
}

// TestGroup is one scored group of test runs. The engine owns the internal
// consistency of these values; this service only aggregates them.
type TestGroup struct {
	Status    []TestResult `json:"status"`
	Score     float64      `json:"score"`
	FullScore float64      `json:"fullScore"`
}

// Aggregate is the per-submission summary of all judged groups.
type Aggregate struct {
	Score     float64 `json:"score"`
	FullScore float64 `json:"full_score"`
	Time      float64 `json:"time"`
	Memory    float64 `json:"memory"`
}

// AggregateGroups sums the group scores and takes the worst time/memory
// over every test run. Absent or empty groups aggregate to zero, which is
// how a not-yet-judged submission is presented.
func AggregateGroups(groups []TestGroup) Aggregate {
	var agg Aggregate

	for _, group := range groups {
		agg.Score += group.Score
		agg.FullScore += group.FullScore

		for _, result := range group.Status {
			agg.Time = max(agg.Time, result.Time)
			agg.Memory = max(agg.Memory, result.Memory)
		}
	}

	return agg
}
