package event

// CollapseRetries reduces repeated outcomes for the same case id to a
// single terminal outcome per case. Parallel and retrying runners can emit
// the same case more than once; the aggregation contract wants exactly one
// terminal outcome per test.
//
// The latest outcome for a case wins, except that a recorded pass is never
// downgraded by a later failure of the same case. Retry count accumulates
// across the collapsed entries. Outcomes without a case id cannot be
// correlated and pass through unchanged, preserving relative order.
func CollapseRetries(outcomes []TestOutcome) []TestOutcome {
	collapsed := make([]TestOutcome, 0, len(outcomes))
	byCase := make(map[string]int, len(outcomes))

	for _, outcome := range outcomes {
		if outcome.CaseID == "" {
			collapsed = append(collapsed, outcome)
			continue
		}

		idx, seen := byCase[outcome.CaseID]
		if !seen {
			byCase[outcome.CaseID] = len(collapsed)
			collapsed = append(collapsed, outcome)

			continue
		}

		prev := collapsed[idx]
		retries := prev.RetryCount + outcome.RetryCount + 1

		if prev.Status == StatusPassed && outcome.Status != StatusPassed {
			// Keep the pass, only account for the extra execution.
			prev.RetryCount = retries
			collapsed[idx] = prev

			continue
		}

		outcome.RetryCount = retries
		collapsed[idx] = outcome
	}

	return collapsed
}
