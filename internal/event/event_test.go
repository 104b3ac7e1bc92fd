package event

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate_AcceptsAllTerminalStatuses(t *testing.T) {
	t.Parallel()

	for _, status := range []Status{StatusPassed, StatusFailed, StatusSkipped, StatusBroken} {
		outcome := TestOutcome{Name: "test_login", Status: status}
		require.NoError(t, outcome.Validate())
	}
}

func TestValidate_RejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	outcome := TestOutcome{Name: "test_login", Status: "errored"}
	require.Error(t, outcome.Validate())
}

func TestValidate_RejectsNegativeValues(t *testing.T) {
	t.Parallel()

	outcome := TestOutcome{Name: "test_login", Status: StatusPassed, DurationMS: -1}
	require.Error(t, outcome.Validate())

	outcome = TestOutcome{Name: "test_login", Status: StatusPassed, RetryCount: -1}
	require.Error(t, outcome.Validate())
}

func TestValidate_ErrorSummaryOnlyOnFailures(t *testing.T) {
	t.Parallel()

	outcome := TestOutcome{Name: "test_login", Status: StatusPassed, ErrorSummary: "assert x==y"}
	require.Error(t, outcome.Validate())

	outcome = TestOutcome{Name: "test_login", Status: StatusBroken, ErrorSummary: "setup blew up"}
	require.NoError(t, outcome.Validate())
}

func TestDecoder_ReadsJSONLines(t *testing.T) {
	t.Parallel()

	stream := `{"case_id":"TC-1","name":"test_a","status":"passed","duration_ms":100}

{"name":"test_b","status":"failed","duration_ms":50,"error_summary":"assert x==y"}
`

	decoder := NewDecoder(strings.NewReader(stream))

	first, err := decoder.Next()
	require.NoError(t, err)
	require.Equal(t, "TC-1", first.CaseID)
	require.Equal(t, StatusPassed, first.Status)

	second, err := decoder.Next()
	require.NoError(t, err)
	require.Equal(t, "test_b", second.Name)
	require.Equal(t, "assert x==y", second.ErrorSummary)

	_, err = decoder.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestDecoder_ReportsLineOfBadEvent(t *testing.T) {
	t.Parallel()

	stream := `{"name":"test_a","status":"passed","duration_ms":1}
{"name":"test_b","status":"bogus","duration_ms":1}
`

	decoder := NewDecoder(strings.NewReader(stream))

	_, err := decoder.Next()
	require.NoError(t, err)

	_, err = decoder.Next()
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}

func TestReadAll(t *testing.T) {
	t.Parallel()

	stream := `{"name":"test_a","status":"passed","duration_ms":1}
{"name":"test_b","status":"skipped","duration_ms":0}
`

	outcomes, err := ReadAll(strings.NewReader(stream))
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
}

func TestCollapseRetries_LatestWins(t *testing.T) {
	t.Parallel()

	outcomes := []TestOutcome{
		{CaseID: "TC-1", Name: "test_a", Status: StatusFailed, DurationMS: 80, ErrorSummary: "boom"},
		{CaseID: "TC-1", Name: "test_a", Status: StatusPassed, DurationMS: 100},
	}

	collapsed := CollapseRetries(outcomes)
	require.Len(t, collapsed, 1)
	require.Equal(t, StatusPassed, collapsed[0].Status)
	require.Equal(t, 1, collapsed[0].RetryCount)
}

func TestCollapseRetries_PassIsNotDowngraded(t *testing.T) {
	t.Parallel()

	outcomes := []TestOutcome{
		{CaseID: "TC-1", Name: "test_a", Status: StatusPassed, DurationMS: 100},
		{CaseID: "TC-1", Name: "test_a", Status: StatusFailed, DurationMS: 90, ErrorSummary: "boom"},
	}

	collapsed := CollapseRetries(outcomes)
	require.Len(t, collapsed, 1)
	require.Equal(t, StatusPassed, collapsed[0].Status)
	require.Equal(t, 1, collapsed[0].RetryCount)
}

func TestCollapseRetries_EmptyCaseIDPassesThrough(t *testing.T) {
	t.Parallel()

	outcomes := []TestOutcome{
		{Name: "test_a", Status: StatusPassed},
		{Name: "test_a", Status: StatusPassed},
		{CaseID: "TC-2", Name: "test_b", Status: StatusSkipped},
	}

	collapsed := CollapseRetries(outcomes)
	require.Len(t, collapsed, 3)
}
