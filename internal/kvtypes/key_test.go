package kvtypes

import "testing"

func TestPlanResultString(t *testing.T) {
	cases := map[PlanResult]string{
		Written:         "written",
		Skipped:         "skipped",
		NeedReindex:     "need-reindex",
		PlanResult(99):  "unknown",
	}
	for result, want := range cases {
		if got := result.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", result, got, want)
		}
	}
}
