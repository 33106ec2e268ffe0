package column

import (
	"errors"
	"testing"
)

func TestValidatePlanUnknownActionKind(t *testing.T) {
	c := openTestColumn(t, testOptions())
	err := c.ValidatePlan(LogAction{Kind: LogActionKind(99)})
	if !errors.Is(err, ErrUnknownLogAction) {
		t.Fatalf("err = %v, want wrapping ErrUnknownLogAction", err)
	}
}

func TestEnactPlanMissingTable(t *testing.T) {
	c := openTestColumn(t, testOptions())
	action := LogAction{Kind: ActionInsertIndex, Table: TableID(200)}
	err := c.EnactPlan(action)
	if !errors.Is(err, ErrTableMissing) {
		t.Fatalf("err = %v, want wrapping ErrTableMissing", err)
	}
}

func TestCorruptedWrapsUnderlyingError(t *testing.T) {
	inner := errors.New("boom")
	cz := Corrupted{ChunkIndex: 3, Err: inner}
	if cz.Error() != "boom" {
		t.Fatalf("Error() = %q, want %q", cz.Error(), "boom")
	}
	if !errors.Is(cz, inner) {
		t.Fatal("errors.Is did not see through Corrupted.Unwrap")
	}
}
