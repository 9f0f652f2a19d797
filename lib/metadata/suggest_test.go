package metadata

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestSuggestColumns(t *testing.T) {
	header := []string{"Name", "ID", "Concentraton", "Raised-In", "Lot", "Supplier", "URL", "Recognizes"}

	suggestions := SuggestColumns(header)
	expected := []Suggestion{
		{Column: "Concentraton", Rule: "concentration"},
		{Column: "Raised-In", Rule: "raised in"},
	}

	diff := cmp.Diff(
		expected,
		suggestions,
		cmpopts.IgnoreFields(Suggestion{}, "Correlation"),
	)
	if diff != "" {
		t.Fatal(diff)
	}
	for _, s := range suggestions {
		if s.Correlation < SuggestThreshold || s.Correlation >= 1 {
			t.Fatalf("unexpected correlation %f for %s", s.Correlation, s.Column)
		}
	}
}
