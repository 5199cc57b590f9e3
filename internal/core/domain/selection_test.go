package domain

import (
	"errors"
	"testing"
)

func TestParseSelection_RoundTrip(t *testing.T) {
	for _, s := range Selections() {
		got, err := ParseSelection(s.String())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", s, err)
		}
		if got != s {
			t.Errorf("expected %s, got %s", s, got)
		}
	}
}

func TestParseSelection_Unknown(t *testing.T) {
	for _, name := range []string{"", "Soda", "coffee", "diet_soda"} {
		if _, err := ParseSelection(name); !errors.Is(err, ErrUnknownSelection) {
			t.Errorf("%q: expected ErrUnknownSelection, got: %v", name, err)
		}
	}
}

func TestSelections_Closed(t *testing.T) {
	all := Selections()
	if len(all) != 12 {
		t.Fatalf("expected 12 selections, got %d", len(all))
	}
	if Selection(0).Valid() {
		t.Error("zero selection must not be valid")
	}
	if Selection(0).String() != "Selection(0)" {
		t.Errorf("unexpected string for zero selection: %s", Selection(0))
	}
}
