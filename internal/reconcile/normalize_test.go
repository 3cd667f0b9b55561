// internal/reconcile/normalize_test.go

package reconcile

import (
	"testing"

	"github.com/shiv0924/jjm-platform/internal/domain"
)

func TestNormalizeStates(t *testing.T) {
	aliases := DefaultOptions().StateAliases
	in := []domain.TapStatusRow{
		{StateName: "A & N Islands", TotalHouseholds: 100},
		{StateName: "Maharashtra", TotalHouseholds: 200},
		{StateName: "Somewhere Else", TotalHouseholds: 300},
	}

	got, renamed := NormalizeStates(in, aliases)

	if renamed != 1 {
		t.Errorf("renamed = %d, want 1", renamed)
	}
	wantNames := []string{"Andaman & Nicobar Islands", "Maharashtra", "Somewhere Else"}
	for i, w := range wantNames {
		if got[i].StateName != w {
			t.Errorf("row %d state = %q, want %q", i, got[i].StateName, w)
		}
		if got[i].TotalHouseholds != in[i].TotalHouseholds {
			t.Errorf("row %d lost its counts", i)
		}
	}

	// The input table must stay untouched.
	if in[0].StateName != "A & N Islands" {
		t.Errorf("input mutated: %q", in[0].StateName)
	}
}

func TestNormalizeStates_Empty(t *testing.T) {
	got, renamed := NormalizeStates(nil, DefaultOptions().StateAliases)
	if got != nil || renamed != 0 {
		t.Errorf("NormalizeStates(nil) = (%v, %d), want (nil, 0)", got, renamed)
	}
}
