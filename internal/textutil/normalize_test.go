package textutil

import "testing"

func TestNormalizeDocket_CollapsesVariants(t *testing.T) {
	// Universal invariant 2 (spec §8).
	variants := []string{"BL.2020.1", "BL_2020_1", "BL 2020 1", "bl-2020-1"}
	want := NormalizeDocket(variants[0])
	for _, v := range variants {
		if got := NormalizeDocket(v); got != want {
			t.Fatalf("NormalizeDocket(%q) = %q, want %q", v, got, want)
		}
	}
	if want != "BL_2020_1" {
		t.Fatalf("expected BL_2020_1, got %q", want)
	}
}

func TestNormalizeDocket_RunsCollapse(t *testing.T) {
	if got := NormalizeDocket("4A__291//2017"); got != "4A_291_2017" {
		t.Fatalf("expected collapsed underscores, got %q", got)
	}
}

func TestDecisionID_Format(t *testing.T) {
	if got := DecisionID("BGer", "4A_291/2017"); got != "bger_4A_291_2017" {
		t.Fatalf("unexpected decision id: %q", got)
	}
}

func TestCanonicalKey_EmptyDateIsDistinctValue(t *testing.T) {
	withDate := CanonicalKey("bl_gerichte", "400.2020.1", "2020-05-01")
	withoutDate := CanonicalKey("bl_gerichte", "400.2020.1", "")
	if withDate == withoutDate {
		t.Fatal("a present date and an absent date must not collapse to the same canonical_key")
	}
}

func TestCanonicalKey_PureFunctionOfInputs(t *testing.T) {
	a := CanonicalKey("bger", "4A_291/2017", "2017-06-01")
	b := CanonicalKey("bger", "4A_291/2017", "2017-06-01")
	if a != b {
		t.Fatal("canonical_key must be a pure function of (court, docket, date)")
	}
}
