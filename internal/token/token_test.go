package token

import "testing"

func TestKeywordsRoundTrip(t *testing.T) {
	for spelling, kind := range keywords {
		if kind.String() != spelling {
			t.Errorf("%s.String() = %q", spelling, kind.String())
		}
		got, ok := LookupKeyword(spelling)
		if !ok || got != kind {
			t.Errorf("LookupKeyword(%q) = %v, %v", spelling, got, ok)
		}
	}
	if _, ok := LookupKeyword("func"); ok {
		t.Error("func is not a keyword")
	}
	if Kind(250).String() != "unknown" {
		t.Error("out of range kinds should stringify as unknown")
	}
}
