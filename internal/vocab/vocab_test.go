package vocab

import (
	"testing"
)

func TestExtractDomainAndGenericTerms(t *testing.T) {
	v := Default()

	terms := v.Extract("streetlight broken near Chakrata")

	assertContains(t, terms, "streetlight")
	assertContains(t, terms, "broken")
	assertContains(t, terms, "chakrata")
	assertNotContains(t, terms, "near") // stop word
}

func TestExtractEmptyAndStopwordQueries(t *testing.T) {
	v := Default()

	if terms := v.Extract(""); len(terms) != 0 {
		t.Errorf("Expected no terms for empty query, got %v", terms)
	}
	if terms := v.Extract("is a an to"); len(terms) != 0 {
		t.Errorf("Expected no terms for all-stopword query, got %v", terms)
	}
	if terms := v.Extract("what where how"); len(terms) != 0 {
		t.Errorf("Expected no terms for interrogative-only query, got %v", terms)
	}
}

func TestExtractDeduplicationIsOrderInsensitive(t *testing.T) {
	v := Default()

	a := v.Extract("pothole pothole road")
	b := v.Extract("road pothole")

	if !sameSet(a, b) {
		t.Errorf("Expected identical term sets, got %v and %v", a, b)
	}
	if countOf(a, "pothole") != 1 {
		t.Errorf("Expected pothole deduplicated, got %v", a)
	}
}

func TestExtractStripsPunctuationAndShortWords(t *testing.T) {
	v := Default()

	terms := v.Extract("leak!! at my home, ok?")

	assertContains(t, terms, "leak")
	assertContains(t, terms, "home")
	assertNotContains(t, terms, "my") // under 3 characters
	assertNotContains(t, terms, "ok")
}

func TestFamilies(t *testing.T) {
	v := Default()

	families := v.Families("streetlight flickering and garbage everywhere")
	assertContains(t, families, "streetlight")
	assertContains(t, families, "waste")
	assertNotContains(t, families, "water")

	if got := v.Families("hello world"); len(got) != 0 {
		t.Errorf("Expected no families, got %v", got)
	}
}

func TestStatusIntent(t *testing.T) {
	v := Default()

	tests := []struct {
		query string
		want  bool
	}{
		{"my latest report", true},
		{"how many issues did I submit", true},
		{"status of the drainage work", true},
		{"pothole on the main junction", false},
	}

	for _, tt := range tests {
		if got := v.HasStatusIntent(tt.query); got != tt.want {
			t.Errorf("HasStatusIntent(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestKnownPlace(t *testing.T) {
	v := Default()

	if !v.KnownPlace("Chakrata Road") {
		t.Error("Expected Chakrata Road to be a known place")
	}
	if v.KnownPlace("somewhere else entirely") {
		t.Error("Expected unknown place to not match the gazetteer")
	}
}

func assertContains(t *testing.T, terms []string, want string) {
	t.Helper()
	for _, term := range terms {
		if term == want {
			return
		}
	}
	t.Errorf("Expected %q in %v", want, terms)
}

func assertNotContains(t *testing.T, terms []string, unwanted string) {
	t.Helper()
	for _, term := range terms {
		if term == unwanted {
			t.Errorf("Did not expect %q in %v", unwanted, terms)
		}
	}
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}

func countOf(terms []string, want string) int {
	n := 0
	for _, term := range terms {
		if term == want {
			n++
		}
	}
	return n
}
