// Package vocab holds the fixed term sets the search layer depends on:
// the infrastructure vocabulary grouped by family, stop words, the
// gazetteer of known place names, and the intent term sets. Defaults
// are compiled in; a YAML file can extend or replace any list without
// a code change.
package vocab

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// familyOrder fixes iteration order over families so extraction and
// family matching are deterministic.
var familyOrder = []string{"streetlight", "road", "water", "electricity", "waste"}

var defaultFamilies = map[string][]string{
	"streetlight": {"streetlight", "street light", "lamp", "light pole", "bulb", "dark street"},
	"road":        {"pothole", "road", "pavement", "speed breaker", "footpath", "crack", "manhole"},
	"water":       {"drainage", "drain", "sewage", "leak", "pipeline", "water supply", "waterlogging", "overflow"},
	"electricity": {"transformer", "power", "electric", "wire", "voltage", "outage", "short circuit"},
	"waste":       {"garbage", "trash", "waste", "dustbin", "litter", "dump", "sanitation"},
}

// Generic condition/action terms that are domain-relevant but not tied
// to a single family.
var defaultConditions = []string{
	"broken", "damaged", "repair", "fixed", "blocked", "overflowing",
	"flickering", "missing", "unsafe", "hazard",
}

var defaultStopwords = []string{
	"the", "and", "for", "are", "was", "were", "been", "have", "has",
	"had", "does", "did", "will", "would", "could", "should", "can",
	"what", "when", "where", "which", "who", "whom", "why", "how",
	"this", "that", "these", "those", "there", "here", "with", "from",
	"about", "into", "over", "under", "some", "any", "all", "many",
	"much", "please", "near", "around",
}

var defaultPlaces = []string{
	"chakrata", "rajpur", "clock tower", "paltan bazaar", "ballupur",
	"clement town", "patel nagar", "dalanwala", "raipur", "mussoorie",
	"sahastradhara", "prem nagar",
}

var defaultStatusIntent = []string{
	"status", "latest", "recent", "my", "how many", "submitted",
	"pending", "resolved", "completed",
}

var defaultActive = []string{"active", "ongoing", "current", "recent"}

// Vocabulary is immutable once built; safe for unsynchronized
// concurrent reads.
type Vocabulary struct {
	families     map[string][]string
	conditions   []string
	stopwords    map[string]struct{}
	places       []string
	statusIntent []string
	active       []string
}

// Default returns the compiled-in vocabulary.
func Default() *Vocabulary {
	return build(defaultFamilies, defaultConditions, defaultStopwords, defaultPlaces, defaultStatusIntent, defaultActive)
}

// fileSpec mirrors the YAML override file layout. Only provided keys
// replace the corresponding default list.
type fileSpec struct {
	Families     map[string][]string `koanf:"families"`
	Conditions   []string            `koanf:"conditions"`
	Stopwords    []string            `koanf:"stopwords"`
	Places       []string            `koanf:"places"`
	StatusIntent []string            `koanf:"status_intent"`
	Active       []string            `koanf:"active"`
}

// Load reads a YAML vocabulary file and overlays it on the defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (*Vocabulary, error) {
	if path == "" {
		return Default(), nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load vocabulary file %s: %w", path, err)
	}

	var spec fileSpec
	if err := k.Unmarshal("", &spec); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file %s: %w", path, err)
	}

	families := defaultFamilies
	if len(spec.Families) > 0 {
		families = spec.Families
	}
	conditions := defaultConditions
	if len(spec.Conditions) > 0 {
		conditions = spec.Conditions
	}
	stopwords := defaultStopwords
	if len(spec.Stopwords) > 0 {
		stopwords = spec.Stopwords
	}
	places := defaultPlaces
	if len(spec.Places) > 0 {
		places = spec.Places
	}
	statusIntent := defaultStatusIntent
	if len(spec.StatusIntent) > 0 {
		statusIntent = spec.StatusIntent
	}
	active := defaultActive
	if len(spec.Active) > 0 {
		active = spec.Active
	}

	return build(families, conditions, stopwords, places, statusIntent, active), nil
}

func build(families map[string][]string, conditions, stopwords, places, statusIntent, active []string) *Vocabulary {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}

	lowered := make(map[string][]string, len(families))
	for family, terms := range families {
		ts := make([]string, len(terms))
		for i, t := range terms {
			ts[i] = strings.ToLower(t)
		}
		lowered[strings.ToLower(family)] = ts
	}

	return &Vocabulary{
		families:     lowered,
		conditions:   lowerAll(conditions),
		stopwords:    stops,
		places:       lowerAll(places),
		statusIntent: lowerAll(statusIntent),
		active:       lowerAll(active),
	}
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// Extract returns the deduplicated lowercase search terms for a query:
// vocabulary terms found by substring match, unioned with tokenized
// words that survive the length and stop-word filters. An empty or
// all-stopword query yields an empty list; callers treat that as "no
// constraint" and fall back to the raw query string.
func (v *Vocabulary) Extract(query string) []string {
	q := strings.ToLower(query)
	var terms []string
	seen := make(map[string]struct{})

	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}

	for _, family := range v.familyNames() {
		for _, term := range v.families[family] {
			if strings.Contains(q, term) {
				add(term)
			}
		}
	}
	for _, term := range v.conditions {
		if strings.Contains(q, term) {
			add(term)
		}
	}

	for _, word := range tokenize(q) {
		if len(word) < 3 {
			continue
		}
		if _, stop := v.stopwords[word]; stop {
			continue
		}
		add(word)
	}

	return terms
}

// Families returns the infrastructure families whose terms (or name)
// appear in the text, in fixed family order.
func (v *Vocabulary) Families(text string) []string {
	t := strings.ToLower(text)
	var matched []string
	for _, family := range v.familyNames() {
		if v.FamilyMatches(family, t) {
			matched = append(matched, family)
		}
	}
	return matched
}

// FamilyMatches reports whether the family name or any of its terms
// appears in the text as a substring.
func (v *Vocabulary) FamilyMatches(family, text string) bool {
	t := strings.ToLower(text)
	if strings.Contains(t, family) {
		return true
	}
	for _, term := range v.families[family] {
		if strings.Contains(t, term) {
			return true
		}
	}
	return false
}

// HasStatusIntent reports whether the query is about the caller's own
// report inventory rather than report content.
func (v *Vocabulary) HasStatusIntent(query string) bool {
	return containsAnyTerm(query, v.statusIntent)
}

// HasActiveIntent reports whether the query asks about active or
// ongoing issues.
func (v *Vocabulary) HasActiveIntent(query string) bool {
	return containsAnyTerm(query, v.active)
}

// KnownPlace reports whether the text mentions a gazetteer place name.
func (v *Vocabulary) KnownPlace(text string) bool {
	t := strings.ToLower(text)
	for _, place := range v.places {
		if strings.Contains(t, place) {
			return true
		}
	}
	return false
}

func (v *Vocabulary) familyNames() []string {
	// Known families come first in the fixed order; file-supplied
	// extras follow alphabetic map-independent order via the sorted
	// remainder.
	names := make([]string, 0, len(v.families))
	seen := make(map[string]struct{})
	for _, f := range familyOrder {
		if _, ok := v.families[f]; ok {
			names = append(names, f)
			seen[f] = struct{}{}
		}
	}
	var extras []string
	for f := range v.families {
		if _, ok := seen[f]; !ok {
			extras = append(extras, f)
		}
	}
	sort.Strings(extras)
	return append(names, extras...)
}

func containsAnyTerm(text string, terms []string) bool {
	t := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(t, term) {
			return true
		}
	}
	return false
}

// tokenize splits on anything that is not a letter or digit, which
// also strips punctuation.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
