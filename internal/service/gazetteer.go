package service

import (
	"regexp"
	"sort"
	"strings"
)

// knownLocations is the gazetteer of recognized community names. Aliases
// map to a canonical name so "JBR" and "Jumeirah Beach Residence" produce
// the same constraint (and therefore the same cache key).
var knownLocations = map[string]string{
	"dubai marina":             "Dubai Marina",
	"marina":                   "Dubai Marina",
	"downtown dubai":           "Downtown Dubai",
	"downtown":                 "Downtown Dubai",
	"palm jumeirah":            "Palm Jumeirah",
	"the palm":                 "Palm Jumeirah",
	"jumeirah beach residence": "Jumeirah Beach Residence",
	"jbr":                      "Jumeirah Beach Residence",
	"business bay":             "Business Bay",
	"jumeirah village circle":  "Jumeirah Village Circle",
	"jvc":                      "Jumeirah Village Circle",
	"jumeirah lake towers":     "Jumeirah Lake Towers",
	"jlt":                      "Jumeirah Lake Towers",
	"arabian ranches":          "Arabian Ranches",
	"dubai hills":              "Dubai Hills Estate",
	"dubai hills estate":       "Dubai Hills Estate",
	"difc":                     "DIFC",
	"deira":                    "Deira",
	"mirdif":                   "Mirdif",
	"al barsha":                "Al Barsha",
	"dubai creek harbour":      "Dubai Creek Harbour",
	"creek harbour":            "Dubai Creek Harbour",
	"bluewaters":               "Bluewaters Island",
	"city walk":                "City Walk",
	"dubai south":              "Dubai South",
	"damac hills":              "DAMAC Hills",
	"emirates hills":           "Emirates Hills",
	"the springs":              "The Springs",
	"the meadows":              "The Meadows",
	"motor city":               "Motor City",
	"sports city":              "Dubai Sports City",
	"silicon oasis":            "Dubai Silicon Oasis",
	"international city":       "International City",
	"discovery gardens":        "Discovery Gardens",
	"al furjan":                "Al Furjan",
	"town square":              "Town Square",
	"mbr city":                 "MBR City",
	"za'abeel":                 "Zabeel",
	"zabeel":                   "Zabeel",
}

// propertyTypeSynonyms maps surface forms to canonical property types.
// Checked in order; more specific forms come first.
var propertyTypeSynonyms = []struct {
	Canonical string
	Pattern   *regexp.Regexp
}{
	{"penthouse", regexp.MustCompile(`(?i)\bpenthouses?\b`)},
	{"townhouse", regexp.MustCompile(`(?i)\btown\s?houses?\b`)},
	{"villa", regexp.MustCompile(`(?i)\bvillas?\b`)},
	{"studio", regexp.MustCompile(`(?i)\bstudios?\b`)},
	{"duplex", regexp.MustCompile(`(?i)\bduplex(?:es)?\b`)},
	{"plot", regexp.MustCompile(`(?i)\bplots?\b|\bland\b`)},
	{"office", regexp.MustCompile(`(?i)\boffices?\b`)},
	{"apartment", regexp.MustCompile(`(?i)\bapartments?\b|\bflats?\b|\bapt\b|\bcondos?\b`)},
}

// locationPatterns holds one compiled pattern per gazetteer alias, longest
// alias first so "dubai marina" wins over "marina".
var locationPatterns = buildLocationPatterns()

type locationPattern struct {
	Canonical string
	Pattern   *regexp.Regexp
}

func buildLocationPatterns() []locationPattern {
	aliases := make([]string, 0, len(knownLocations))
	for alias := range knownLocations {
		aliases = append(aliases, alias)
	}
	// Longest first; ties alphabetical so iteration order is fixed.
	sort.Slice(aliases, func(i, j int) bool {
		if len(aliases[i]) != len(aliases[j]) {
			return len(aliases[i]) > len(aliases[j])
		}
		return aliases[i] < aliases[j]
	})

	patterns := make([]locationPattern, 0, len(aliases))
	for _, alias := range aliases {
		patterns = append(patterns, locationPattern{
			Canonical: knownLocations[alias],
			Pattern:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(alias) + `\b`),
		})
	}
	return patterns
}

// residualStopwords are dropped from the free-text residual after entity
// extraction; they carry no semantic signal on their own.
var residualStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "in": true, "at": true, "on": true,
	"for": true, "with": true, "and": true, "or": true, "of": true, "to": true,
	"me": true, "i": true, "my": true, "show": true, "find": true, "get": true,
	"want": true, "need": true, "looking": true, "please": true, "some": true,
}

func stripStopwords(text string) string {
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, f := range fields {
		if !residualStopwords[strings.ToLower(f)] {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}
