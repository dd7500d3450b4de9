// Package ingredient canonicalizes raw ingredient labels so that culinarily
// equivalent spellings ("Tomatoes", " tomato ") collapse to a single token.
package ingredient

import "strings"

// defaultSynonyms maps known spellings to their canonical ingredient name.
// Lookup happens on the exact lowercased label before suffix stripping, so
// plural keys like "tomatoes" win over the naive singularizer.
var defaultSynonyms = map[string]string{
	"tomatoes":       "tomato",
	"tomatoe":        "tomato",
	"onions":         "onion",
	"garlics":        "garlic",
	"potatoes":       "potato",
	"chillies":       "chili",
	"chilies":        "chili",
	"capsicum":       "bell pepper",
	"green capsicum": "bell pepper",
	"red capsicum":   "bell pepper",
	"yoghurt":        "yogurt",
	"curd":           "yogurt",
}

// Normalize canonicalizes raw labels into a deduplicated set of tokens using
// the default synonym table. Output order is unspecified; callers must treat
// the result as a set.
func Normalize(rawLabels []string) []string {
	return NormalizeWith(rawLabels, defaultSynonyms)
}

// NormalizeWith is Normalize with an explicit synonym table, for tests and
// callers that need a custom mapping.
func NormalizeWith(rawLabels []string, synonyms map[string]string) []string {
	seen := make(map[string]struct{}, len(rawLabels))
	out := make([]string, 0, len(rawLabels))

	for _, label := range rawLabels {
		norm := normalizeOne(label, synonyms)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}

	return out
}

// NormalizeSet returns the normalized tokens as a membership set.
func NormalizeSet(rawLabels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(rawLabels))
	for _, token := range Normalize(rawLabels) {
		set[token] = struct{}{}
	}
	return set
}

func normalizeOne(raw string, synonyms map[string]string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return ""
	}

	// The synonym table is consulted with the full lowercased label first; a
	// hit there beats suffix stripping. Otherwise plurals are reduced with a
	// naive "es"/"s" strip. The heuristic mis-stems irregular words ("gas"
	// becomes "ga"); downstream synonym entries rely on the current behavior,
	// so it stays as is.
	if mapped, ok := synonyms[name]; ok {
		name = mapped
	} else if strings.HasSuffix(name, "es") {
		name = name[:len(name)-2]
	} else if strings.HasSuffix(name, "s") {
		name = name[:len(name)-1]
	}

	name = trimEdges(name)
	return name
}

// trimEdges strips leading/trailing characters that are not ASCII letters or
// digits (commas, dots and other punctuation picked up from label text).
func trimEdges(s string) string {
	start := 0
	for start < len(s) && !isAlnum(s[start]) {
		start++
	}
	end := len(s)
	for end > start && !isAlnum(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
