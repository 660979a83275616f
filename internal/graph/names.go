package graph

import "regexp"

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.~@-]+$`)

// ValidName reports whether s may name an entry or a chunk. Names end up
// inside output paths, so they must be a single path element.
func ValidName(s string) bool {
	return s != "." && s != ".." && namePattern.MatchString(s)
}

// SanitizeName maps s onto the characters ValidName accepts, replacing
// anything else with '_'.
func SanitizeName(s string) string {
	if ValidName(s) {
		return s
	}
	b := []byte(s)
	for i, c := range b {
		if !namePattern.Match([]byte{c}) {
			b[i] = '_'
		}
	}
	out := string(b)
	if !ValidName(out) {
		return "_" + out
	}
	return out
}
