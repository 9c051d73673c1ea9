package analyzer

import "strings"

// Stem strips common English inflections so that related word forms share
// a term: "closed", "closes" and "close" all become "clos". It only needs
// to be consistent, not to produce dictionary words.
func Stem(word string) string {
	if len(word) <= 3 {
		return word
	}

	switch {
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		word = word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "ing") && len(word)-3 >= 3:
		word = undouble(word[:len(word)-3])
	case strings.HasSuffix(word, "ed") && len(word)-2 >= 3:
		word = undouble(word[:len(word)-2])
	case strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		word = word[:len(word)-1]
	}

	if strings.HasSuffix(word, "e") && len(word) > 3 {
		word = word[:len(word)-1]
	}
	return word
}

// undouble turns "runn" into "run" and "shipp" into "ship".
func undouble(stem string) string {
	n := len(stem)
	if n < 2 || stem[n-1] != stem[n-2] {
		return stem
	}
	switch stem[n-1] {
	case 'a', 'e', 'i', 'o', 'u', 'l', 's', 'z':
		return stem
	}
	return stem[:n-1]
}
