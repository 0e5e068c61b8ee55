// Package wildcard matches an OASIS FNAME.FTYPE against a */? pattern,
// case-insensitively, as used by erase/rename/extract's pattern resolution.
package wildcard

import "strings"

// MatchAll is the pattern that matches every file: an empty, "*", or
// "*.*" pattern argument all mean "every file".
const MatchAll = "*"

// Match reports whether name (an "FNAME.FTYPE" string) matches pattern.
// Matching is case-insensitive and "*"/"?" behave component-wise: a pattern
// with no '.' matches against the whole name verbatim (so a bare "*" matches
// everything, and "FOO*" matches any type). A pattern containing '.' splits
// both name and pattern on the first '.' and matches each half separately,
// the way an 8.3-style DOS wildcard does.
func Match(name, pattern string) bool {
	if pattern == "" || pattern == MatchAll || pattern == "*.*" {
		return true
	}

	name = strings.ToUpper(name)
	pattern = strings.ToUpper(pattern)

	pDot := strings.IndexByte(pattern, '.')
	if pDot < 0 {
		return globMatch(name, pattern)
	}

	nDot := strings.IndexByte(name, '.')
	var nBase, nType string
	if nDot < 0 {
		nBase, nType = name, ""
	} else {
		nBase, nType = name[:nDot], name[nDot+1:]
	}

	pBase, pType := pattern[:pDot], pattern[pDot+1:]

	return globMatch(nBase, pBase) && globMatch(nType, pType)
}

// globMatch implements classic */? glob matching over two plain strings
// (no path separators, no case folding -- callers already upcased).
func globMatch(s, pattern string) bool {
	return globMatchRec(s, pattern)
}

func globMatchRec(s, pattern string) bool {
	if pattern == "" {
		return s == ""
	}

	if pattern[0] == '*' {
		// Try consuming zero or more characters of s.
		if globMatchRec(s, pattern[1:]) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if globMatchRec(s[i+1:], pattern[1:]) {
				return true
			}
		}
		return false
	}

	if s == "" {
		return false
	}

	if pattern[0] == '?' || pattern[0] == s[0] {
		return globMatchRec(s[1:], pattern[1:])
	}

	return false
}
