package textpatch

import (
	"fmt"
	"regexp"
	"strings"
)

// Anchor locates a point in a file's contents. It is either a literal
// substring or a regular expression. Edits act on the first match only.
type Anchor struct {
	literal string
	re      *regexp.Regexp
}

// Literal returns an anchor matching s verbatim.
func Literal(s string) Anchor {
	return Anchor{literal: s}
}

// Regexp returns an anchor matching re.
func Regexp(re *regexp.Regexp) Anchor {
	return Anchor{re: re}
}

// MustRegexp compiles expr and panics on error, like regexp.MustCompile.
func MustRegexp(expr string) Anchor {
	return Anchor{re: regexp.MustCompile(expr)}
}

// ParseAnchor interprets "/expr/" as a regular expression and anything
// else as a literal. This is the form used by the patch catalog.
func ParseAnchor(s string) (Anchor, error) {
	if len(s) >= 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") {
		re, err := regexp.Compile(s[1 : len(s)-1])
		if err != nil {
			return Anchor{}, fmt.Errorf("invalid anchor %s: %w", s, err)
		}
		return Anchor{re: re}, nil
	}
	if s == "" {
		return Anchor{}, fmt.Errorf("empty anchor")
	}
	return Anchor{literal: s}, nil
}

// IsRegexp reports whether the anchor is a regular expression.
func (a Anchor) IsRegexp() bool { return a.re != nil }

// Regexp returns the underlying expression, or nil for literal anchors.
func (a Anchor) Regexp() *regexp.Regexp { return a.re }

// String returns the literal text or the /expr/ form.
func (a Anchor) String() string {
	if a.re != nil {
		return "/" + a.re.String() + "/"
	}
	return a.literal
}

// MatchString reports whether s contains the anchor.
func (a Anchor) MatchString(s string) bool {
	if a.re != nil {
		return a.re.MatchString(s)
	}
	return a.literal != "" && strings.Contains(s, a.literal)
}

// find returns the byte span of the first match and any submatch spans
// (regex anchors only). ok is false when there is no match.
func (a Anchor) find(s string) (loc []int, ok bool) {
	if a.re != nil {
		loc = a.re.FindStringSubmatchIndex(s)
		return loc, loc != nil
	}
	if a.literal == "" {
		return nil, false
	}
	i := strings.Index(s, a.literal)
	if i < 0 {
		return nil, false
	}
	return []int{i, i + len(a.literal)}, true
}

// leadingWhitespace returns the first capture group when it is a run of
// whitespace starting at the beginning of the match. This is how regex
// anchors such as `(\s+)classpath ...` carry indentation into an insert.
func leadingWhitespace(s string, loc []int) string {
	if len(loc) < 4 || loc[2] != loc[0] || loc[3] <= loc[2] {
		return ""
	}
	g := s[loc[2]:loc[3]]
	if strings.TrimSpace(g) != "" {
		return ""
	}
	return g
}
