// Package patch describes what the wizard inserts into native files and
// applies those descriptions through the textpatch and pbxproj primitives.
//
// An EditIntent is pure data. Rendering it against a file yields the exact
// block to insert; the same intent also yields the expression that removes
// that block again, so install and uninstall cannot drift apart.
package patch

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/embrace-io/embrace-wizard/internal/textpatch"
)

// ErrAnchorNotFound is wrapped by Result.Err when an intent's anchor is
// missing from the file.
var ErrAnchorNotFound = errors.New("anchor not found")

// Order says which side of the anchor a block goes.
type Order string

const (
	After  Order = "after"
	Before Order = "before"
)

// Blank says where a block is padded with an empty line.
type Blank string

const (
	BlankNone   Blank = "none"
	BlankBefore Blank = "before"
	BlankAfter  Blank = "after"
	BlankBoth   Blank = "both"
)

// Indent selects where a block takes its indentation from.
type Indent string

const (
	// IndentAnchor copies the indentation of the anchor's line.
	IndentAnchor Indent = "anchor"
	// IndentBody copies the indentation of the first non-blank line after
	// the anchor, i.e. the body of the block the anchor opens.
	IndentBody Indent = "body"
	// IndentCapture uses the anchor's leading (\s+) group verbatim.
	IndentCapture Indent = "capture"
)

// Vars fill ${name} placeholders in intent lines.
type Vars map[string]string

var placeholder = regexp.MustCompile(`\$\{([a-z][a-z0-9_]*)\}`)

// expand substitutes known placeholders and leaves everything else, shell
// variables included, untouched.
func (v Vars) expand(s string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		if val, ok := v[m[2:len(m)-1]]; ok {
			return val
		}
		return m
	})
}

// EditIntent is one insertion: lines placed before or after an anchor.
type EditIntent struct {
	Anchor string   `yaml:"anchor"`
	Lines  []string `yaml:"lines"`
	Order  Order    `yaml:"order"`
	Blank  Blank    `yaml:"blank"`
	Indent Indent   `yaml:"indent"`

	anchor textpatch.Anchor
}

// compile validates the intent and fills in defaults.
func (e *EditIntent) compile() error {
	a, err := textpatch.ParseAnchor(e.Anchor)
	if err != nil {
		return err
	}
	e.anchor = a
	if len(e.Lines) == 0 {
		return fmt.Errorf("anchor %s: no lines", e.Anchor)
	}
	if e.Order == "" {
		e.Order = After
	}
	if e.Blank == "" {
		e.Blank = BlankNone
	}
	if e.Indent == "" {
		e.Indent = IndentAnchor
	}
	switch e.Order {
	case After, Before:
	default:
		return fmt.Errorf("anchor %s: unknown order %q", e.Anchor, e.Order)
	}
	switch e.Blank {
	case BlankNone, BlankBefore, BlankAfter, BlankBoth:
	default:
		return fmt.Errorf("anchor %s: unknown blank policy %q", e.Anchor, e.Blank)
	}
	switch e.Indent {
	case IndentAnchor, IndentBody:
		if a.IsRegexp() && strings.HasPrefix(a.Regexp().String(), `(\s`) {
			return fmt.Errorf("anchor %s: leading whitespace group requires indent: capture", e.Anchor)
		}
	case IndentCapture:
		if !a.IsRegexp() || a.Regexp().NumSubexp() < 1 {
			return fmt.Errorf("anchor %s: indent capture needs a regex with a (\\s+) group", e.Anchor)
		}
		if e.Blank != BlankNone || e.Order != After {
			return fmt.Errorf("anchor %s: indent capture only supports order after without blank lines", e.Anchor)
		}
	default:
		return fmt.Errorf("anchor %s: unknown indent %q", e.Anchor, e.Indent)
	}
	return nil
}

// NewIntent builds and validates an intent outside the catalog.
func NewIntent(anchor string, order Order, blank Blank, indent Indent, lines ...string) (EditIntent, error) {
	e := EditIntent{Anchor: anchor, Lines: lines, Order: order, Blank: blank, Indent: indent}
	if err := e.compile(); err != nil {
		return EditIntent{}, err
	}
	return e, nil
}

func (e *EditIntent) blankBefore() bool { return e.Blank == BlankBefore || e.Blank == BlankBoth }
func (e *EditIntent) blankAfter() bool  { return e.Blank == BlankAfter || e.Blank == BlankBoth }

func (e *EditIntent) lines(vars Vars) []string {
	out := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		out[i] = vars.expand(l)
	}
	return out
}

// expr returns the anchor as a regular expression source.
func (e *EditIntent) expr() string {
	if e.anchor.IsRegexp() {
		return e.anchor.Regexp().String()
	}
	return regexp.QuoteMeta(e.anchor.String())
}

// Render returns the text that Apply would insert into f, and the anchor
// it is inserted against. ok is false when the anchor is absent.
func (e *EditIntent) Render(f *textpatch.File, vars Vars) (block string, at textpatch.Anchor, ok bool) {
	if !f.HasLine(e.anchor) {
		return "", e.anchor, false
	}
	lines := e.lines(vars)
	var b strings.Builder

	if e.Indent == IndentCapture {
		m := e.anchor.Regexp().FindStringSubmatch(f.Contents())
		b.WriteString(lines[0])
		for _, l := range lines[1:] {
			b.WriteString(m[1] + l)
		}
		return b.String(), e.anchor, true
	}

	indent := f.PaddingAt(e.anchor)
	if e.Indent == IndentBody {
		indent = f.PaddingAfterStringToTheNextString(e.anchor)
	}

	if e.blankBefore() {
		b.WriteString("\n")
	}
	if e.Order == Before {
		for _, l := range lines {
			b.WriteString(indent + l + "\n")
		}
	} else {
		for _, l := range lines {
			b.WriteString("\n" + indent + l)
		}
	}
	if e.blankAfter() {
		b.WriteString("\n")
	}

	if e.Order == Before {
		return b.String(), textpatch.MustRegexp(`(?m)^[ \t]*(?:` + e.expr() + `)`), true
	}
	return b.String(), e.anchor, true
}

// linePattern quotes l for a regex. Placeholders with a value in vars match
// that value only; the rest become a wildcard, so a block inserted with a
// value the caller does not know, such as an older plugin version, is still
// recognised.
func linePattern(l string, vars Vars) string {
	var b strings.Builder
	last := 0
	for _, loc := range placeholder.FindAllStringSubmatchIndex(l, -1) {
		b.WriteString(regexp.QuoteMeta(l[last:loc[0]]))
		if val, ok := vars[l[loc[2]:loc[3]]]; ok {
			b.WriteString(regexp.QuoteMeta(val))
		} else {
			b.WriteString(`[^\n]*?`)
		}
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(l[last:]))
	return b.String()
}

// Removal returns the expression matching exactly what Render inserts with
// vars. With loose set the blank-line padding is left out of the expression.
func (e *EditIntent) Removal(loose bool, vars Vars) *regexp.Regexp {
	var b strings.Builder
	bb, ba := e.blankBefore() && !loose, e.blankAfter() && !loose

	switch {
	case e.Indent == IndentCapture:
		for _, l := range e.Lines {
			b.WriteString(`\s+` + linePattern(l, vars))
		}
	case e.Order == Before:
		b.WriteString(`(?m)^`)
		if bb {
			b.WriteString(`\n`)
		}
		for _, l := range e.Lines {
			b.WriteString(`[ \t]*` + linePattern(l, vars) + `\n`)
		}
		if ba {
			b.WriteString(`\n`)
		}
	default:
		b.WriteString(`(?m)`)
		if bb {
			b.WriteString(`\n`)
		}
		for _, l := range e.Lines {
			b.WriteString(`\n[ \t]*` + linePattern(l, vars))
		}
		if ba {
			b.WriteString(`\n`)
		} else {
			b.WriteString(`$`)
		}
	}
	return regexp.MustCompile(b.String())
}

// Present reports whether the block is already in f, either as inserted
// or with every line present verbatim. Placeholders missing from vars match
// any value.
func (e *EditIntent) Present(f *textpatch.File, vars Vars) bool {
	if e.Removal(true, vars).MatchString(f.Contents()) {
		return true
	}
	for _, l := range e.lines(vars) {
		if !f.HasLine(textpatch.Literal(l)) {
			return false
		}
	}
	return true
}

// Result summarises an Apply or Unapply.
type Result struct {
	// Changed is true when the contents were modified.
	Changed bool
	// Missing lists the anchors that were not found.
	Missing []string
}

// Err returns an error wrapping ErrAnchorNotFound when anchors were missing.
func (r Result) Err() error {
	if len(r.Missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrAnchorNotFound, strings.Join(r.Missing, ", "))
}

// Apply inserts every intent that is not already present. Intents whose
// anchor is absent are reported in Missing and leave f untouched.
func Apply(f *textpatch.File, intents []EditIntent, vars Vars) Result {
	var r Result
	for i := range intents {
		e := &intents[i]
		if e.Present(f, vars) {
			continue
		}
		block, at, ok := e.Render(f, vars)
		if !ok {
			r.Missing = append(r.Missing, e.Anchor)
			continue
		}
		var done bool
		if e.Order == Before {
			done = f.AddBefore(at, block)
		} else {
			done = f.AddAfter(at, block)
		}
		if !done {
			// a before-anchor must start its line
			r.Missing = append(r.Missing, e.Anchor)
			continue
		}
		r.Changed = true
	}
	return r
}

// Unapply removes what Apply inserted with vars, last intent first. It never
// fails: intents whose block is absent are skipped.
func Unapply(f *textpatch.File, intents []EditIntent, vars Vars) Result {
	var r Result
	for i := len(intents) - 1; i >= 0; i-- {
		e := &intents[i]
		if f.DeleteLine(textpatch.Regexp(e.Removal(false, vars))) {
			r.Changed = true
			continue
		}
		if e.Blank != BlankNone && f.DeleteLine(textpatch.Regexp(e.Removal(true, vars))) {
			r.Changed = true
		}
	}
	return r
}
