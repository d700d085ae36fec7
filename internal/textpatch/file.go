// Package textpatch edits native source files as plain text.
//
// A File holds one file's contents in memory. The edit primitives locate an
// Anchor, insert or remove text at the first match, and never touch disk;
// Patch writes the result back in a single atomic replace. The package knows
// how to insert, never what to insert.
package textpatch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// ErrFileNotFound is returned by Open when the path does not exist.
var ErrFileNotFound = errors.New("cannot find file")

// File is an in-memory snapshot of a source file plus the edits applied to it.
type File struct {
	Path     string
	contents string
	original string
	perm     fs.FileMode
	// created is set until a file that does not exist yet is written.
	created bool
}

// Open reads path into a File. A missing file yields an error wrapping
// ErrFileNotFound with the path in the message.
func Open(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w at %s: path is a directory", ErrFileNotFound, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &File{
		Path:     path,
		contents: string(data),
		original: string(data),
		perm:     info.Mode().Perm(),
	}, nil
}

// Create returns a File that does not exist on disk yet. It counts as
// modified until it is written, even when contents is empty. It is used for
// files the wizard adds, such as embrace-config.json.
func Create(path, contents string) *File {
	return &File{Path: path, contents: contents, perm: 0o644, created: true}
}

// FromString returns an unmodified File holding contents, as if contents
// had just been read from path. It never touches disk.
func FromString(path, contents string) *File {
	return &File{Path: path, contents: contents, original: contents, perm: 0o644}
}

// Created reports whether the file is new and not written yet.
func (f *File) Created() bool { return f.created }

// Contents returns the current in-memory text.
func (f *File) Contents() string { return f.contents }

// SetContents replaces the whole text.
func (f *File) SetContents(s string) { f.contents = s }

// Modified reports whether the contents differ from what was read, or the
// file has yet to be created.
func (f *File) Modified() bool { return f.created || f.contents != f.original }

// HasLine reports whether the anchor matches anywhere in the contents.
func (f *File) HasLine(a Anchor) bool {
	return a.MatchString(f.contents)
}

// AddAfter inserts text right after the first match of a. When a is a
// regex whose first group captures the whitespace leading the match, that
// whitespace is repeated between the match and text so the new line lines
// up with the anchor. Returns false and leaves the contents alone when the
// anchor is absent.
func (f *File) AddAfter(a Anchor, text string) bool {
	loc, ok := a.find(f.contents)
	if !ok {
		return false
	}
	insert := leadingWhitespace(f.contents, loc) + text
	f.contents = f.contents[:loc[1]] + insert + f.contents[loc[1]:]
	return true
}

// AddBefore inserts text right before the first match of a.
func (f *File) AddBefore(a Anchor, text string) bool {
	loc, ok := a.find(f.contents)
	if !ok {
		return false
	}
	f.contents = f.contents[:loc[0]] + text + f.contents[loc[0]:]
	return true
}

// DeleteLine removes the first match of a. An absent anchor is not an error;
// the return value only says whether something was removed.
func (f *File) DeleteLine(a Anchor) bool {
	loc, ok := a.find(f.contents)
	if !ok {
		return false
	}
	f.contents = f.contents[:loc[0]] + f.contents[loc[1]:]
	return true
}

// PaddingFromString returns the horizontal whitespace between the previous
// newline and the first occurrence of literal.
func (f *File) PaddingFromString(literal string) string {
	i := strings.Index(f.contents, literal)
	if i < 0 {
		return ""
	}
	return paddingBefore(f.contents, i)
}

// PaddingAt is PaddingFromString for any anchor.
func (f *File) PaddingAt(a Anchor) string {
	loc, ok := a.find(f.contents)
	if !ok {
		return ""
	}
	return paddingBefore(f.contents, loc[0])
}

// PaddingAfterStringToTheNextString returns the indentation of the first
// non-blank line following the anchor's match. It is the indentation of
// the body of a block the anchor opens.
func (f *File) PaddingAfterStringToTheNextString(a Anchor) string {
	loc, ok := a.find(f.contents)
	if !ok {
		return ""
	}
	rest := f.contents[loc[1]:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return ""
	}
	for _, line := range strings.Split(rest[nl+1:], "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	}
	return ""
}

// paddingBefore scans back from i to the previous newline and returns the
// indentation of that line.
func paddingBefore(s string, i int) string {
	start := strings.LastIndexByte(s[:i], '\n') + 1
	pad := s[start:i]
	return pad[:len(pad)-len(strings.TrimLeft(pad, " \t"))]
}

// Diff returns a unified diff between the contents read from disk and the
// current contents. Empty when nothing changed.
func (f *File) Diff() string {
	if !f.Modified() {
		return ""
	}
	from := f.Path
	if f.created {
		from = "/dev/null"
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(f.original),
		B:        difflib.SplitLines(f.contents),
		FromFile: from,
		ToFile:   f.Path,
		Context:  2,
	}
	diff, _ := difflib.GetUnifiedDiffString(ud)
	return diff
}

// Baseline makes the current contents the reference for Diff and Modified
// without writing them.
func (f *File) Baseline() {
	f.original = f.contents
	f.created = false
}

// Patch writes the contents to Path, replacing the file atomically.
func (f *File) Patch() error {
	if err := WriteFileAtomic(f.Path, []byte(f.contents), f.perm); err != nil {
		return err
	}
	f.original = f.contents
	f.created = false
	return nil
}
