// Package pbxproj edits Xcode project files as an object graph.
//
// A project.pbxproj is an OpenStep property list whose "objects" dictionary
// maps 24-hex IDs to objects that reference each other by ID. Project keeps
// that graph in memory, exposes idempotent edits on it (build phases, groups,
// file membership, build settings), and serializes the whole graph back in
// Xcode's own layout. Nothing reaches disk until Patch.
package pbxproj

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"
	"howett.net/plist"

	"github.com/embrace-io/embrace-wizard/internal/textpatch"
)

var (
	// ErrProjectNotFound is returned when the .pbxproj file does not exist.
	ErrProjectNotFound = errors.New("cannot find Xcode project")
	// ErrMalformedProject is returned when the file is not a valid project graph.
	ErrMalformedProject = errors.New("malformed Xcode project")
	// ErrTargetNotFound is returned when no native target has the requested name.
	ErrTargetNotFound = errors.New("target not found")
	// ErrConfigListUnresolved is returned when a target's build configuration
	// list, or one of its configurations, is missing from the graph.
	ErrConfigListUnresolved = errors.New("build configuration list cannot be resolved")
)

// Object is one entry of the objects dictionary. Values are strings,
// []any lists, or nested map[string]any dictionaries.
type Object map[string]any

// Isa returns the object's class name.
func (o Object) Isa() string { return o.str("isa") }

func (o Object) str(key string) string {
	switch v := o[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (o Object) list(key string) []string {
	return stringList(o[key])
}

func (o Object) setList(key string, ids []string) {
	l := make([]any, len(ids))
	for i, id := range ids {
		l[i] = id
	}
	o[key] = l
}

func stringList(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		} else {
			out = append(out, fmt.Sprint(item))
		}
	}
	return out
}

// Project is a parsed project.pbxproj.
type Project struct {
	// Path is the project.pbxproj file.
	Path string

	root     map[string]any
	objects  map[string]Object
	original []byte
}

// Open reads and parses the project file at path.
func Open(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrProjectNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse builds a Project from the contents of a project.pbxproj. No partial
// graph is returned on error.
func Parse(path string, data []byte) (*Project, error) {
	var root map[string]any
	if _, err := plist.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedProject, path, err)
	}
	rawObjects, ok := root["objects"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: missing objects dictionary", ErrMalformedProject, path)
	}
	if _, ok := root["rootObject"].(string); !ok {
		return nil, fmt.Errorf("%w: %s: missing rootObject", ErrMalformedProject, path)
	}

	objects := make(map[string]Object, len(rawObjects))
	for id, v := range rawObjects {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s: object %s is not a dictionary", ErrMalformedProject, path, id)
		}
		if _, ok := m["isa"].(string); !ok {
			return nil, fmt.Errorf("%w: %s: object %s has no isa", ErrMalformedProject, path, id)
		}
		objects[id] = Object(m)
	}
	root["objects"] = nil

	return &Project{
		Path:     path,
		root:     root,
		objects:  objects,
		original: data,
	}, nil
}

// Name returns the project name taken from the enclosing .xcodeproj directory.
func (p *Project) Name() string {
	return strings.TrimSuffix(filepath.Base(filepath.Dir(p.Path)), ".xcodeproj")
}

// SourceRoot returns the directory containing the .xcodeproj bundle, the
// directory Xcode calls $(SRCROOT).
func (p *Project) SourceRoot() string {
	return filepath.Dir(filepath.Dir(p.Path))
}

// Object returns the object with the given ID, or nil.
func (p *Project) Object(id string) Object {
	return p.objects[id]
}

// Section returns the IDs of every object with the given isa, sorted.
func (p *Project) Section(isa string) []string {
	var ids []string
	for id, o := range p.objects {
		if o.Isa() == isa {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// TargetNames returns the names of all native targets.
func (p *Project) TargetNames() []string {
	var names []string
	for _, id := range p.Section("PBXNativeTarget") {
		names = append(names, p.objects[id].str("name"))
	}
	return names
}

// targetByName returns the native target named name.
func (p *Project) targetByName(name string) (string, Object) {
	for _, id := range p.Section("PBXNativeTarget") {
		if o := p.objects[id]; o.str("name") == name {
			return id, o
		}
	}
	return "", nil
}

// groupByName returns the group whose name, or path when it has no name,
// equals name.
func (p *Project) groupByName(name string) (string, Object) {
	for _, id := range p.Section("PBXGroup") {
		o := p.objects[id]
		label := o.str("name")
		if label == "" {
			label = o.str("path")
		}
		if label == name {
			return id, o
		}
	}
	return "", nil
}

// newID returns a fresh object ID in Xcode's 24 uppercase hex digit form.
func (p *Project) newID() string {
	for {
		id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:24]
		if _, taken := p.objects[id]; !taken {
			return id
		}
	}
}

// Diff returns a unified diff between the file as read and the graph as it
// would be written now.
func (p *Project) Diff() string {
	out := p.Bytes()
	if string(out) == string(p.original) {
		return ""
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(p.original)),
		B:        difflib.SplitLines(string(out)),
		FromFile: p.Path,
		ToFile:   p.Path,
		Context:  2,
	}
	diff, _ := difflib.GetUnifiedDiffString(ud)
	return diff
}

// Modified reports whether the graph would serialize differently from the
// file as read.
func (p *Project) Modified() bool {
	return string(p.Bytes()) != string(p.original)
}

// Baseline makes the current graph the reference for Diff without writing.
func (p *Project) Baseline() { p.original = p.Bytes() }

// Patch serializes the graph and replaces the project file atomically.
func (p *Project) Patch() error {
	out := p.Bytes()
	if err := textpatch.WriteFileAtomic(p.Path, out, 0o644); err != nil {
		return err
	}
	p.original = out
	return nil
}
