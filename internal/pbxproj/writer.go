package pbxproj

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// unquoted matches the strings Xcode writes without quotes.
var unquoted = regexp.MustCompile(`^[A-Za-z0-9_$./]+$`)

// plainIDKeys hold object IDs that Xcode writes without a comment.
var plainIDKeys = map[string]bool{
	"remoteGlobalIDString": true,
	"TestTargetID":         true,
}

// inlineIsa lists the classes Xcode writes on a single line.
var inlineIsa = map[string]bool{
	"PBXBuildFile":     true,
	"PBXFileReference": true,
}

// Bytes serializes the graph in Xcode's layout: objects grouped into
// sections by isa, sections and IDs sorted, isa first within an object, and
// references annotated with /* comments */. Strings are re-quoted and
// escaped here, so edits always operate on decoded text.
func (p *Project) Bytes() []byte {
	w := &writer{p: p, comments: p.comments()}
	w.buf.WriteString("// !$*UTF8*$!\n{\n")

	keys := sortedKeys(p.root)
	for _, k := range keys {
		if k == "objects" {
			w.writeObjects()
			continue
		}
		w.indent(1)
		fmt.Fprintf(&w.buf, "%s = ", quote(k))
		w.writeValue(k, p.root[k], 1)
		w.buf.WriteString(";\n")
	}
	w.buf.WriteString("}\n")
	return w.buf.Bytes()
}

type writer struct {
	p        *Project
	comments map[string]string
	buf      bytes.Buffer
}

func (w *writer) indent(n int) {
	w.buf.WriteString(strings.Repeat("\t", n))
}

func (w *writer) writeObjects() {
	bySection := make(map[string][]string)
	for id, o := range w.p.objects {
		bySection[o.Isa()] = append(bySection[o.Isa()], id)
	}
	isas := make([]string, 0, len(bySection))
	for isa := range bySection {
		isas = append(isas, isa)
	}
	sort.Strings(isas)

	w.indent(1)
	w.buf.WriteString("objects = {\n")
	for _, isa := range isas {
		ids := bySection[isa]
		sort.Strings(ids)
		fmt.Fprintf(&w.buf, "\n/* Begin %s section */\n", isa)
		for _, id := range ids {
			w.indent(2)
			w.buf.WriteString(id + w.comment(id) + " = ")
			if inlineIsa[isa] {
				w.writeInline("", map[string]any(w.p.objects[id]))
			} else {
				w.writeValue("", map[string]any(w.p.objects[id]), 2)
			}
			w.buf.WriteString(";\n")
		}
		fmt.Fprintf(&w.buf, "/* End %s section */\n", isa)
	}
	w.indent(1)
	w.buf.WriteString("};\n")
}

func (w *writer) writeValue(key string, v any, depth int) {
	switch val := v.(type) {
	case map[string]any:
		w.buf.WriteString("{\n")
		for _, k := range sortedKeys(val) {
			w.indent(depth + 1)
			fmt.Fprintf(&w.buf, "%s = ", quote(k))
			w.writeValue(k, val[k], depth+1)
			w.buf.WriteString(";\n")
		}
		w.indent(depth)
		w.buf.WriteString("}")
	case Object:
		w.writeValue(key, map[string]any(val), depth)
	case []any:
		w.buf.WriteString("(\n")
		for _, item := range val {
			w.indent(depth + 1)
			w.writeValue(key, item, depth+1)
			w.buf.WriteString(",\n")
		}
		w.indent(depth)
		w.buf.WriteString(")")
	default:
		w.writeScalar(key, val)
	}
}

func (w *writer) writeInline(key string, v any) {
	switch val := v.(type) {
	case map[string]any:
		w.buf.WriteString("{")
		for _, k := range sortedKeys(val) {
			fmt.Fprintf(&w.buf, "%s = ", quote(k))
			w.writeInline(k, val[k])
			w.buf.WriteString("; ")
		}
		w.buf.WriteString("}")
	case []any:
		w.buf.WriteString("(")
		for _, item := range val {
			w.writeInline(key, item)
			w.buf.WriteString(", ")
		}
		w.buf.WriteString(")")
	default:
		w.writeScalar(key, val)
	}
}

func (w *writer) writeScalar(key string, v any) {
	switch val := v.(type) {
	case string:
		w.buf.WriteString(quote(val))
		if !plainIDKeys[key] {
			if _, isID := w.p.objects[val]; isID {
				w.buf.WriteString(w.comment(val))
			}
		}
	case []byte:
		fmt.Fprintf(&w.buf, "<%x>", val)
	case nil:
		w.buf.WriteString(`""`)
	default:
		w.buf.WriteString(quote(fmt.Sprint(val)))
	}
}

func (w *writer) comment(id string) string {
	if c, ok := w.comments[id]; ok && c != "" {
		return " /* " + c + " */"
	}
	return ""
}

// sortedKeys orders keys alphabetically with isa first, as Xcode does.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == "isa" || keys[j] == "isa" {
			return keys[i] == "isa" && keys[j] != "isa"
		}
		return keys[i] < keys[j]
	})
	return keys
}

func quote(s string) string {
	if unquoted.MatchString(s) {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// comments computes the /* annotation */ for every object Xcode annotates.
func (p *Project) comments() map[string]string {
	c := make(map[string]string, len(p.objects))
	phaseOf := make(map[string]string)

	for id, o := range p.objects {
		isa := o.Isa()
		switch {
		case isa == "PBXFileReference", isa == "PBXGroup", isa == "PBXVariantGroup",
			isa == "PBXReferenceProxy":
			if name := o.str("name"); name != "" {
				c[id] = name
			} else {
				c[id] = o.str("path")
			}
		case isa == "PBXNativeTarget", isa == "PBXAggregateTarget", isa == "PBXLegacyTarget",
			isa == "XCBuildConfiguration":
			c[id] = o.str("name")
		case isa == "PBXProject":
			c[id] = "Project object"
		case isa == "PBXTargetDependency", isa == "PBXContainerItemProxy":
			c[id] = isa
		case strings.HasSuffix(isa, "BuildPhase"):
			c[id] = phaseComment(o)
			for _, f := range o.list("files") {
				phaseOf[f] = c[id]
			}
		}
	}

	for id, o := range p.objects {
		switch o.Isa() {
		case "PBXBuildFile":
			ref := c[o.str("fileRef")]
			if ref == "" {
				ref = c[o.str("productRef")]
			}
			if phase, ok := phaseOf[id]; ok {
				c[id] = ref + " in " + phase
			} else {
				c[id] = ref
			}
		case "XCConfigurationList":
			c[id] = p.configListComment(id)
		}
	}
	return c
}

func phaseComment(o Object) string {
	if name := o.str("name"); name != "" {
		return name
	}
	switch o.Isa() {
	case "PBXSourcesBuildPhase":
		return "Sources"
	case "PBXResourcesBuildPhase":
		return "Resources"
	case "PBXFrameworksBuildPhase":
		return "Frameworks"
	case "PBXHeadersBuildPhase":
		return "Headers"
	case "PBXCopyFilesBuildPhase":
		return "CopyFiles"
	case "PBXShellScriptBuildPhase":
		return "ShellScript"
	default:
		return strings.TrimSuffix(strings.TrimPrefix(o.Isa(), "PBX"), "BuildPhase")
	}
}

func (p *Project) configListComment(listID string) string {
	for _, o := range p.objects {
		if o.str("buildConfigurationList") != listID {
			continue
		}
		name := o.str("name")
		if o.Isa() == "PBXProject" {
			name = p.Name()
		}
		return fmt.Sprintf("Build configuration list for %s %q", o.Isa(), name)
	}
	return ""
}
