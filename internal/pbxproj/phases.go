package pbxproj

import (
	"slices"

	"github.com/embrace-io/embrace-wizard/internal/textpatch"
)

const shellScriptPhase = "PBXShellScriptBuildPhase"

// targetIsas are the object classes that own a buildPhases list.
var targetIsas = []string{"PBXNativeTarget", "PBXAggregateTarget", "PBXLegacyTarget"}

// FindPhase returns the ID of the first shell-script build phase whose name
// or decoded script matches m, or "" when none does.
func (p *Project) FindPhase(m textpatch.Anchor) string {
	for _, id := range p.Section(shellScriptPhase) {
		if phaseMatches(p.objects[id], m) {
			return id
		}
	}
	return ""
}

// PhaseByName returns the ID of the shell-script phase named name, or "".
func (p *Project) PhaseByName(name string) string {
	for _, id := range p.Section(shellScriptPhase) {
		if p.objects[id].str("name") == name {
			return id
		}
	}
	return ""
}

func phaseMatches(o Object, m textpatch.Anchor) bool {
	return m.MatchString(o.str("name")) || m.MatchString(o.str("shellScript"))
}

// Script returns the decoded shell script of a phase.
func (p *Project) Script(id string) string {
	if o := p.objects[id]; o != nil {
		return o.str("shellScript")
	}
	return ""
}

// HasLine reports whether the decoded script of phase id matches m.
func (p *Project) HasLine(id string, m textpatch.Anchor) bool {
	o := p.objects[id]
	if o == nil {
		return false
	}
	return m.MatchString(o.str("shellScript"))
}

// ModifyPhase inserts insertion before the first match of m in the phase's
// script. It is a no-op when the phase lacks m or already contains
// insertion. The script is edited in decoded form; Bytes re-encodes it.
func (p *Project) ModifyPhase(id string, m textpatch.Anchor, insertion string) bool {
	o := p.objects[id]
	if o == nil || o.Isa() != shellScriptPhase {
		return false
	}
	script := textpatch.FromString("", o.str("shellScript"))
	if !script.HasLine(m) || script.HasLine(textpatch.Literal(insertion)) {
		return false
	}
	if !script.AddBefore(m, insertion) {
		return false
	}
	o["shellScript"] = script.Contents()
	return true
}

// RemoveFromPhase deletes the first occurrence of text from the phase's
// script. It is the inverse of ModifyPhase and is safe to call when text
// is absent.
func (p *Project) RemoveFromPhase(id string, text string) bool {
	o := p.objects[id]
	if o == nil || o.Isa() != shellScriptPhase {
		return false
	}
	script := textpatch.FromString("", o.str("shellScript"))
	if !script.DeleteLine(textpatch.Literal(text)) {
		return false
	}
	o["shellScript"] = script.Contents()
	return true
}

// AddShellScriptPhase appends a run-script phase to the named target. A
// phase with the same name already attached to the target is reused, so the
// call is idempotent.
func (p *Project) AddShellScriptPhase(target, name, script string) (id string, added bool, err error) {
	targetID, t := p.targetByName(target)
	if t == nil {
		return "", false, ErrTargetNotFound
	}
	for _, phaseID := range t.list("buildPhases") {
		if o := p.objects[phaseID]; o != nil && o.Isa() == shellScriptPhase && o.str("name") == name {
			return phaseID, false, nil
		}
	}

	id = p.newID()
	p.objects[id] = Object{
		"isa":                                shellScriptPhase,
		"buildActionMask":                    "2147483647",
		"files":                              []any{},
		"inputFileListPaths":                 []any{},
		"inputPaths":                         []any{},
		"name":                               name,
		"outputFileListPaths":                []any{},
		"outputPaths":                        []any{},
		"runOnlyForDeploymentPostprocessing": "0",
		"shellPath":                          "/bin/sh",
		"shellScript":                        script,
	}
	p.objects[targetID].setList("buildPhases", append(t.list("buildPhases"), id))
	return id, true, nil
}

// FindAndRemovePhase removes every shell-script phase whose name or script
// matches m, detaching each from all targets, and returns the removed IDs.
func (p *Project) FindAndRemovePhase(m textpatch.Anchor) []string {
	var removed []string
	for _, id := range p.Section(shellScriptPhase) {
		if phaseMatches(p.objects[id], m) {
			p.removeBuildPhase(id)
			removed = append(removed, id)
		}
	}
	return removed
}

// removeBuildPhase deletes the phase object and filters its ID out of every
// target's buildPhases list. It is the only way a phase leaves the graph.
func (p *Project) removeBuildPhase(id string) {
	for _, isa := range targetIsas {
		for _, targetID := range p.Section(isa) {
			t := p.objects[targetID]
			phases := t.list("buildPhases")
			if slices.Contains(phases, id) {
				t.setList("buildPhases", slices.DeleteFunc(phases, func(s string) bool { return s == id }))
			}
		}
	}
	delete(p.objects, id)
}

// TargetPhases returns the build phase IDs of the named target in order.
func (p *Project) TargetPhases(target string) ([]string, error) {
	_, t := p.targetByName(target)
	if t == nil {
		return nil, ErrTargetNotFound
	}
	return t.list("buildPhases"), nil
}

// phaseOfType returns the target's first build phase with the given isa.
func (p *Project) phaseOfType(t Object, isa string) (string, Object) {
	for _, id := range t.list("buildPhases") {
		if o := p.objects[id]; o != nil && o.Isa() == isa {
			return id, o
		}
	}
	return "", nil
}
