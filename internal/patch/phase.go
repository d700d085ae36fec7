package patch

import (
	"fmt"

	"github.com/embrace-io/embrace-wizard/internal/pbxproj"
	"github.com/embrace-io/embrace-wizard/internal/textpatch"
)

// PhaseEdit changes the Xcode build phases of a target. With Matcher set it
// inserts Insert before the matcher inside an existing run-script phase;
// otherwise it adds a run-script phase called Name running Script.
type PhaseEdit struct {
	Name         string `yaml:"name"`
	Matcher      string `yaml:"matcher"`
	Insert       string `yaml:"insert"`
	Script       string `yaml:"script"`
	LegacyScript string `yaml:"legacy_script"`

	matcher textpatch.Anchor
}

func (e *PhaseEdit) compile() error {
	if e.Matcher != "" {
		m, err := textpatch.ParseAnchor(e.Matcher)
		if err != nil {
			return err
		}
		if e.Insert == "" {
			return fmt.Errorf("phase matcher %s has nothing to insert", e.Matcher)
		}
		e.matcher = m
		return nil
	}
	if e.Name == "" || e.Script == "" {
		return fmt.Errorf("phase needs a matcher or a name and script")
	}
	return nil
}

func (e *PhaseEdit) script(legacy bool) string {
	if legacy && e.LegacyScript != "" {
		return e.LegacyScript
	}
	return e.Script
}

// PhasePresent reports whether the edit is already in the project.
func PhasePresent(p *pbxproj.Project, e *PhaseEdit, vars Vars) bool {
	if e.Matcher != "" {
		id := p.FindPhase(e.matcher)
		return id != "" && p.HasLine(id, textpatch.Literal(vars.expand(e.Insert)))
	}
	return p.PhaseByName(e.Name) != ""
}

// ApplyPhase performs the edit on target. A missing matcher phase is
// reported in Missing; a missing target is an error.
func ApplyPhase(p *pbxproj.Project, target string, e *PhaseEdit, vars Vars, legacy bool) (Result, error) {
	var r Result
	if e.Matcher != "" {
		id := p.FindPhase(e.matcher)
		if id == "" {
			r.Missing = append(r.Missing, e.Matcher)
			return r, nil
		}
		r.Changed = p.ModifyPhase(id, e.matcher, vars.expand(e.Insert))
		return r, nil
	}
	_, added, err := p.AddShellScriptPhase(target, e.Name, vars.expand(e.script(legacy)))
	if err != nil {
		return r, fmt.Errorf("add %s phase to %s: %w", e.Name, target, err)
	}
	r.Changed = added
	return r, nil
}

// UnapplyPhase reverses ApplyPhase. Absent edits are skipped.
func UnapplyPhase(p *pbxproj.Project, e *PhaseEdit, vars Vars) Result {
	var r Result
	if e.Matcher != "" {
		if id := p.FindPhase(e.matcher); id != "" {
			r.Changed = p.RemoveFromPhase(id, vars.expand(e.Insert))
		}
		return r
	}
	r.Changed = len(p.FindAndRemovePhase(textpatch.Literal(e.Name))) > 0
	return r
}
