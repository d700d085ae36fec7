package pbxproj

import (
	"path"
	"slices"
	"strings"
)

// FileKind selects the build phase a file joins.
type FileKind int

const (
	// Source files are compiled; they join the Sources phase. Headers are
	// referenced but join no phase.
	Source FileKind = iota
	// Resource files are copied into the bundle; they join the Resources phase.
	Resource
)

var fileTypes = map[string]string{
	".swift":     "sourcecode.swift",
	".h":         "sourcecode.c.h",
	".m":         "sourcecode.c.objc",
	".mm":        "sourcecode.cpp.objcpp",
	".c":         "sourcecode.c.c",
	".json":      "text.json",
	".plist":     "text.plist.xml",
	".xcprivacy": "text.xml",
}

func lastKnownFileType(name string) string {
	if t, ok := fileTypes[strings.ToLower(path.Ext(name))]; ok {
		return t
	}
	return "file"
}

// AddFile registers relPath, relative to the source root, as a member of
// the group and target both named group. Source files join the target's
// Sources phase and resources its Resources phase. The call is a no-op
// returning false when the target or group does not exist or the file is
// already in the group.
func (p *Project) AddFile(group, relPath string, kind FileKind) bool {
	targetID, t := p.targetByName(group)
	groupID, g := p.groupByName(group)
	if t == nil || g == nil {
		return false
	}
	refPath := groupRelative(g, relPath)
	if p.fileInGroup(g, refPath) != "" {
		return false
	}

	refID := p.newID()
	p.objects[refID] = Object{
		"isa":               "PBXFileReference",
		"fileEncoding":      "4",
		"lastKnownFileType": lastKnownFileType(relPath),
		"name":              path.Base(relPath),
		"path":              refPath,
		"sourceTree":        "<group>",
	}
	p.objects[groupID].setList("children", append(g.list("children"), refID))

	if kind == Source && path.Ext(relPath) == ".h" {
		return true
	}
	phaseIsa := "PBXSourcesBuildPhase"
	if kind == Resource {
		phaseIsa = "PBXResourcesBuildPhase"
	}
	phaseID, phase := p.phaseOfType(t, phaseIsa)
	if phase == nil {
		phaseID = p.newID()
		phase = Object{
			"isa":                                phaseIsa,
			"buildActionMask":                    "2147483647",
			"files":                              []any{},
			"runOnlyForDeploymentPostprocessing": "0",
		}
		p.objects[phaseID] = phase
		p.objects[targetID].setList("buildPhases", append(t.list("buildPhases"), phaseID))
	}

	buildID := p.newID()
	p.objects[buildID] = Object{"isa": "PBXBuildFile", "fileRef": refID}
	phase.setList("files", append(phase.list("files"), buildID))
	return true
}

// RemoveFile undoes AddFile: the file reference leaves the group and every
// build file pointing at it leaves every phase. Returns false when the file
// was not in the group.
func (p *Project) RemoveFile(group, relPath string) bool {
	groupID, g := p.groupByName(group)
	if g == nil {
		return false
	}
	refID := p.fileInGroup(g, groupRelative(g, relPath))
	if refID == "" {
		return false
	}
	p.objects[groupID].setList("children", slices.DeleteFunc(g.list("children"), func(s string) bool { return s == refID }))
	p.removeFileRef(refID)
	return true
}

// HasFile reports whether relPath is a member of the named group.
func (p *Project) HasFile(group, relPath string) bool {
	_, g := p.groupByName(group)
	if g == nil {
		return false
	}
	return p.fileInGroup(g, groupRelative(g, relPath)) != ""
}

// removeFileRef deletes a file reference and every build file using it,
// detaching those build files from all phases.
func (p *Project) removeFileRef(refID string) {
	var buildIDs []string
	for id, o := range p.objects {
		if o.Isa() == "PBXBuildFile" && o.str("fileRef") == refID {
			buildIDs = append(buildIDs, id)
		}
	}
	for _, o := range p.objects {
		if _, ok := o["files"]; !ok || !strings.HasSuffix(o.Isa(), "BuildPhase") {
			continue
		}
		files := o.list("files")
		kept := slices.DeleteFunc(slices.Clone(files), func(s string) bool { return slices.Contains(buildIDs, s) })
		if len(kept) != len(files) {
			o.setList("files", kept)
		}
	}
	for _, id := range buildIDs {
		delete(p.objects, id)
	}
	delete(p.objects, refID)
}

func (p *Project) fileInGroup(g Object, refPath string) string {
	for _, id := range g.list("children") {
		o := p.objects[id]
		if o != nil && o.Isa() == "PBXFileReference" && o.str("path") == refPath {
			return id
		}
	}
	return ""
}

// groupRelative turns a source-root relative path into one relative to the
// group when the group itself has a path.
func groupRelative(g Object, relPath string) string {
	relPath = path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	if gp := g.str("path"); gp != "" {
		if rest, ok := strings.CutPrefix(relPath, strings.TrimSuffix(gp, "/")+"/"); ok {
			return rest
		}
	}
	return relPath
}
