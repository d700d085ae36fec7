package pbxproj

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/embrace-io/embrace-wizard/internal/textpatch"
)

// BridgingHeaderSetting is the build setting naming a target's bridging header.
const BridgingHeaderSetting = "SWIFT_OBJC_BRIDGING_HEADER"

const bridgingHeaderTemplate = `//
//  Use this file to import your target's public headers that you would like to expose to Swift.
//
`

// configurations resolves target → configuration list → configurations.
func (p *Project) configurations(target string) ([]Object, error) {
	_, t := p.targetByName(target)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, target)
	}
	listID := t.str("buildConfigurationList")
	list := p.objects[listID]
	if list == nil || list.Isa() != "XCConfigurationList" {
		return nil, fmt.Errorf("%w: target %s", ErrConfigListUnresolved, target)
	}
	ids := list.list("buildConfigurations")
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: target %s has no configurations", ErrConfigListUnresolved, target)
	}
	configs := make([]Object, 0, len(ids))
	for _, id := range ids {
		c := p.objects[id]
		if c == nil || c.Isa() != "XCBuildConfiguration" {
			return nil, fmt.Errorf("%w: target %s references missing configuration %s", ErrConfigListUnresolved, target, id)
		}
		configs = append(configs, c)
	}
	return configs, nil
}

func buildSettings(c Object) map[string]any {
	if m, ok := c["buildSettings"].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	c["buildSettings"] = m
	return m
}

// BuildProperties returns the value of key in every configuration of the
// target, keyed by configuration name. Configurations that do not set key
// are omitted.
func (p *Project) BuildProperties(target, key string) (map[string]string, error) {
	configs, err := p.configurations(target)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(configs))
	for _, c := range configs {
		if v, ok := buildSettings(c)[key]; ok {
			out[c.str("name")] = fmt.Sprint(v)
		}
	}
	return out, nil
}

// GetBuildProperty returns key from the first configuration of the target
// that sets it.
func (p *Project) GetBuildProperty(target, key string) (string, bool) {
	configs, err := p.configurations(target)
	if err != nil {
		return "", false
	}
	for _, c := range configs {
		if v, ok := buildSettings(c)[key]; ok {
			return fmt.Sprint(v), true
		}
	}
	return "", false
}

// UpdateBuildProperty sets key to value in every configuration of the
// target. Nothing is changed unless the whole configuration list resolves.
func (p *Project) UpdateBuildProperty(target, key, value string) error {
	configs, err := p.configurations(target)
	if err != nil {
		return err
	}
	for _, c := range configs {
		buildSettings(c)[key] = value
	}
	return nil
}

// RemoveBuildProperty deletes key from every configuration of the target.
func (p *Project) RemoveBuildProperty(target, key string) error {
	configs, err := p.configurations(target)
	if err != nil {
		return err
	}
	for _, c := range configs {
		delete(buildSettings(c), key)
	}
	return nil
}

// BridgingHeaderPath is the conventional header location relative to the
// source root.
func BridgingHeaderPath(projectName string) string {
	return projectName + "/" + projectName + "-Bridging-Header.h"
}

// PrepareBridgingHeader performs the graph half of AddBridgingHeader. It
// returns the header file still to be written, or nil when the header
// already exists on disk. added is false when the target already has a
// bridging header, in which case nothing is touched.
func (p *Project) PrepareBridgingHeader(projectName string) (header *textpatch.File, added bool, err error) {
	if v, ok := p.GetBuildProperty(projectName, BridgingHeaderSetting); ok && v != "" {
		return nil, false, nil
	}
	if _, err := p.configurations(projectName); err != nil {
		return nil, false, err
	}

	rel := BridgingHeaderPath(projectName)
	abs := filepath.Join(p.SourceRoot(), filepath.FromSlash(rel))
	if _, err := os.Stat(abs); errors.Is(err, fs.ErrNotExist) {
		header = textpatch.Create(abs, bridgingHeaderTemplate)
	}

	p.AddFile(projectName, rel, Source)
	if err := p.UpdateBuildProperty(projectName, BridgingHeaderSetting, rel); err != nil {
		return nil, false, err
	}
	return header, true, nil
}

// AddBridgingHeader gives the target a bridging header: it writes the
// header file when absent, registers it as a source, points the build
// setting at it in every configuration, and persists the project. It
// succeeds without changes when the setting is already present.
func (p *Project) AddBridgingHeader(projectName string) (bool, error) {
	header, added, err := p.PrepareBridgingHeader(projectName)
	if err != nil || !added {
		return false, err
	}
	if header != nil {
		if err := header.Patch(); err != nil {
			return false, err
		}
	}
	if err := p.Patch(); err != nil {
		return false, err
	}
	return true, nil
}
