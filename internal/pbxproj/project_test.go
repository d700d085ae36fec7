package pbxproj

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embrace-io/embrace-wizard/internal/textpatch"
)

const (
	bundlePhaseID = "00DD1BFF1BD5951E006B06BC"
	sourcemapLine = "export SOURCEMAP_FILE=\"$DERIVED_FILE_DIR/main.jsbundle.map\"\n"
)

var bundleMatcher = textpatch.MustRegexp(`(?m)^[^\n]*react-native-xcode\.sh`)

// copyFixture lays the fixture out as <tmp>/ios/HelloWorld.xcodeproj and
// returns the path of its project.pbxproj.
func copyFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "HelloWorld.xcodeproj", "project.pbxproj"))
	require.NoError(t, err)
	dir := filepath.Join(t.TempDir(), "ios", "HelloWorld.xcodeproj")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "project.pbxproj")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func openFixture(t *testing.T) *Project {
	t.Helper()
	p, err := Open(copyFixture(t))
	require.NoError(t, err)
	return p
}

func TestOpenMissingProject(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "Nope.xcodeproj", "project.pbxproj"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProjectNotFound))
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not a plist", "{ this is ( not"},
		{"no objects", "{ rootObject = ABC; }"},
		{"no root object", "{ objects = { }; }"},
		{"object without isa", "{ objects = { A = { name = x; }; }; rootObject = A; }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse("project.pbxproj", []byte(tt.data))
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, ErrMalformedProject))
		})
	}
}

func TestProjectBasics(t *testing.T) {
	p := openFixture(t)

	assert.Equal(t, "HelloWorld", p.Name())
	assert.Equal(t, "ios", filepath.Base(p.SourceRoot()))
	assert.ElementsMatch(t, []string{"HelloWorld", "HelloWorldTests"}, p.TargetNames())
}

func TestBytesRoundTrip(t *testing.T) {
	p := openFixture(t)
	first := p.Bytes()

	again, err := Parse(p.Path, first)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(again.Bytes()))
	assert.Len(t, again.objects, len(p.objects))

	out := string(first)
	assert.True(t, strings.HasPrefix(out, "// !$*UTF8*$!\n{\n"))
	assert.Contains(t, out, "/* Begin PBXBuildFile section */")
	assert.Contains(t, out, "13B07FBC1A68108700A75B9A /* AppDelegate.mm in Sources */ = {isa = PBXBuildFile; fileRef = 13B07FB01A68108700A75B9A /* AppDelegate.mm */; };")
	assert.Contains(t, out, `buildConfigurationList = 13B07F931A680F5B00A75B9A /* Build configuration list for PBXNativeTarget "HelloWorld" */;`)
	assert.Contains(t, out, `sourceTree = "<group>";`)
	assert.Contains(t, out, "rootObject = 83CBB9F71A601CBA00E9B192 /* Project object */;")
}

func TestUnchangedProjectHasNoDiff(t *testing.T) {
	p := openFixture(t)
	assert.False(t, p.Modified())
	assert.Empty(t, p.Diff())
	assert.Contains(t, string(p.Bytes()), "\t\t\t\t\t\tTestTargetID = 13B07F861A680F5B00A75B9A;\n")
}

func TestFindPhase(t *testing.T) {
	p := openFixture(t)

	assert.Equal(t, bundlePhaseID, p.FindPhase(textpatch.Literal("react-native-xcode.sh")))
	assert.Equal(t, bundlePhaseID, p.FindPhase(textpatch.Literal("Bundle React Native code and images")))
	assert.Equal(t, "", p.FindPhase(textpatch.Literal("upload-dsym")))
	assert.True(t, p.HasLine(bundlePhaseID, bundleMatcher))
	assert.False(t, p.HasLine("MISSING", bundleMatcher))
}

func TestModifyPhaseInsertsOnce(t *testing.T) {
	p := openFixture(t)

	require.True(t, p.ModifyPhase(bundlePhaseID, bundleMatcher, sourcemapLine))
	script := p.Script(bundlePhaseID)
	assert.Less(t, strings.Index(script, "export SOURCEMAP_FILE"), strings.Index(script, "REACT_NATIVE_XCODE="))
	assert.Contains(t, script, "\nexport SOURCEMAP_FILE=\"$DERIVED_FILE_DIR/main.jsbundle.map\"\nREACT_NATIVE_XCODE=")

	once := p.Bytes()
	assert.False(t, p.ModifyPhase(bundlePhaseID, bundleMatcher, sourcemapLine))
	assert.Equal(t, string(once), string(p.Bytes()))

	// The escaped script survives a serialize and reparse.
	reparsed, err := Parse(p.Path, once)
	require.NoError(t, err)
	assert.Equal(t, script, reparsed.Script(bundlePhaseID))
}

func TestModifyPhaseWithoutMatcher(t *testing.T) {
	p := openFixture(t)
	before := p.Bytes()

	assert.False(t, p.ModifyPhase(bundlePhaseID, textpatch.Literal("not in script"), sourcemapLine))
	assert.False(t, p.ModifyPhase("MISSING", bundleMatcher, sourcemapLine))
	assert.Equal(t, string(before), string(p.Bytes()))
}

func TestRemoveFromPhaseRestoresScript(t *testing.T) {
	p := openFixture(t)
	original := p.Script(bundlePhaseID)

	require.True(t, p.ModifyPhase(bundlePhaseID, bundleMatcher, sourcemapLine))
	require.True(t, p.RemoveFromPhase(bundlePhaseID, sourcemapLine))
	assert.Equal(t, original, p.Script(bundlePhaseID))
	assert.False(t, p.RemoveFromPhase(bundlePhaseID, sourcemapLine))
}

func TestFindAndRemovePhaseDetachesFromTargets(t *testing.T) {
	p := openFixture(t)

	removed := p.FindAndRemovePhase(textpatch.Literal("react-native-xcode.sh"))
	require.Equal(t, []string{bundlePhaseID}, removed)

	assert.Nil(t, p.Object(bundlePhaseID))
	assert.Empty(t, p.Section("PBXShellScriptBuildPhase"))
	for _, name := range p.TargetNames() {
		phases, err := p.TargetPhases(name)
		require.NoError(t, err)
		assert.NotContains(t, phases, bundlePhaseID)
	}
	assert.NotContains(t, string(p.Bytes()), bundlePhaseID)

	assert.Empty(t, p.FindAndRemovePhase(textpatch.Literal("react-native-xcode.sh")))
}

func TestAddShellScriptPhase(t *testing.T) {
	p := openFixture(t)

	id, added, err := p.AddShellScriptPhase("HelloWorld", "Embrace Upload dSYM", "echo upload\n")
	require.NoError(t, err)
	require.True(t, added)

	phases, err := p.TargetPhases("HelloWorld")
	require.NoError(t, err)
	assert.Equal(t, id, phases[len(phases)-1])
	assert.Equal(t, "/bin/sh", p.Object(id).str("shellPath"))

	once := p.Bytes()
	again, added, err := p.AddShellScriptPhase("HelloWorld", "Embrace Upload dSYM", "echo upload\n")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, id, again)
	assert.Equal(t, string(once), string(p.Bytes()))

	_, _, err = p.AddShellScriptPhase("Nope", "x", "y")
	assert.True(t, errors.Is(err, ErrTargetNotFound))
}

func TestAddAndRemoveFile(t *testing.T) {
	p := openFixture(t)
	before := p.Bytes()

	require.True(t, p.AddFile("HelloWorld", "HelloWorld/EmbraceInitializer.swift", Source))
	assert.True(t, p.HasFile("HelloWorld", "HelloWorld/EmbraceInitializer.swift"))

	once := p.Bytes()
	assert.False(t, p.AddFile("HelloWorld", "HelloWorld/EmbraceInitializer.swift", Source))
	assert.Equal(t, string(once), string(p.Bytes()))
	assert.Contains(t, string(once), "EmbraceInitializer.swift in Sources")

	require.True(t, p.RemoveFile("HelloWorld", "HelloWorld/EmbraceInitializer.swift"))
	assert.False(t, p.HasFile("HelloWorld", "HelloWorld/EmbraceInitializer.swift"))
	assert.Equal(t, string(before), string(p.Bytes()))
	assert.False(t, p.RemoveFile("HelloWorld", "HelloWorld/EmbraceInitializer.swift"))
}

func TestAddFileResourceAndHeader(t *testing.T) {
	p := openFixture(t)

	require.True(t, p.AddFile("HelloWorld", "HelloWorld/Embrace-Info.plist", Resource))
	assert.Contains(t, string(p.Bytes()), "Embrace-Info.plist in Resources")

	require.True(t, p.AddFile("HelloWorld", "HelloWorld/Extra.h", Source))
	assert.NotContains(t, string(p.Bytes()), "Extra.h in")
}

func TestAddFileMissingTargetOrGroup(t *testing.T) {
	p := openFixture(t)
	before := p.Bytes()

	assert.False(t, p.AddFile("Nope", "Nope/File.swift", Source))
	assert.False(t, p.AddFile("Products", "Products/File.swift", Source))
	assert.Equal(t, string(before), string(p.Bytes()))
}

func TestUpdateBuildPropertyFansOut(t *testing.T) {
	p := openFixture(t)

	require.NoError(t, p.UpdateBuildProperty("HelloWorld", "OTHER_FLAG", "YES"))
	props, err := p.BuildProperties("HelloWorld", "OTHER_FLAG")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Debug": "YES", "Release": "YES"}, props)

	v, ok := p.GetBuildProperty("HelloWorld", "OTHER_FLAG")
	assert.True(t, ok)
	assert.Equal(t, "YES", v)

	_, ok = p.GetBuildProperty("HelloWorldTests", "OTHER_FLAG")
	assert.False(t, ok)

	once := p.Bytes()
	require.NoError(t, p.UpdateBuildProperty("HelloWorld", "OTHER_FLAG", "YES"))
	assert.Equal(t, string(once), string(p.Bytes()))

	require.NoError(t, p.RemoveBuildProperty("HelloWorld", "OTHER_FLAG"))
	_, ok = p.GetBuildProperty("HelloWorld", "OTHER_FLAG")
	assert.False(t, ok)
}

func TestUpdateBuildPropertyErrors(t *testing.T) {
	p := openFixture(t)

	err := p.UpdateBuildProperty("Nope", "K", "V")
	assert.True(t, errors.Is(err, ErrTargetNotFound))

	delete(p.objects, "13B07F951A680F5B00A75B9A")
	err = p.UpdateBuildProperty("HelloWorld", "K", "V")
	assert.True(t, errors.Is(err, ErrConfigListUnresolved))
	_, ok := p.GetBuildProperty("HelloWorld", "K")
	assert.False(t, ok, "no configuration is written when the list is broken")
}

func TestAddBridgingHeader(t *testing.T) {
	path := copyFixture(t)
	p, err := Open(path)
	require.NoError(t, err)

	added, err := p.AddBridgingHeader("HelloWorld")
	require.NoError(t, err)
	require.True(t, added)

	headerPath := filepath.Join(p.SourceRoot(), "HelloWorld", "HelloWorld-Bridging-Header.h")
	header, err := os.ReadFile(headerPath)
	require.NoError(t, err)
	assert.Contains(t, string(header), "expose to Swift")

	reopened, err := Open(path)
	require.NoError(t, err)
	props, err := reopened.BuildProperties("HelloWorld", BridgingHeaderSetting)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Debug":   "HelloWorld/HelloWorld-Bridging-Header.h",
		"Release": "HelloWorld/HelloWorld-Bridging-Header.h",
	}, props)
	assert.True(t, reopened.HasFile("HelloWorld", "HelloWorld/HelloWorld-Bridging-Header.h"))

	written, err := os.ReadFile(path)
	require.NoError(t, err)

	added, err = reopened.AddBridgingHeader("HelloWorld")
	require.NoError(t, err)
	assert.False(t, added)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(written), string(after))

	entries, err := os.ReadDir(filepath.Dir(headerPath))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestQuote(t *testing.T) {
	tests := map[string]string{
		"PBXBuildFile":          "PBXBuildFile",
		"HelloWorld/Info.plist": "HelloWorld/Info.plist",
		"<group>":               `"<group>"`,
		"":                      `""`,
		"a \"b\"\n":             `"a \"b\"\n"`,
		"$(TARGET_NAME)":        `"$(TARGET_NAME)"`,
	}
	for in, want := range tests {
		assert.Equal(t, want, quote(in), "quote(%q)", in)
	}
}
