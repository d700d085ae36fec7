package textpatch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gradleSample = `buildscript {
    dependencies {
        classpath "com.android.tools.build:gradle:7.0.0"
        classpath "com.facebook.react:react-native-gradle-plugin"
    }
}
`

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.gradle"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileNotFound))
	assert.Contains(t, err.Error(), "nope.gradle")
}

func TestHasLine(t *testing.T) {
	f := FromString("build.gradle", gradleSample)

	assert.True(t, f.HasLine(Literal(`com.android.tools.build:gradle`)))
	assert.True(t, f.HasLine(MustRegexp(`classpath\s+"com\.facebook`)))
	assert.False(t, f.HasLine(Literal("embrace-swazzler")))
	assert.False(t, f.HasLine(Literal("")))
}

func TestAddAfterPropagatesCapturedIndent(t *testing.T) {
	f := FromString("build.gradle", gradleSample)
	anchor := MustRegexp(`(\s+)classpath "com\.android\.tools\.build:gradle:[^"]*"`)

	ok := f.AddAfter(anchor, `classpath "io.embrace:embrace-swazzler:6.0.0"`)
	require.True(t, ok)

	want := `buildscript {
    dependencies {
        classpath "com.android.tools.build:gradle:7.0.0"
        classpath "io.embrace:embrace-swazzler:6.0.0"
        classpath "com.facebook.react:react-native-gradle-plugin"
    }
}
`
	assert.Equal(t, want, f.Contents())
}

func TestAddAfterFirstMatchOnly(t *testing.T) {
	f := FromString("x", "a\na\n")
	require.True(t, f.AddAfter(Literal("a"), "b"))
	assert.Equal(t, "ab\na\n", f.Contents())
}

func TestAddBefore(t *testing.T) {
	f := FromString("x", "one\ntwo\n")
	require.True(t, f.AddBefore(Literal("two"), "mid\n"))
	assert.Equal(t, "one\nmid\ntwo\n", f.Contents())
}

func TestAnchorAbsentLeavesContents(t *testing.T) {
	f := FromString("x", gradleSample)

	assert.False(t, f.AddAfter(Literal("missing"), "x"))
	assert.False(t, f.AddBefore(MustRegexp(`nope\d+`), "x"))
	assert.False(t, f.DeleteLine(Literal("missing")))
	assert.Equal(t, gradleSample, f.Contents())
	assert.False(t, f.Modified())
}

func TestDeleteLine(t *testing.T) {
	f := FromString("x", "keep\ndrop\nkeep\n")
	require.True(t, f.DeleteLine(Literal("drop\n")))
	assert.Equal(t, "keep\nkeep\n", f.Contents())
}

func TestPaddingFromString(t *testing.T) {
	f := FromString("x", "class A {\n\t  void b() {\n\t    super.onCreate();\n  }\n}\n")

	assert.Equal(t, "\t    ", f.PaddingFromString("super.onCreate();"))
	assert.Equal(t, "", f.PaddingFromString("class A"))
	assert.Equal(t, "", f.PaddingFromString("not here"))
}

func TestPaddingAfterStringToTheNextString(t *testing.T) {
	src := "  func application() -> Bool {\n\n      let x = 1\n  }\n"
	f := FromString("x", src)

	got := f.PaddingAfterStringToTheNextString(MustRegexp(`func application\(\)[^{]*\{`))
	assert.Equal(t, "      ", got)
	assert.Equal(t, "", f.PaddingAfterStringToTheNextString(Literal("absent")))
}

func TestPatchWritesAndResetsModified(t *testing.T) {
	path := writeTemp(t, "build.gradle", gradleSample)
	f, err := Open(path)
	require.NoError(t, err)

	f.AddAfter(Literal("buildscript {"), "\n    // hi")
	require.True(t, f.Modified())
	assert.Contains(t, f.Diff(), "+    // hi")

	require.NoError(t, f.Patch())
	assert.False(t, f.Modified())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, f.Contents(), string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be renamed away")
}

func TestParseAnchor(t *testing.T) {
	a, err := ParseAnchor(`/super\.onCreate\(\)/`)
	require.NoError(t, err)
	assert.True(t, a.IsRegexp())
	assert.True(t, a.MatchString("  super.onCreate()"))

	a, err = ParseAnchor("import android.app.Application;")
	require.NoError(t, err)
	assert.False(t, a.IsRegexp())

	_, err = ParseAnchor("/(/")
	assert.Error(t, err)
	_, err = ParseAnchor("")
	assert.Error(t, err)
}

func TestCreateIsModifiedUntilWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src", "main", "embrace-config.json")
	f := Create(path, "{}\n")
	assert.True(t, f.Created())
	assert.True(t, f.Modified())
	assert.Contains(t, f.Diff(), "--- /dev/null")
	assert.Contains(t, f.Diff(), "+{}")

	require.NoError(t, f.Patch())
	assert.False(t, f.Created())
	assert.False(t, f.Modified())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(data))
}

func TestCreateEmptyStillModified(t *testing.T) {
	f := Create("empty.h", "")
	assert.True(t, f.Modified())
	f.Baseline()
	assert.False(t, f.Modified())
}

func TestFromStringStartsUnmodified(t *testing.T) {
	f := FromString("x", "a\n")
	assert.False(t, f.Modified())
	assert.False(t, f.Created())
	assert.Empty(t, f.Diff())
	f.SetContents("b\n")
	assert.True(t, f.Modified())
}
