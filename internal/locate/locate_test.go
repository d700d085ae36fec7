package locate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rel ...string) string {
	t.Helper()
	path := filepath.Join(append([]string{root}, rel...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func newLocator(t *testing.T, root string) *Locator {
	t.Helper()
	l, err := New(root)
	require.NoError(t, err)
	return l
}

func TestGradleFiles(t *testing.T) {
	root := t.TempDir()
	l := newLocator(t, root)

	_, err := l.RootGradle()
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "cannot find build.gradle at")

	want := touch(t, root, "android", "build.gradle")
	got, err := l.RootGradle()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	want = touch(t, root, "android", "app", "build.gradle")
	got, err = l.AppGradle()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.True(t, strings.HasSuffix(l.EmbraceConfig(), filepath.Join("android", "app", "src", "main", "embrace-config.json")))
}

func TestMainApplicationBreadthFirst(t *testing.T) {
	root := t.TempDir()
	l := newLocator(t, root)

	_, err := l.MainApplication()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Android source folder")

	deep := touch(t, root, "android", "app", "src", "main", "java", "com", "a", "deep", "MainApplication.java")
	shallow := touch(t, root, "android", "app", "src", "main", "java", "com", "helloworld", "MainApplication.kt")
	_ = deep

	got, err := l.MainApplication()
	require.NoError(t, err)
	assert.Equal(t, shallow, got)
}

func TestMainApplicationMissing(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "android", "app", "src", "main", "java", "com", "x", "Other.java")

	_, err := newLocator(t, root).MainApplication()
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAppDelegate(t *testing.T) {
	root := t.TempDir()
	want := touch(t, root, "ios", "HelloWorld", "AppDelegate.mm")
	touch(t, root, "ios", "Pods", "Some", "AppDelegate.m")
	touch(t, root, "ios", "build", "AppDelegate.swift")

	got, err := newLocator(t, root).AppDelegate("HelloWorld")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAppDelegateDisambiguation(t *testing.T) {
	root := t.TempDir()
	want := touch(t, root, "ios", "HelloWorld", "AppDelegate.swift")
	touch(t, root, "ios", "HelloWorldTVOS", "AppDelegate.m")
	touch(t, root, "ios", "Widget", "AppDelegate.m")

	l := newLocator(t, root)
	_, err := l.AppDelegate("Other")
	assert.True(t, errors.Is(err, ErrAmbiguous))

	_, err = l.AppDelegate("HelloWorld")
	assert.True(t, errors.Is(err, ErrAmbiguous), "two paths contain HelloWorld")

	got, err := l.AppDelegate("HelloWorld/")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAppDelegateRespectsGitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ios"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("# generated\nios/vendor/\n"), 0o644))
	want := touch(t, root, "ios", "HelloWorld", "AppDelegate.swift")
	touch(t, root, "ios", "vendor", "AppDelegate.m")

	got, err := newLocator(t, root).AppDelegate("")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestXcodeProject(t *testing.T) {
	root := t.TempDir()
	l := newLocator(t, root)

	_, err := l.XcodeProject("HelloWorld")
	assert.True(t, errors.Is(err, ErrNotFound))

	want := touch(t, root, "ios", "HelloWorld.xcodeproj", "project.pbxproj")
	touch(t, root, "ios", "Pods", "Pods.xcodeproj", "project.pbxproj")
	got, err := l.XcodeProject("Different")
	require.NoError(t, err, "a single project is used whatever its name")
	assert.Equal(t, want, got)

	touch(t, root, "ios", "Other.xcodeproj", "project.pbxproj")
	got, err = l.XcodeProject("HelloWorld")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = l.XcodeProject("Mismatch")
	require.True(t, errors.Is(err, ErrAmbiguous))
	assert.Contains(t, err.Error(), `"Mismatch"`)
	assert.Contains(t, err.Error(), "HelloWorld, Other")
}
