// Package locate finds the native files of a React Native project.
package locate

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

var (
	// ErrNotFound is wrapped by every lookup that finds nothing.
	ErrNotFound = errors.New("file not found")
	// ErrAmbiguous is returned when several candidates remain after
	// disambiguation.
	ErrAmbiguous = errors.New("more than one candidate found")
)

// NotFoundError names what was looked for and where.
type NotFoundError struct {
	What   string
	Path   string
	DocURL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cannot find %s at %s", e.What, e.Path)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// skipDirs are never descended into when searching.
var skipDirs = map[string]bool{
	"Pods":         true,
	"build":        true,
	"node_modules": true,
	"DerivedData":  true,
}

// Locator resolves native file paths under a project root.
type Locator struct {
	Root    string
	matcher gitignore.Matcher
}

// New returns a Locator for root. Patterns from .gitignore files in root,
// ios/ and android/ prune the searches.
func New(root string) (*Locator, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	var patterns []gitignore.Pattern
	for _, domain := range [][]string{nil, {"ios"}, {"android"}} {
		p, err := readIgnore(filepath.Join(append([]string{abs}, domain...)...), domain)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p...)
	}
	return &Locator{Root: abs, matcher: gitignore.NewMatcher(patterns)}, nil
}

func readIgnore(dir string, domain []string) ([]gitignore.Pattern, error) {
	f, err := os.Open(filepath.Join(dir, ".gitignore"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read .gitignore: %w", err)
	}
	defer f.Close()

	var patterns []gitignore.Pattern
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, domain))
	}
	return patterns, sc.Err()
}

// ignored reports whether path, absolute or relative to Root, should be
// skipped.
func (l *Locator) ignored(path string, isDir bool) bool {
	rel, err := filepath.Rel(l.Root, path)
	if err != nil || rel == "." {
		return false
	}
	segments := strings.Split(filepath.ToSlash(rel), "/")
	return l.matcher.Match(segments, isDir)
}

// IOSDir returns <root>/ios.
func (l *Locator) IOSDir() string { return filepath.Join(l.Root, "ios") }

// AndroidDir returns <root>/android.
func (l *Locator) AndroidDir() string { return filepath.Join(l.Root, "android") }

func (l *Locator) existing(what string, parts ...string) (string, error) {
	path := filepath.Join(append([]string{l.Root}, parts...)...)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", &NotFoundError{What: what, Path: path}
	}
	return path, nil
}

// RootGradle returns android/build.gradle.
func (l *Locator) RootGradle() (string, error) {
	return l.existing("build.gradle", "android", "build.gradle")
}

// AppGradle returns android/app/build.gradle.
func (l *Locator) AppGradle() (string, error) {
	return l.existing("app build.gradle", "android", "app", "build.gradle")
}

// EmbraceConfig returns the path of android/app/src/main/embrace-config.json
// whether or not it exists yet.
func (l *Locator) EmbraceConfig() string {
	return filepath.Join(l.Root, "android", "app", "src", "main", "embrace-config.json")
}

// Podfile returns ios/Podfile.
func (l *Locator) Podfile() (string, error) {
	return l.existing("Podfile", "ios", "Podfile")
}

var mainApplicationNames = map[string]bool{
	"MainApplication.java": true,
	"MainApplication.kt":   true,
}

// MainApplication searches android/app/src/main/java breadth first and
// returns the shallowest MainApplication.java or MainApplication.kt.
func (l *Locator) MainApplication() (string, error) {
	base := filepath.Join(l.Root, "android", "app", "src", "main", "java")
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		return "", &NotFoundError{What: "Android source folder", Path: base}
	}

	queue := []string{base}
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]
		entries, err := os.ReadDir(dir)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", dir, err)
		}
		for _, e := range entries {
			path := filepath.Join(dir, e.Name())
			if e.IsDir() {
				if !l.ignored(path, true) {
					queue = append(queue, path)
				}
				continue
			}
			if mainApplicationNames[e.Name()] {
				return path, nil
			}
		}
	}
	return "", &NotFoundError{What: "MainApplication.java or MainApplication.kt", Path: base}
}

var appDelegateNames = map[string]bool{
	"AppDelegate.m":     true,
	"AppDelegate.mm":    true,
	"AppDelegate.swift": true,
}

// AppDelegate returns the single AppDelegate.{m,mm,swift} under ios/. When
// several exist, the one whose path contains packageName wins.
func (l *Locator) AppDelegate(packageName string) (string, error) {
	ios := l.IOSDir()
	var found []string
	err := filepath.WalkDir(ios, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == ios {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != ios && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".") || l.ignored(path, true)) {
				return filepath.SkipDir
			}
			return nil
		}
		if appDelegateNames[d.Name()] && !l.ignored(path, false) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil || len(found) == 0 {
		return "", &NotFoundError{What: "AppDelegate", Path: ios}
	}
	return l.pick("AppDelegate", found, func(p string) bool {
		return packageName != "" && strings.Contains(strings.ToLower(p), strings.ToLower(packageName))
	})
}

// XcodeProject returns ios/<name>.xcodeproj/project.pbxproj. With several
// projects the one named appName is used.
func (l *Locator) XcodeProject(appName string) (string, error) {
	matches, _ := filepath.Glob(filepath.Join(l.IOSDir(), "*.xcodeproj", "project.pbxproj"))
	var found []string
	for _, m := range matches {
		if projectName(m) != "Pods" {
			found = append(found, m)
		}
	}
	if len(found) == 0 {
		return "", &NotFoundError{What: "Xcode project", Path: filepath.Join(l.IOSDir(), "*.xcodeproj")}
	}
	path, err := l.pick("Xcode project", found, func(p string) bool {
		return projectName(p) == appName
	})
	if errors.Is(err, ErrAmbiguous) {
		names := make([]string, len(found))
		for i, f := range found {
			names[i] = projectName(f)
		}
		return "", fmt.Errorf("%w: app name %q matches none of the Xcode projects %s; set the name in package.json or pass --project-name",
			ErrAmbiguous, appName, strings.Join(names, ", "))
	}
	return path, err
}

func projectName(pbxproj string) string {
	return strings.TrimSuffix(filepath.Base(filepath.Dir(pbxproj)), ".xcodeproj")
}

// pick returns the only candidate, or the only one satisfying match.
func (l *Locator) pick(what string, candidates []string, match func(string) bool) (string, error) {
	sort.Strings(candidates)
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	var matched []string
	for _, c := range candidates {
		if match(c) {
			matched = append(matched, c)
		}
	}
	if len(matched) == 1 {
		return matched[0], nil
	}
	rel := make([]string, len(candidates))
	for i, c := range candidates {
		rel[i], _ = filepath.Rel(l.Root, c)
	}
	return "", fmt.Errorf("%w for %s: %s", ErrAmbiguous, what, strings.Join(rel, ", "))
}
