package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/embrace-io/embrace-wizard/internal/secrets"
	"github.com/embrace-io/embrace-wizard/internal/terminal"
)

func init() {
	keyring.MockInit()
}

func copyApp(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "app")
	if err := os.CopyFS(root, os.DirFS(filepath.Join("..", "setup", "testdata", "app"))); err != nil {
		t.Fatal(err)
	}
	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return run(args...)
}

// run executes the command tree with the current HOME.
func run(args ...string) (string, error) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInstallDryRun(t *testing.T) {
	root := copyApp(t)
	before, _ := os.ReadFile(filepath.Join(root, "android", "build.gradle"))

	out, err := execute(t, "install", "-p", root, "--dry-run",
		"--ios-app-id", "abcde", "--android-app-id", "fghij", "--api-token", "tok")
	if err != nil {
		t.Fatalf("install: %v\n%s", err, out)
	}
	if !strings.Contains(out, "+        classpath \"io.embrace:embrace-swazzler:") {
		t.Errorf("diff missing from output:\n%s", out)
	}
	after, _ := os.ReadFile(filepath.Join(root, "android", "build.gradle"))
	if !bytes.Equal(before, after) {
		t.Error("dry run wrote build.gradle")
	}
}

func TestInstallThenStatusJSON(t *testing.T) {
	root := copyApp(t)
	t.Setenv("EMBRACE_WIZARD_API_TOKEN", "tok")
	if out, err := execute(t, "install", "-p", root, "--ios-app-id", "abcde", "--android-app-id", "fghij", "--no-keychain"); err != nil {
		t.Fatalf("install: %v\n%s", err, out)
	}

	out, err := execute(t, "status", "-p", root, "--json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	start := strings.Index(out, "[")
	if start < 0 {
		t.Fatalf("no JSON in output:\n%s", out)
	}
	var checks []struct {
		Name      string `json:"name"`
		Installed bool   `json:"installed"`
	}
	if err := json.Unmarshal([]byte(out[start:]), &checks); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(checks) == 0 {
		t.Fatal("no checks")
	}
	for _, c := range checks {
		if !c.Installed {
			t.Errorf("%s not installed", c.Name)
		}
	}
}

func TestInstallFailureReturnsError(t *testing.T) {
	root := copyApp(t)
	out, err := execute(t, "install", "-p", root, "--skip-ios", "--no-keychain")
	if err == nil {
		t.Fatalf("expected error without credentials\n%s", out)
	}
	if !strings.Contains(out, "did not complete") {
		t.Errorf("report missing:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "embrace-wizard "+Version {
		t.Errorf("version output = %q", out)
	}
}

func TestDoctor(t *testing.T) {
	root := copyApp(t)
	saved := toolVersion
	t.Cleanup(func() { toolVersion = saved })
	toolVersion = func(tl tool) (string, bool) { return "1.0", tl.command != "pod" }

	tokens := secrets.Open(t.TempDir(), false)
	if err := tokens.SaveToken("HelloWorld", "tok"); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	ok := doctor(terminal.New(&out), root, "", false, tokens)
	if ok {
		t.Error("doctor should fail without CocoaPods")
	}
	got := out.String()
	for _, want := range []string{"React Native app HelloWorld", "SDK: 6.2.0", "API token: saved in the file", "Xcode project found", "CocoaPods not found", "Node.js 1.0"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	out.Reset()
	if doctor(terminal.New(&out), t.TempDir(), "", true, nil) {
		t.Error("doctor should fail without package.json")
	}
}

func TestHistoryRecordsRuns(t *testing.T) {
	root := copyApp(t)
	t.Setenv("HOME", t.TempDir())

	if out, err := run("install", "-p", root, "--dry-run", "--ios-app-id", "abcde",
		"--android-app-id", "fghij", "--api-token", "tok"); err != nil {
		t.Fatalf("install: %v\n%s", err, out)
	}
	if _, err := run("install", "-p", root, "--skip-ios", "--no-keychain"); err == nil {
		t.Fatal("expected failure without credentials")
	}

	out, err := run("history", "-p", root)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if n := strings.Count(out, " install "); n != 2 {
		t.Errorf("listed %d runs, want 2:\n%s", n, out)
	}
	if !strings.Contains(out, "[dry run]") || !strings.Contains(out, "error:") {
		t.Errorf("history output:\n%s", out)
	}

	if _, err := run("history", "--clear"); err != nil {
		t.Fatal(err)
	}
	out, _ = run("history", "-p", root)
	if !strings.Contains(out, "No runs recorded") {
		t.Errorf("history after clear:\n%s", out)
	}
}

func TestStatusJSONKeepsStdoutClean(t *testing.T) {
	root := copyApp(t)
	t.Setenv("HOME", t.TempDir())

	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{"status", "-p", root, "--json", "--verbose"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("status: %v", err)
	}

	var checks []map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &checks); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout.String())
	}
	if len(checks) == 0 {
		t.Error("no checks")
	}
	if !strings.Contains(stderr.String(), "Inspecting project") {
		t.Errorf("progress should go to stderr, got %q", stderr.String())
	}
}
