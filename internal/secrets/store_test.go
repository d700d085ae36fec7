package secrets

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

func init() {
	keyring.MockInit()
}

func exercise(t *testing.T, tokens *Tokens) {
	t.Helper()

	if got := tokens.Token("HelloWorld"); got != "" {
		t.Fatalf("Token before save = %q, want empty", got)
	}
	if err := tokens.SaveToken("HelloWorld", "  tok_1\n"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	if err := tokens.SaveToken("Other", "tok_2"); err != nil {
		t.Fatalf("SaveToken other: %v", err)
	}
	if got := tokens.Token("HelloWorld"); got != "tok_1" {
		t.Errorf("Token = %q, want tok_1", got)
	}
	if err := tokens.Forget("HelloWorld"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if got := tokens.Token("HelloWorld"); got != "" {
		t.Errorf("Token after Forget = %q, want empty", got)
	}
	if got := tokens.Token("Other"); got != "tok_2" {
		t.Errorf("Forget dropped another app's token: %q", got)
	}
	if err := tokens.Forget("HelloWorld"); err != nil {
		t.Fatalf("second Forget: %v", err)
	}
}

func TestKeychainTokens(t *testing.T) {
	tokens := Open(t.TempDir(), true)
	if tokens.Backend() != "keychain" {
		t.Fatalf("Backend = %q, want keychain with the mock provider", tokens.Backend())
	}
	exercise(t, tokens)
}

func TestFileTokens(t *testing.T) {
	dir := t.TempDir()
	tokens := Open(dir, false)
	if tokens.Backend() != "file" {
		t.Fatalf("Backend = %q, want file", tokens.Backend())
	}
	exercise(t, tokens)

	info, err := os.Stat(filepath.Join(dir, fileName))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != fileMode {
		t.Errorf("mode = %o, want %o", perm, fileMode)
	}
	if got := Open(dir, false).Token("Other"); got != "tok_2" {
		t.Errorf("reopened Token = %q, want tok_2", got)
	}
}

func TestFileRecordsSaveTime(t *testing.T) {
	dir := t.TempDir()
	f := newTokenFile(dir)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return at }
	if err := (&Tokens{b: f}).SaveToken("HelloWorld", "tok"); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, fileName))
	if err != nil {
		t.Fatal(err)
	}
	var entries map[string]tokenEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		t.Fatal(err)
	}
	if got := entries["HelloWorld"]; got.Token != "tok" || !got.SavedAt.Equal(at) {
		t.Errorf("entry = %+v", got)
	}
}

func TestFileRemovedWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	tokens := Open(dir, false)
	if err := tokens.SaveToken("HelloWorld", "tok"); err != nil {
		t.Fatal(err)
	}
	if err := tokens.Forget("HelloWorld"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, fileName)); !os.IsNotExist(err) {
		t.Errorf("token file still present: %v", err)
	}
}

func TestCorruptFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, fileName), []byte("{nope"), fileMode); err != nil {
		t.Fatal(err)
	}
	tokens := Open(dir, false)
	if got := tokens.Token("HelloWorld"); got != "" {
		t.Fatalf("Token on corrupt file = %q", got)
	}
	if err := tokens.SaveToken("HelloWorld", "tok"); err != nil {
		t.Fatalf("SaveToken on corrupt file: %v", err)
	}
	if got := tokens.Token("HelloWorld"); got != "tok" {
		t.Errorf("Token after rewrite = %q", got)
	}
}

func TestSaveTokenRejectsEmpty(t *testing.T) {
	tokens := Open(t.TempDir(), false)
	if err := tokens.SaveToken("HelloWorld", "   "); err == nil {
		t.Error("blank token saved")
	}
	if err := tokens.SaveToken("", "tok"); err == nil {
		t.Error("token saved without an app name")
	}
}

func TestNilTokens(t *testing.T) {
	var tokens *Tokens
	if got := tokens.Token("HelloWorld"); got != "" {
		t.Errorf("nil Token = %q", got)
	}
}
