// Package secrets caches the Embrace API token between wizard runs, one token
// per app. Tokens go to the OS keychain when one is reachable and to a 0600
// JSON file otherwise.
package secrets

import (
	"errors"
	"strings"
)

// ErrNotFound is returned by a backend for an app with no cached token.
var ErrNotFound = errors.New("no cached token")

// backend holds one token per app name.
type backend interface {
	load(app string) (string, error)
	save(app, token string) error
	// forget succeeds when nothing is cached.
	forget(app string) error
	kind() string
}

// Tokens is the API token cache used by the setup flows.
type Tokens struct {
	b backend
}

// Open returns a cache backed by the keychain when a write to it succeeds,
// else by the file under dir. useKeychain false goes straight to the file.
func Open(dir string, useKeychain bool) *Tokens {
	if useKeychain {
		if k, ok := reachKeychain(); ok {
			return &Tokens{b: k}
		}
	}
	return &Tokens{b: newTokenFile(dir)}
}

// Token returns the cached token for app, or "" when none is cached or the
// backend cannot be read. Surrounding whitespace is not a token.
func (t *Tokens) Token(app string) string {
	if t == nil || app == "" {
		return ""
	}
	tok, err := t.b.load(app)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(tok)
}

// SaveToken caches token for app. Empty tokens are refused.
func (t *Tokens) SaveToken(app, token string) error {
	token = strings.TrimSpace(token)
	switch {
	case app == "":
		return errors.New("save token: app name is empty")
	case token == "":
		return errors.New("save token: token is empty")
	}
	return t.b.save(app, token)
}

// Forget drops the token cached for app.
func (t *Tokens) Forget(app string) error {
	return t.b.forget(app)
}

// Backend names where tokens are kept: "keychain" or "file".
func (t *Tokens) Backend() string {
	return t.b.kind()
}
