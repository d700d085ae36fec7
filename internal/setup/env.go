// Package setup wires the patching engine into the install, uninstall and
// status flows of an Embrace React Native integration.
package setup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/embrace-io/embrace-wizard/internal/config"
	"github.com/embrace-io/embrace-wizard/internal/patch"
	"github.com/embrace-io/embrace-wizard/internal/secrets"
	"github.com/embrace-io/embrace-wizard/internal/wizard"
)

var (
	// ErrAnchorNotFound is returned when a file lacks the line a patch hangs
	// off. It is the same value as patch.ErrAnchorNotFound.
	ErrAnchorNotFound = patch.ErrAnchorNotFound
	// ErrMissingValue is returned when a required value is neither
	// configured nor obtainable by prompting.
	ErrMissingValue = errors.New("missing value")
)

// Output is where a run reports progress and dry-run diffs.
type Output interface {
	wizard.Logger
	Debug(msg string)
	Diff(diff string)
}

// Prompter asks the user for values that are not configured.
type Prompter interface {
	AskRequired(label string) (string, error)
	AskSecret(label string) (string, error)
}

// NoPrompt fails every prompt. It is used when no user is attached.
type NoPrompt struct{}

func (NoPrompt) AskRequired(label string) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrMissingValue, label)
}

func (NoPrompt) AskSecret(label string) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrMissingValue, label)
}

// Env carries what every flow needs. Catalog defaults to patch.DefaultCatalog().
type Env struct {
	Config  *config.Config
	Out     Output
	Prompt  Prompter
	Secrets *secrets.Tokens
	Catalog *patch.Catalog
}

// flow is one run: the wizard resolving fields plus the helpers steps share.
type flow struct {
	Env
	w       *wizard.Wizard
	persist persister
}

func newFlow(env Env) *flow {
	if env.Catalog == nil {
		env.Catalog = patch.DefaultCatalog()
	}
	if env.Prompt == nil {
		env.Prompt = NoPrompt{}
	}
	f := &flow{
		Env:     env,
		w:       wizard.New(env.Out, wizard.WithFallbackURL(env.Config.DocsURL)),
		persist: persister{dryRun: env.Config.DryRun, out: env.Out},
	}
	f.registerFields()
	return f
}

// rel shortens path for messages.
func (f *flow) rel(path string) string {
	if r, err := filepath.Rel(f.Config.ProjectRoot, path); err == nil {
		return r
	}
	return path
}

func (f *flow) docURL(definition string) string {
	return f.Catalog.MustGet(definition).DocURL
}

// value resolves a field and asserts its type.
func value[T any](ctx context.Context, w *wizard.Wizard, name string) (T, error) {
	var zero T
	v, err := w.FieldValue(ctx, name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("field %s holds %T", name, v)
	}
	return t, nil
}

// vars resolves the named fields into patch placeholders. pairs alternate
// placeholder name and field name.
func (f *flow) vars(ctx context.Context, pairs ...string) (patch.Vars, error) {
	vars := patch.Vars{}
	for i := 0; i+1 < len(pairs); i += 2 {
		s, err := f.w.FieldString(ctx, pairs[i+1])
		if err != nil {
			return nil, err
		}
		vars[pairs[i]] = s
	}
	return vars, nil
}
