// Package wizard sequences install and uninstall steps against a shared set
// of lazily fetched configuration fields.
//
// Steps run one at a time in registration order. A failing step stops the
// run; RunSteps then reports every step that did not complete together with
// the documentation page describing how to finish it by hand.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// DefaultDocURL is reported for failed steps that carry no DocURL.
const DefaultDocURL = "https://embrace.io/docs/react-native/integration/"

var (
	// ErrUnknownField is returned when a value is requested for a field
	// that was never registered.
	ErrUnknownField = errors.New("unknown field")
	// ErrAlreadyRun is returned when ProcessSteps is called a second time.
	ErrAlreadyRun = errors.New("wizard has already run")
)

// Logger receives the wizard's user-facing output.
type Logger interface {
	Info(msg string)
	Success(msg string)
	Warning(msg string)
	Error(msg string)
	Detail(label, value string)
}

// Field is a named configuration value fetched on first use.
type Field struct {
	Name  string
	Fetch func(ctx context.Context) (any, error)
}

// Step is one unit of work. Run receives the wizard so it can resolve
// fields and log.
type Step struct {
	Name   string
	DocURL string
	Run    func(ctx context.Context, w *Wizard) error
}

// State is the lifecycle of a Wizard.
type State int

const (
	Idle State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// StepStatus reports one step's outcome.
type StepStatus struct {
	Name      string
	DocURL    string
	Completed bool
}

// Report is the outcome of RunSteps.
type Report struct {
	// Err is the error of the step that failed, nil on success.
	Err        error
	Completed  []StepStatus
	Incomplete []StepStatus
}

// StepError wraps the error returned by a failing step.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return e.Step + ": " + e.Err.Error() }
func (e *StepError) Unwrap() error { return e.Err }

type stepEntry struct {
	Step
	completed bool
}

// Wizard holds the registered fields and steps.
type Wizard struct {
	log         Logger
	fallbackURL string

	mu     sync.Mutex
	state  State
	fields map[string]Field
	values map[string]any
	order  []string
	steps  []*stepEntry
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithFallbackURL sets the URL reported for steps without a DocURL.
func WithFallbackURL(url string) Option {
	return func(w *Wizard) {
		if url != "" {
			w.fallbackURL = url
		}
	}
}

// New returns an idle wizard logging to log.
func New(log Logger, opts ...Option) *Wizard {
	w := &Wizard{
		log:         log,
		fallbackURL: DefaultDocURL,
		fields:      make(map[string]Field),
		values:      make(map[string]any),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Log returns the wizard's logger.
func (w *Wizard) Log() Logger { return w.log }

// State returns the current lifecycle state.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// RegisterField adds a field. It panics on a duplicate name or once the
// wizard has started.
func (w *Wizard) RegisterField(f Field) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != Idle {
		panic(fmt.Sprintf("wizard: field %q registered after run", f.Name))
	}
	if _, exists := w.fields[f.Name]; exists {
		panic(fmt.Sprintf("wizard: field %q already registered", f.Name))
	}
	w.fields[f.Name] = f
	w.order = append(w.order, f.Name)
}

// RegisterStep appends a step. It panics on a duplicate name or once the
// wizard has started.
func (w *Wizard) RegisterStep(s Step) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != Idle {
		panic(fmt.Sprintf("wizard: step %q registered after run", s.Name))
	}
	for _, existing := range w.steps {
		if existing.Name == s.Name {
			panic(fmt.Sprintf("wizard: step %q already registered", s.Name))
		}
	}
	w.steps = append(w.steps, &stepEntry{Step: s})
}

// Fields returns the registered field names in registration order.
func (w *Wizard) Fields() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.order...)
}

// FieldValue returns the value of the named field, fetching it on first
// use and caching it for the rest of the wizard's life. Errors are not
// cached. Callers racing on a field that has not resolved yet each fetch it;
// the first value stored wins. Use FieldValueList up front when a field must
// be fetched exactly once.
func (w *Wizard) FieldValue(ctx context.Context, name string) (any, error) {
	w.mu.Lock()
	if v, ok := w.values[name]; ok {
		w.mu.Unlock()
		return v, nil
	}
	f, ok := w.fields[name]
	w.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}

	v, err := f.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", name, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if cached, ok := w.values[name]; ok {
		return cached, nil
	}
	w.values[name] = v
	return v, nil
}

// FieldString is FieldValue for string fields.
func (w *Wizard) FieldString(ctx context.Context, name string) (string, error) {
	v, err := w.FieldValue(ctx, name)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	return fmt.Sprint(v), nil
}

// FieldValueList resolves the fields one after another, in the order given.
func (w *Wizard) FieldValueList(ctx context.Context, names ...string) ([]any, error) {
	out := make([]any, 0, len(names))
	for _, name := range names {
		v, err := w.FieldValue(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Decode resolves the fields in order and decodes them into out, a pointer
// to a struct whose mapstructure tags name the fields.
func (w *Wizard) Decode(ctx context.Context, out any, names ...string) error {
	values, err := w.FieldValueList(ctx, names...)
	if err != nil {
		return err
	}
	m := make(map[string]any, len(names))
	for i, name := range names {
		m[name] = values[i]
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(m)
}

// Steps returns the status of every registered step in order.
func (w *Wizard) Steps() []StepStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]StepStatus, len(w.steps))
	for i, s := range w.steps {
		out[i] = StepStatus{Name: s.Name, DocURL: s.DocURL, Completed: s.completed}
	}
	return out
}

// ProcessSteps runs every step in registration order, each one only after
// the previous returned. The first error stops the run and is returned as a
// *StepError; later steps never start.
func (w *Wizard) ProcessSteps(ctx context.Context) error {
	w.mu.Lock()
	if w.state != Idle {
		w.mu.Unlock()
		return ErrAlreadyRun
	}
	w.state = Running
	steps := append([]*stepEntry(nil), w.steps...)
	w.mu.Unlock()

	for _, s := range steps {
		err := ctx.Err()
		if err == nil {
			err = s.Run(ctx, w)
		}
		if err != nil {
			w.setState(Failed)
			return &StepError{Step: s.Name, Err: err}
		}
		w.mu.Lock()
		s.completed = true
		w.mu.Unlock()
		w.log.Success(s.Name + " completed")
	}
	w.setState(Completed)
	return nil
}

func (w *Wizard) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// RunSteps runs ProcessSteps and turns a failure into a report: the error
// is logged, followed by each step that did not complete and where to read
// about finishing it manually. It does not return the error; see Report.Err.
func (w *Wizard) RunSteps(ctx context.Context) Report {
	err := w.ProcessSteps(ctx)

	r := Report{Err: err}
	for _, s := range w.Steps() {
		if s.Completed {
			r.Completed = append(r.Completed, s)
			continue
		}
		if s.DocURL == "" {
			s.DocURL = w.fallbackURL
		}
		r.Incomplete = append(r.Incomplete, s)
	}

	if err == nil {
		w.log.Success("Done.")
		return r
	}
	w.log.Error(err.Error())
	w.log.Warning("The following steps did not complete. Follow the linked guides to finish them manually:")
	for _, s := range r.Incomplete {
		w.log.Detail(s.Name, s.DocURL)
	}
	return r
}
