package terminal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Colors for terminal output.
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
)

// UI writes user-facing messages to one writer. Nothing in the program
// prints to stdout directly, so tests capture output by handing UI a buffer.
type UI struct {
	mu      sync.Mutex
	out     io.Writer
	in      *bufio.Reader
	inFile  *os.File
	color   bool
	tty     bool
	verbose bool
}

// Option configures a UI.
type Option func(*UI)

// WithInput sets where prompts read answers from.
func WithInput(r io.Reader) Option {
	return func(u *UI) {
		u.in = bufio.NewReader(r)
		u.inFile, _ = r.(*os.File)
	}
}

// WithColor forces ANSI colors on or off.
func WithColor(on bool) Option {
	return func(u *UI) { u.color = on }
}

// WithVerbose enables Debug output.
func WithVerbose(on bool) Option {
	return func(u *UI) { u.verbose = on }
}

// New returns a UI writing to out. Colors default to off.
func New(out io.Writer, opts ...Option) *UI {
	u := &UI{out: out, in: bufio.NewReader(strings.NewReader(""))}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Stdio returns a UI on stdout and stdin, colored when stdout is a terminal.
func Stdio(opts ...Option) *UI {
	tty := term.IsTerminal(int(os.Stdout.Fd()))
	base := []Option{WithInput(os.Stdin), WithColor(tty)}
	u := New(os.Stdout, append(base, opts...)...)
	u.tty = tty
	return u
}

// Writer returns the underlying writer.
func (u *UI) Writer() io.Writer { return u.out }

// Interactive reports whether both ends are a terminal.
func (u *UI) Interactive() bool {
	return u.tty && u.inFile != nil && term.IsTerminal(int(u.inFile.Fd()))
}

func (u *UI) paint(codes, s string) string {
	if !u.color {
		return s
	}
	return codes + s + Reset
}

func (u *UI) printf(format string, args ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(u.out, format, args...)
}

// Success prints a green success message.
func (u *UI) Success(msg string) {
	u.printf("%s %s\n", u.paint(Bold+Green, "✓"), msg)
}

// Error prints a red error message.
func (u *UI) Error(msg string) {
	u.printf("%s %s\n", u.paint(Bold+Red, "✗"), msg)
}

// Info prints a blue info message.
func (u *UI) Info(msg string) {
	u.printf("%s %s\n", u.paint(Bold+Blue, "i"), msg)
}

// Warning prints a yellow warning message.
func (u *UI) Warning(msg string) {
	u.printf("%s %s\n", u.paint(Bold+Yellow, "!"), msg)
}

// Header prints a bold header.
func (u *UI) Header(msg string) {
	u.printf("\n%s\n", u.paint(Bold, msg))
}

// Detail prints an indented detail line.
func (u *UI) Detail(label, value string) {
	u.printf("  %s %s\n", u.paint(Dim, label+":"), value)
}

// Debug prints a dimmed line when verbose output is on.
func (u *UI) Debug(msg string) {
	if !u.verbose {
		return
	}
	u.printf("%s\n", u.paint(Dim, "  "+msg))
}

// Divider prints a horizontal line.
func (u *UI) Divider() {
	u.printf("%s\n", u.paint(Dim, strings.Repeat("─", 60)))
}

// Diff prints a unified diff, coloring added and removed lines.
func (u *UI) Diff(diff string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Fprint(u.out, u.paint(Bold, line))
		case strings.HasPrefix(line, "+"):
			fmt.Fprint(u.out, u.paint(Green, line))
		case strings.HasPrefix(line, "-"):
			fmt.Fprint(u.out, u.paint(Red, line))
		case strings.HasPrefix(line, "@@"):
			fmt.Fprint(u.out, u.paint(Cyan, line))
		default:
			fmt.Fprint(u.out, line)
		}
	}
}

// Banner prints the welcome box with the given version.
func (u *UI) Banner(version string) {
	u.printf("\n")
	u.printf("  %s\n", u.paint(Dim, "╭─────────────────────────────────╮"))
	u.printf("  %s  Embrace Wizard %s%s\n", u.paint(Dim, "│"), u.paint(Bold, fmt.Sprintf("%-16s", "v"+version)), u.paint(Dim, "│"))
	u.printf("  %s  React Native native setup      %s\n", u.paint(Dim, "│"), u.paint(Dim, "│"))
	u.printf("  %s\n", u.paint(Dim, "╰─────────────────────────────────╯"))
	u.printf("\n")
}
