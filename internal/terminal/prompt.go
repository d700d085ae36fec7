package terminal

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/term"
)

// ErrNoAnswer is returned when input ends before an answer is given.
var ErrNoAnswer = errors.New("no answer given")

func (u *UI) readLine() (string, error) {
	line, err := u.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNoAnswer
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Ask prompts for a line of text. An empty answer yields def.
func (u *UI) Ask(label, def string) (string, error) {
	if def != "" {
		u.printf("%s %s [%s]: ", u.paint(Bold, "?"), label, def)
	} else {
		u.printf("%s %s: ", u.paint(Bold, "?"), label)
	}
	answer, err := u.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// AskRequired prompts until a non-empty answer is given.
func (u *UI) AskRequired(label string) (string, error) {
	for {
		answer, err := u.Ask(label, "")
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
		u.Warning(label + " is required")
	}
}

// AskSecret prompts without echoing when input is a terminal.
func (u *UI) AskSecret(label string) (string, error) {
	u.printf("%s %s: ", u.paint(Bold, "?"), label)
	if u.Interactive() {
		b, err := term.ReadPassword(int(u.inFile.Fd()))
		u.printf("\n")
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	return u.readLine()
}

// Confirm asks a yes/no question.
func (u *UI) Confirm(label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	u.printf("%s %s (%s): ", u.paint(Bold, "?"), label, hint)
	answer, err := u.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
