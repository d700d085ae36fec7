package terminal

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Spinner animates a message while a long operation runs. On a non-terminal
// writer it prints the message once instead.
type Spinner struct {
	ui      *UI
	mu      sync.Mutex
	message string
	running bool
	done    chan struct{}
	stopped chan struct{}
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a spinner writing through u.
func (u *UI) NewSpinner(message string) *Spinner {
	return &Spinner{
		ui:      u,
		message: message,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	if !s.ui.tty {
		s.ui.Debug(s.message)
		close(s.stopped)
		return
	}

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			s.mu.Lock()
			msg := s.message
			s.mu.Unlock()

			frame := spinnerFrames[i%len(spinnerFrames)]
			s.ui.printf("\r%s %s", s.ui.paint(Cyan, frame), msg)

			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Update changes the spinner message.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.done)
	<-s.stopped
	if s.ui.tty {
		s.ui.printf("\r%s\r", strings.Repeat(" ", 80))
	}
}

// StopWithMessage stops the spinner and prints a final message.
func (s *Spinner) StopWithMessage(message string) {
	s.Stop()
	s.ui.printf("%s\n", message)
}

// Step runs fn behind a spinner labelled message.
func (u *UI) Step(message string, fn func() error) error {
	s := u.NewSpinner(message)
	s.Start()
	err := fn()
	s.Stop()
	if err != nil {
		return fmt.Errorf("%s: %w", strings.TrimSuffix(message, "..."), err)
	}
	return nil
}
