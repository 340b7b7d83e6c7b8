package console

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// Spinner provides an animated progress indicator for the upload step.
type Spinner struct {
	frames   []string
	interval time.Duration
	message  string
	style    lipgloss.Style
	writer   io.Writer

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	frameIdx int
}

// NewSpinner returns a spinner using the bubbles dot frames.
func NewSpinner(w io.Writer, message string, style lipgloss.Style) *Spinner {
	return &Spinner{
		frames:   spinner.Dot.Frames,
		interval: spinner.Dot.FPS,
		message:  message,
		style:    style,
		writer:   w,
	}
}

// Spin runs fn while animating the spinner on an interactive console.
// On a non-interactive console fn runs without any output.
func (c *Console) Spin(message string, fn func() error) error {
	if !c.Interactive() {
		return fn()
	}
	s := NewSpinner(c.w, message, c.theme.Accent)
	s.Start()
	defer s.Stop()
	return fn()
}

// Start begins the animation. Calling Start on a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.run()
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	<-s.doneCh
	fmt.Fprint(s.writer, "\r\033[K")
}

func (s *Spinner) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.render()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.frameIdx = (s.frameIdx + 1) % len(s.frames)
			s.mu.Unlock()
			s.render()
		}
	}
}

func (s *Spinner) render() {
	s.mu.Lock()
	frame := s.frames[s.frameIdx]
	s.mu.Unlock()

	fmt.Fprintf(s.writer, "\r\033[K%s %s", s.style.Render(frame), s.message)
}
