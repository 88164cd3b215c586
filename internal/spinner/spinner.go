// Package spinner drives a small animated indicator shown while waiting on
// a model response. Frame sets mirror charmbracelet/bubbles/spinner's
// built-in styles, but playback is driven by an explicit ticker goroutine
// rather than a bubbletea Cmd, since the chat controller's main loop is a
// synchronous read/stream loop, not an Elm program.
package spinner

import (
	"sync"
	"time"

	"github.com/clio-cli/clio/internal/style"
)

// Frames is a named animation frame set, named after bubbles/spinner's
// equivalents (Dot, Line, MiniDot) so switching styles is familiar to
// anyone who has used the upstream component.
type Frames struct {
	Frames []string
	FPS    time.Duration
}

var (
	Dot     = Frames{Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}, FPS: 80 * time.Millisecond}
	Line    = Frames{Frames: []string{"|", "/", "-", "\\"}, FPS: 120 * time.Millisecond}
	MiniDot = Frames{Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴"}, FPS: 100 * time.Millisecond}
)

// Spinner renders frames to a writer on its own ticker until Stop is
// called. Start/Stop are safe to call from the main loop while the
// goroutine runs concurrently; a mutex guards the shared "visible" line
// state so the spinner never interleaves a partial frame with a Print
// call made by the streaming pipeline.
type Spinner struct {
	mu      sync.Mutex
	frames  Frames
	label   string
	write   func(string)
	clear   func()
	theme   *style.Theme
	stopCh  chan struct{}
	done    chan struct{}
	running bool
}

// New builds a spinner that writes through write and clears its line
// through clear before each frame (and on Stop).
func New(frames Frames, theme *style.Theme, write func(string), clear func()) *Spinner {
	return &Spinner{frames: frames, write: write, clear: clear, theme: theme}
}

// Start begins animating with label shown after the frame glyph. Calling
// Start while already running only replaces the label.
func (s *Spinner) Start(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.label = label
		return
	}
	s.label = label
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	go s.run()
}

func (s *Spinner) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.frames.FPS)
	defer ticker.Stop()
	i := 0
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			label := s.label
			frame := s.frames.Frames[i%len(s.frames.Frames)]
			s.clear()
			s.write(s.theme.Render(style.KeySpinner, frame) + " " + label)
			s.mu.Unlock()
			i++
		}
	}
}

// Stop halts the animation and clears the spinner's line, leaving the
// cursor ready for the next Print call from the streaming pipeline.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()
	<-s.done
	s.clear()
}

// Running reports whether the spinner is currently animating.
func (s *Spinner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
