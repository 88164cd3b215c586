// Package termio adapts the process's controlling terminal between cooked,
// cbreak (raw, no echo, byte-at-a-time), and alternate-screen modes, and
// decodes individual keypresses including multi-byte arrow/escape sequences.
//
// Everything degrades gracefully when stdin is not a tty: Size falls
// back to COLUMNS/LINES, and mode switches become no-ops.
package termio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/clio-cli/clio/internal/ansi"
)

// Mode is the terminal display/input mode.
type Mode int

const (
	Cooked Mode = iota
	Cbreak
	AltScreen
)

// Key is a decoded keypress. Printable runes are carried in Rune; named
// keys (arrows, enter, ctrl sequences) are identified by Name.
type Key struct {
	Rune rune
	Name string // "", "up", "down", "left", "right", "enter", "esc", "ctrl+c", "eof"
}

const (
	KeyUp    = "up"
	KeyDown  = "down"
	KeyLeft  = "left"
	KeyRight = "right"
	KeyEnter = "enter"
	KeyEsc   = "esc"
	KeyCtrlC = "ctrl+c"
	KeyEOF   = "eof"
)

// Adapter owns the controlling terminal's fd and mode stack.
type Adapter struct {
	in     *os.File
	out    io.Writer
	reader *bufio.Reader
	state  *term.State
	mode   Mode

	// mu guards restores, which the signal path drains from a different
	// goroutine than the one switching modes.
	mu       sync.Mutex
	restores []*restoreEntry
	nextID   uint64
}

// restoreEntry tracks one not-yet-run mode restore so the signal path
// can unwind it; a restore that runs normally (via defer) removes its
// entry so the list only ever holds currently active switches.
type restoreEntry struct {
	id uint64
	fn func()
}

// New builds an adapter over stdin/stdout. Safe to construct even when
// stdin/stdout are not a tty; Size and SetMode degrade gracefully.
func New() *Adapter {
	return NewWithIO(os.Stdin, os.Stdout)
}

// NewWithIO builds an adapter over explicit streams, letting tests
// capture terminal output in a buffer instead of stdout.
func NewWithIO(in *os.File, out io.Writer) *Adapter {
	return &Adapter{
		in:     in,
		out:    out,
		reader: bufio.NewReader(in),
	}
}

// IsTerminal reports whether stdin is attached to a real tty. When false,
// the chat controller runs in non-interactive "pipe" mode.
func (a *Adapter) IsTerminal() bool {
	return term.IsTerminal(int(a.in.Fd()))
}

// Size returns (columns, rows), falling back to COLUMNS/LINES env vars
// and finally to 80x24 when neither source is available.
func (a *Adapter) Size() (int, int) {
	if w, h, err := term.GetSize(int(a.in.Fd())); err == nil && w > 0 && h > 0 {
		return w, h
	}
	w, h := 80, 24
	if v, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && v > 0 {
		w = v
	}
	if v, err := strconv.Atoi(os.Getenv("LINES")); err == nil && v > 0 {
		h = v
	}
	return w, h
}

// SetMode switches to mode and returns a restore function that returns the
// terminal to its previous mode. Restore is idempotent and safe to call
// more than once. Every restore closure is also registered on the adapter
// so Restore() — called from the SIGINT/SIGTERM path — can unwind
// whatever modes are active even though deferred calls never run across
// os.Exit.
func (a *Adapter) SetMode(m Mode) (func(), error) {
	prev := a.mode
	switch m {
	case Cbreak:
		if !a.IsTerminal() {
			a.mode = m
			return func() { a.mode = prev }, nil
		}
		st, err := term.MakeRaw(int(a.in.Fd()))
		if err != nil {
			return nil, fmt.Errorf("entering cbreak mode: %w", err)
		}
		a.state = st
		a.mode = m
	case AltScreen:
		fmt.Fprint(a.out, ansi.EnterAltScreen)
		a.mode = m
	case Cooked:
		// handled in restore below
	}

	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.mu.Unlock()

	var once sync.Once
	restore := func() {
		once.Do(func() {
			if prev == AltScreen || m == AltScreen {
				fmt.Fprint(a.out, ansi.ExitAltScreen)
			}
			if a.state != nil {
				_ = term.Restore(int(a.in.Fd()), a.state)
				a.state = nil
			}
			a.mode = prev
			a.forget(id)
		})
	}
	a.mu.Lock()
	a.restores = append(a.restores, &restoreEntry{id: id, fn: restore})
	a.mu.Unlock()
	return restore, nil
}

func (a *Adapter) forget(id uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, e := range a.restores {
		if e.id == id {
			a.restores = append(a.restores[:i], a.restores[i+1:]...)
			return
		}
	}
}

// Restore unwinds every mode switch still active, most recent first,
// leaving the terminal cooked and out of the alternate screen. Called
// from the signal handler before exit, since deferred restores never run
// across os.Exit; calling it when no switch is active is a no-op, and a
// restore already run via defer has removed itself from the list.
func (a *Adapter) Restore() {
	a.mu.Lock()
	entries := append([]*restoreEntry(nil), a.restores...)
	a.mu.Unlock()
	for i := len(entries) - 1; i >= 0; i-- {
		entries[i].fn()
	}
}

// ReadKey blocks for a single keypress, decoding ESC-prefixed arrow-key
// sequences as a unit so a bare Escape can be distinguished from the start
// of "ESC [ A". A short per-byte deadline after seeing ESC lets us tell
// the two apart without a stuck read: if no follow-up byte arrives within
// the window, the lone ESC is delivered immediately.
func (a *Adapter) ReadKey() (Key, error) {
	r, _, err := a.reader.ReadRune()
	if err == io.EOF {
		return Key{Name: KeyEOF}, nil
	}
	if err != nil {
		return Key{}, err
	}

	switch r {
	case 3:
		return Key{Name: KeyCtrlC}, nil
	case '\r', '\n':
		return Key{Name: KeyEnter}, nil
	case 0x1b:
		return a.readEscape()
	default:
		return Key{Rune: r}, nil
	}
}

func (a *Adapter) readEscape() (Key, error) {
	if a.reader.Buffered() == 0 {
		// Give a follow-up byte a brief window to arrive before treating
		// this as a lone Escape keypress.
		time.Sleep(15 * time.Millisecond)
	}
	if a.reader.Buffered() == 0 {
		return Key{Name: KeyEsc}, nil
	}
	b1, err := a.reader.ReadByte()
	if err != nil {
		return Key{Name: KeyEsc}, nil
	}
	if b1 != '[' {
		_ = a.reader.UnreadByte()
		return Key{Name: KeyEsc}, nil
	}
	b2, err := a.reader.ReadByte()
	if err != nil {
		return Key{Name: KeyEsc}, nil
	}
	switch b2 {
	case 'A':
		return Key{Name: KeyUp}, nil
	case 'B':
		return Key{Name: KeyDown}, nil
	case 'C':
		return Key{Name: KeyRight}, nil
	case 'D':
		return Key{Name: KeyLeft}, nil
	default:
		return Key{Name: KeyEsc}, nil
	}
}

// Write emits s to the terminal's output stream.
func (a *Adapter) Write(s string) {
	fmt.Fprint(a.out, s)
}

// Reader returns the adapter's buffered input reader, shared with
// ReadKey, so a caller reading whole lines (the main loop's readline)
// and the pager's single-keypress reads never fight over two separate
// buffers on the same underlying file descriptor.
func (a *Adapter) Reader() *bufio.Reader {
	return a.reader
}

// ClearLine clears the current line and returns the cursor to column 1.
func (a *Adapter) ClearLine() {
	fmt.Fprint(a.out, ansi.CarriageReturnClear())
}
