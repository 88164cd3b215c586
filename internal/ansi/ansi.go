// Package ansi wraps the escape sequences the terminal adapter needs:
// cursor movement, screen/line clearing, and the alternate screen buffer.
package ansi

import (
	"fmt"

	"github.com/charmbracelet/x/ansi"
)

var (
	EnterAltScreen = ansi.SetMode(ansi.AltScreenSaveCursorMode)
	ExitAltScreen  = ansi.ResetMode(ansi.AltScreenSaveCursorMode)
	HideCursor     = ansi.ResetMode(ansi.TextCursorEnableMode)
	ShowCursor     = ansi.SetMode(ansi.TextCursorEnableMode)
	ClearLine      = ansi.EraseLine(2)
	ClearScreen    = ansi.EraseDisplay(2)
)

// CursorHome moves the cursor to row 1, column 1 — used together with
// ClearScreen to redraw a page from the top on history navigation.
const CursorHome = "\x1b[H"

// CursorUp moves the cursor up n rows. n <= 0 is a no-op.
func CursorUp(n int) string {
	if n <= 0 {
		return ""
	}
	return ansi.CursorUp(n)
}

// CursorToColumn moves the cursor to column col (1-indexed).
func CursorToColumn(col int) string {
	return fmt.Sprintf("\x1b[%dG", col)
}

// CarriageReturnClear returns to column 1 and clears the rest of the line,
// the sequence used to redraw a compact (non-paused) pager hint in place.
func CarriageReturnClear() string {
	return "\r" + ClearLine
}
