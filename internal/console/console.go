// Package console renders the reporter's human-facing output: the empty-run
// notice, the end-of-run summary and the upload spinner.
package console

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/dkoosis/zephyr-bridge/pkg/status"
)

// Prefix tags every console line written by the bridge.
const Prefix = "[zephyr-bridge]"

// Console writes styled messages to w.
type Console struct {
	w     io.Writer
	theme Theme
	tty   bool
}

// New returns a Console writing to w. Colors are used only when w is a terminal,
// noColor is false and NO_COLOR is unset.
func New(w io.Writer, noColor bool) *Console {
	tty := IsTerminal(w)
	theme := DefaultTheme()
	if noColor || !tty || os.Getenv("NO_COLOR") != "" {
		theme = MonoTheme()
	}
	return &Console{w: w, theme: theme, tty: tty}
}

// NewWithTheme returns a Console with an explicit theme; used by tests.
func NewWithTheme(w io.Writer, theme Theme) *Console {
	return &Console{w: w, theme: theme}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Interactive reports whether animated output is appropriate.
func (c *Console) Interactive() bool {
	return c != nil && c.tty
}

// Notice prints an informational message in the muted style.
func (c *Console) Notice(msg string) {
	if c == nil {
		return
	}
	fmt.Fprintln(c.w, c.theme.Muted.Render(Prefix+": "+msg))
}

// Errorf prints an error line.
func (c *Console) Errorf(format string, args ...any) {
	if c == nil {
		return
	}
	fail := c.theme.Mark(status.ResultFailed)
	line := fmt.Sprintf("%s %s: %s", fail.Icon, Prefix, fmt.Sprintf(format, args...))
	fmt.Fprintln(c.w, fail.Style.Render(line))
}

// SummaryRow is one line of the end-of-run summary table.
type SummaryRow struct {
	Key    string
	Title  string
	Result status.Result
}

// Summary describes a finished run for display.
type Summary struct {
	Rows      []SummaryRow
	Excluded  int
	CycleKey  string
	CycleURL  string
	Published bool
}

// PrintSummary renders the per-test table, the per-result totals and the created cycle.
func (c *Console) PrintSummary(s Summary) {
	if c == nil {
		return
	}
	t := c.theme
	keyWidth := 0
	for _, r := range s.Rows {
		keyWidth = max(keyWidth, runewidth.StringWidth(r.Key))
	}

	counts := make(map[status.Result]int)
	for _, r := range s.Rows {
		counts[r.Result]++
		m := t.Mark(r.Result)
		fmt.Fprintf(c.w, "  %s %s  %s  %s\n",
			m.Style.Render(m.Icon),
			t.Key.Render(runewidth.FillRight(r.Key, keyWidth)),
			runewidth.Truncate(r.Title, 60, "…"),
			t.Muted.Render(string(r.Result)))
	}

	results := make([]string, 0, len(counts))
	for r := range counts {
		results = append(results, string(r))
	}
	sort.Strings(results)
	parts := make([]string, 0, len(results)+1)
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("%s: %d", r, counts[status.Result(r)]))
	}
	if s.Excluded > 0 {
		parts = append(parts, fmt.Sprintf("without case key: %d", s.Excluded))
	}
	fmt.Fprintln(c.w, t.Accent.Render(Prefix+": "+strings.Join(parts, " "+t.Bullet+" ")))

	if s.Published {
		line := "test cycle " + s.CycleKey
		if s.CycleURL != "" {
			line += " " + s.CycleURL
		}
		ok := t.Mark(status.ResultPassed)
		fmt.Fprintln(c.w, ok.Style.Render(ok.Icon+" "+Prefix+": "+line))
	}
}
