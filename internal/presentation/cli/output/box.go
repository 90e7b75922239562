package output

import (
	"fmt"
	"strings"
)

// Box prints the given lines inside a rounded border. Line widths are
// measured with ANSI escape sequences stripped, so colored lines align.
func (f *Formatter) Box(lines ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	width := 0
	for _, line := range lines {
		if w := displayWidth(line); w > width {
			width = w
		}
	}

	bar := strings.Repeat("─", width+2)
	if _, err := fmt.Fprintf(f.writer, "╭%s╮\n", bar); err != nil {
		return err
	}
	for _, line := range lines {
		pad := strings.Repeat(" ", width-displayWidth(line))
		if _, err := fmt.Fprintf(f.writer, "│ %s%s │\n", line, pad); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(f.writer, "╰%s╯\n", bar)
	return err
}

// displayWidth counts visible runes, skipping ANSI CSI escape sequences.
func displayWidth(s string) int {
	width := 0
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			width++
		}
	}
	return width
}
