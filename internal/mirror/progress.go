package mirror

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ConsolePrinter returns a ProgressFunc that renders a per-file progress
// line on w. On a terminal the line is redrawn in place and cleared
// between tree entries; otherwise one line is printed per completed file.
func ConsolePrinter(w io.Writer) ProgressFunc {
	interactive := false
	if f, ok := w.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}

	var current string
	lastPct := -1

	return func(name string, fraction float64) {
		pct := int(fraction * 100)

		if !interactive {
			if pct >= 100 && (name != current || lastPct < 100) {
				fmt.Fprintf(w, "%s  100%%\n", name)
			}
			current = name
			lastPct = pct
			return
		}

		if name != current {
			if current != "" && lastPct < 100 {
				fmt.Fprintln(w)
			}
			current = name
			lastPct = -1
		}
		if pct == lastPct {
			return
		}
		lastPct = pct

		// \033[2K clears the previous entry's output.
		fmt.Fprintf(w, "\r\033[2K%s  %3d%%", name, pct)
		if pct >= 100 {
			fmt.Fprintln(w)
		}
	}
}
