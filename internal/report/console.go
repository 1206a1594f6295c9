// Package report renders driver progress for a terminal or a log file.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"bitsearch/internal/evo"
)

const (
	ansiBold  = "\x1b[1m"
	ansiGreen = "\x1b[32m"
	ansiReset = "\x1b[0m"
)

// Console writes one line per generation and a closing summary.
type Console struct {
	out   io.Writer
	quiet bool
	color bool
}

// NewConsole highlights the summary only when out is a terminal. A quiet
// console skips per-generation lines.
func NewConsole(out io.Writer, quiet bool) *Console {
	return &Console{out: out, quiet: quiet, color: isTerminal(out)}
}

func (c *Console) Generation(r evo.GenerationReport) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, "Generation %d: Best combination: %s  Error: %d\n", r.Generation, r.Best.Genome, r.Best.Error)
}

func (c *Console) Final(r evo.Result) {
	bits := r.Best.Genome.String()
	if c.color {
		style := ansiBold
		if r.Solved {
			style += ansiGreen
		}
		bits = style + bits + ansiReset
	}
	fmt.Fprintf(c.out, "\nBest combination found: %s\n", bits)
	fmt.Fprintf(c.out, "Error: %d\n", r.Best.Error)
	fmt.Fprintf(c.out, "Found at generation: %d\n", r.Best.Generation)
	fmt.Fprintf(c.out, "generations=%d evaluations=%s solved=%t\n", r.GenerationsRun, humanize.Comma(int64(r.Evaluations)), r.Solved)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
