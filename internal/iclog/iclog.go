// Package iclog provides the small diagnostic-logging surface used by the
// automaton and lower packages: the table-build state-count summary and
// "unsupported definition" warnings. It wraps
// pterm so that output reads the way the rest of the compiler-construction
// pack formats its terminal diagnostics, while staying nil-safe so library
// code can log unconditionally without callers having to wire one up.
package iclog

import (
	"fmt"

	"github.com/pterm/pterm"
)

// Logger is the minimal logging contract used throughout this module. A nil
// *Logger is valid and discards everything, so components can hold one
// unconditionally.
type Logger struct {
	printer *pterm.PrefixPrinter
}

// New returns a Logger that writes through pterm's default info printer
// with the given prefix (e.g. "ictio/grammar").
func New(prefix string) *Logger {
	p := pterm.Info.WithPrefix(pterm.Prefix{
		Text:  prefix,
		Style: pterm.Info.Prefix.Style,
	})
	return &Logger{printer: &p}
}

// Discard returns a Logger that drops everything written to it.
func Discard() *Logger {
	return nil
}

// Infof logs a diagnostic message. A nil Logger is a silent no-op.
func (l *Logger) Infof(format string, a ...interface{}) {
	if l == nil || l.printer == nil {
		return
	}
	l.printer.Println(fmt.Sprintf(format, a...))
}

// Warnf logs a warning, e.g. a scanner definition kind it cannot lower. A
// nil Logger is a silent no-op.
func (l *Logger) Warnf(format string, a ...interface{}) {
	if l == nil {
		return
	}
	pterm.Warning.Println(fmt.Sprintf(format, a...))
}
