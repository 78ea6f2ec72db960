package report

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
)

// ICE reports an internal compiler error: a condition the compiler assumes
// can never happen. Always displayed regardless of log level.
func ICE(format string, args ...interface{}) {
	pterm.NewStyle(pterm.BgMagenta, pterm.FgWhite).Print("Internal Error")
	pterm.FgMagenta.Println(" " + fmt.Sprintf(format, args...))
	os.Exit(2)
}

// Fatal reports a fatal, non-compile error (bad build configuration, an
// unreadable loam.toml, an unknown backend name) and exits.
func Fatal(format string, args ...interface{}) {
	if rep != nil && rep.logLevel == LogLevelSilent {
		os.Exit(1)
	}
	pterm.NewStyle(pterm.BgRed, pterm.FgWhite).Print("Fatal Error")
	pterm.FgRed.Println(" " + fmt.Sprintf(format, args...))
	os.Exit(1)
}

// Catch recovers a panic raised by report.Raise, reports the *CompileError
// it carries, and swallows it so the enclosing pass can continue with the
// next kernel/statement. Any other panic value is re-raised as an ICE. It
// must always be deferred.
func Catch() {
	if x := recover(); x != nil {
		if cerr, ok := x.(*CompileError); ok {
			ReportError(cerr)
		} else if err, ok := x.(error); ok {
			ICE("%s", err)
		} else {
			ICE("%v", x)
		}
	}
}

// AnyErrors reports whether any error has been reported so far.
func AnyErrors() bool {
	return rep != nil && rep.errCount > 0
}
