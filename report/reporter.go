package report

import (
	"fmt"
	"sync"

	"github.com/pterm/pterm"
)

// Enumeration of the different possible log levels.
const (
	LogLevelSilent  = iota // Displays no output.
	LogLevelError          // Displays only errors to the user.
	LogLevelWarn           // Displays only warnings and errors to the user.
	LogLevelVerbose        // Displays all compilation messages to the user (default).
)

// Reporter is responsible for reporting errors, warnings, and other kinds of
// messages to the user during compilation. It respects the set log level and
// is safe to call from multiple goroutines, since the phase analyzer and
// lowerer may process independent kernel specializations concurrently.
type Reporter struct {
	m         *sync.Mutex
	logLevel  int
	errCount  int
	warnCount int
}

// rep is the global reporter instance.
var rep *Reporter

// InitReporter initializes the global reporter to the given log level. If it
// has already been initialized, this function does nothing.
func InitReporter(logLevel int) {
	if rep == nil {
		rep = &Reporter{m: &sync.Mutex{}, logLevel: logLevel}
	}
}

// ShouldProceed indicates whether any errors have been reported so far.
func ShouldProceed() bool {
	if rep == nil {
		return true
	}
	return rep.errCount == 0
}

var (
	errorTag = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	warnTag  = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	infoTag  = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)

	errorFG = pterm.FgRed
	warnFG  = pterm.FgYellow
	infoFG  = pterm.FgLightGreen
)

// ReportError reports a *CompileError to the user, respecting the log level.
func ReportError(err *CompileError) {
	if rep == nil || rep.logLevel < LogLevelError {
		return
	}
	rep.m.Lock()
	defer rep.m.Unlock()
	rep.errCount++

	errorTag.Print(err.Kind.String())
	errorFG.Println(" " + err.Message + posSuffix(err.Pos))
}

// ReportWarning reports a non-fatal warning tied to a position.
func ReportWarning(pos *Position, format string, args ...interface{}) {
	if rep == nil || rep.logLevel < LogLevelWarn {
		return
	}
	rep.m.Lock()
	defer rep.m.Unlock()
	rep.warnCount++

	warnTag.Print("Warning")
	warnFG.Println(" " + fmt.Sprintf(format, args...) + posSuffix(pos))
}

// ReportInfo reports an informational message; only shown at verbose level.
func ReportInfo(tag, msg string) {
	if rep == nil || rep.logLevel < LogLevelVerbose {
		return
	}
	rep.m.Lock()
	defer rep.m.Unlock()

	infoTag.Print(tag)
	infoFG.Println(" " + msg)
}

func posSuffix(pos *Position) string {
	if pos == nil {
		return ""
	}
	return " (" + pos.String() + ")"
}
