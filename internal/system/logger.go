package system

import (
	"os"

	clog "github.com/charmbracelet/log"
)

// Logger is the shared application logger.
// It prints to stderr with timestamps enabled; console output goes to stdout.
var Logger = clog.NewWithOptions(os.Stderr, clog.Options{
	ReportTimestamp: true,
	Prefix:          "toolchain",
})

// SetVerbose switches the shared logger to debug level, which includes every
// external command with its duration.
func SetVerbose(v bool) {
	if v {
		Logger.SetLevel(clog.DebugLevel)
		Logger.SetReportCaller(true)
		return
	}
	Logger.SetLevel(clog.InfoLevel)
	Logger.SetReportCaller(false)
}
