package logger

import (
	"io"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
)

////////////////////////////////////////////////////////////////////////////////
// Logging Configuration Functions
////////////////////////////////////////////////////////////////////////////////

// InitLogger sets up the global logger: colored text on stderr and a copy of
// every entry in logFile.
func InitLogger(dbg bool, logFile io.Writer) {
	log.SetFormatter(&log.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})

	if dbg {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if logFile != nil {
		log.AddHook(lfshook.NewHook(logFile, &log.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		}))
	}
}

// ForRun returns the entry every component of one run logs through.
func ForRun(runID string, command string) *log.Entry {
	return log.WithFields(log.Fields{
		"run_id":  runID,
		"command": command,
	})
}

// NewClientLogger returns a separate logger for HTTP client traces written to
// out.
func NewClientLogger(out io.Writer) *log.Logger {
	logger := log.New()
	logger.SetLevel(log.InfoLevel)
	logger.SetOutput(out)
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
		DisableQuote:  true,
	})
	return logger
}
