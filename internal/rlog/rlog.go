// Package rlog configures the router's structured logger.
//
// Orchestrates logrus the way system/runtime/lib/logging configures its
// own hand-rolled logger: level from env, JSON when AOPS_LOG_FORMAT=json
// (text otherwise), fields instead of formatted strings.
package rlog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. Hooks are short-lived CLI invocations,
// so a package-level singleton (mirroring the teacher's orchestrator
// libraries) is simpler than threading a logger through every call.
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	// Hook stdout is reserved for the JSON verdict (spec §6); stderr logs
	// are for humans/log-aggregators, never read by the calling runtime.
	if os.Getenv("AOPS_LOG_FORMAT") == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	switch os.Getenv("AOPS_LOG_LEVEL") {
	case "debug":
		l.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		l.SetLevel(logrus.WarnLevel)
	case "error":
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}

	return l
}

// Critical logs at Error level with a "critical" marker field. The router
// never panics on infrastructure failure (conservative fail-open bias),
// but CRITICAL entries are what an operator greps for.
func Critical(msg string, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["severity"] = "CRITICAL"
	Log.WithFields(fields).Error(msg)
}
