// Package log adds logging utilities.
package log

import (
	"fmt"
	"strings"
	"time"

	"sudp/internal/pkg/wire"

	"github.com/sirupsen/logrus"
)

// SetLogger sets the default logger's level.
func SetLogger(level string) {
	logrus.SetLevel(logrus.ErrorLevel)
	customFormatter := new(logrus.TextFormatter)
	customFormatter.TimestampFormat = time.RFC3339
	logrus.SetFormatter(customFormatter)
	customFormatter.FullTimestamp = true
	switch strings.ToLower(level) {
	case "trace":
		logrus.SetLevel(logrus.TraceLevel)
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.ErrorLevel)
	}
}

// HeaderFields extracts the protocol header into structured log fields.
func HeaderFields(dg *wire.Datagram) logrus.Fields {
	return logrus.Fields{
		"command": dg.Command.String(),
		"seq":     dg.Seq,
		"session": fmt.Sprintf("%08x", dg.SessionID),
		"clock":   dg.Clock,
		"len":     len(dg.Payload),
	}
}
