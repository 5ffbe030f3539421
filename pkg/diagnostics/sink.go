// Package diagnostics records every raw and classified error the pipeline sees.
package diagnostics

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/morezero/platform-client/pkg/apierror"
)

const logPrefix = "diagnostics:sink"

// Sink receives errors for diagnostics. Log must not block the request path.
type Sink interface {
	Log(err error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(err error)

// Log calls f.
func (f SinkFunc) Log(err error) { f(err) }

// NoOpSink discards everything.
type NoOpSink struct{}

// Log is a no-op.
func (NoOpSink) Log(error) {}

// LogSink writes errors to slog at warn level.
type LogSink struct{}

// Log writes err with its code when it is a BackendError.
func (LogSink) Log(err error) {
	if err == nil {
		return
	}
	if be, ok := apierror.As(err); ok {
		slog.Warn(fmt.Sprintf("%s - classified error code=%d kind=%s: %v", logPrefix, int(be.Code), be.Code, be))
		return
	}
	slog.Warn(fmt.Sprintf("%s - transport error: %v", logPrefix, err))
}

// MultiSink fans out to several sinks.
type MultiSink []Sink

// Log forwards err to every sink.
func (m MultiSink) Log(err error) {
	for _, s := range m {
		if s != nil {
			s.Log(err)
		}
	}
}

// Describe splits err into the columns stored for it: numeric code (0 for raw errors),
// kind name, message and reason.
func Describe(err error) (code int, kind, message, reason string) {
	var be *apierror.BackendError
	if errors.As(err, &be) {
		return int(be.Code), be.Code.String(), be.Message, be.Reason
	}
	return 0, "transport", err.Error(), ""
}
