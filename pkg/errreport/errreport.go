// Package errreport forwards unexpected server errors to Rollbar.
package errreport

import (
	"github.com/rollbar/rollbar-go"
	"go.uber.org/zap"
)

// Reporter receives errors that ended a request with a 5xx status.
type Reporter interface {
	Report(err error, extras map[string]interface{})
	Close()
}

// Options configures the Rollbar client.
type Options struct {
	Token       string
	Environment string
	CodeVersion string
	ServerHost  string
}

// New returns a Rollbar reporter, or a reporter that only logs when no token is configured.
func New(opts Options, logger *zap.Logger) Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Token == "" {
		return logReporter{logger: logger}
	}
	client := rollbar.New(opts.Token, opts.Environment, opts.CodeVersion, opts.ServerHost, "")
	return &rollbarReporter{
		send:  func(err error, extras map[string]interface{}) { client.ErrorWithExtras(rollbar.ERR, err, extras) },
		close: func() { _ = client.Close() },
	}
}

type rollbarReporter struct {
	send  func(err error, extras map[string]interface{})
	close func()
}

func (r *rollbarReporter) Report(err error, extras map[string]interface{}) {
	if err == nil {
		return
	}
	r.send(err, extras)
}

// Close flushes queued items.
func (r *rollbarReporter) Close() {
	if r.close != nil {
		r.close()
	}
}

type logReporter struct {
	logger *zap.Logger
}

func (l logReporter) Report(err error, extras map[string]interface{}) {
	if err == nil {
		return
	}
	fields := make([]zap.Field, 0, len(extras)+1)
	fields = append(fields, zap.Error(err))
	for k, v := range extras {
		fields = append(fields, zap.Any(k, v))
	}
	l.logger.Error("unreported server error", fields...)
}

func (logReporter) Close() {}
