package xerrors

import (
	"sync/atomic"

	"github.com/getsentry/sentry-go"
)

var hasActiveReporting atomic.Bool

// EnableSentryReporting turns on telemetry reporting for errors built
// through ErrorBuilder.Build(). dsn may be empty, in which case sentry-go
// runs in no-op mode and reporting stays effectively disabled.
func EnableSentryReporting(dsn, environment, release string) error {
	if dsn == "" {
		hasActiveReporting.Store(false)
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
	}); err != nil {
		return err
	}
	hasActiveReporting.Store(true)
	return nil
}

// DisableReporting turns off telemetry reporting. Primarily used by tests.
func DisableReporting() {
	hasActiveReporting.Store(false)
}

// reportToTelemetry ships an EnhancedError to Sentry with its component,
// category and context attached as tags/extras. Errors already marked
// reported are skipped to avoid duplicate events across retries.
func reportToTelemetry(ee *EnhancedError) {
	if ee.IsReported() {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.GetComponent())
		scope.SetTag("category", string(ee.Category))
		if ee.Priority != "" {
			scope.SetTag("priority", ee.Priority)
		}
		for k, v := range ee.GetContext() {
			scope.SetExtra(k, v)
		}
		sentry.CaptureException(ee.Err)
	})
	ee.MarkReported()
}
