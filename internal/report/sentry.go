package report

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// Setup initializes Sentry error reporting. An empty DSN disables reporting
// without failing startup, which keeps local development DSN-free.
func Setup(dsn, env string) error {
	if dsn == "" {
		return nil
	}
	return sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
	})
}

// Flush drains queued events before shutdown.
func Flush() {
	sentry.Flush(2 * time.Second)
}
