package telemetry

import (
	"log"

	"github.com/getsentry/sentry-go"

	"github.com/osaleh1i1/threatexchange/pkg/build"
)

// SetupErrorReporting configures the Sentry SDK for error reporting. It is a
// no-op when dsn is empty, so deployments without Sentry run unchanged.
func SetupErrorReporting(dsn string, environment string) {
	if dsn == "" {
		return
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     build.Version,
		Transport:   sentry.NewHTTPSyncTransport(),
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
}

// ReportError reports an error to Sentry.
func ReportError(err error) {
	sentry.CaptureException(err)
}
