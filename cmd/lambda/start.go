package lambda

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/osaleh1i1/threatexchange/internal/telemetry"
	"github.com/osaleh1i1/threatexchange/pkg/aws"
)

// RawEventHandler is a function that handles raw invocation payloads,
// suitable to use as a lambda handler for a function that receives more than
// one event shape.
type RawEventHandler func(context.Context, json.RawMessage) (interface{}, error)

// RawEventHandlerBuilder is a function that creates a RawEventHandler from a
// config.
type RawEventHandlerBuilder func(aws.Config) (RawEventHandler, error)

// StartRawEventHandler starts a lambda handler that processes raw invocation
// payloads.
func StartRawEventHandler(makeHandler RawEventHandlerBuilder) {
	ctx := context.Background()
	cfg := aws.FromEnv(ctx)
	telemetry.SetupErrorReporting(cfg.SentryDSN, cfg.SentryEnvironment)

	handler, err := makeHandler(cfg)
	if err != nil {
		telemetry.ReportError(err)
		panic(err)
	}

	lambda.StartWithOptions(instrumentRawEventHandler(handler), lambda.WithContext(ctx))
}

// instrumentRawEventHandler wraps a RawEventHandler with error reporting.
func instrumentRawEventHandler(handler RawEventHandler) RawEventHandler {
	return func(ctx context.Context, payload json.RawMessage) (interface{}, error) {
		response, err := handler(ctx, payload)
		if err != nil {
			telemetry.ReportError(err)
		}

		return response, err
	}
}
