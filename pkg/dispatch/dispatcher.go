// Package dispatch implements the lambda's dual-mode entry point: one raw
// payload handler that classifies each invocation as a storage notification
// batch or an HTTP request and serves it accordingly.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	logging "github.com/ipfs/go-log/v2"

	"github.com/osaleh1i1/threatexchange/internal/telemetry"
	"github.com/osaleh1i1/threatexchange/pkg/store/records"
	"github.com/osaleh1i1/threatexchange/pkg/submissions"
)

var log = logging.Logger("dispatch")

// Dispatcher serves both invocation flavors of the API-root lambda.
type Dispatcher struct {
	adapter    *httpadapter.HandlerAdapterV2
	translator *Translator
	store      records.Store
	notifier   submissions.Notifier
}

func NewDispatcher(router http.Handler, translator *Translator, store records.Store, notifier submissions.Notifier) *Dispatcher {
	return &Dispatcher{
		adapter:    httpadapter.NewV2(router),
		translator: translator,
		store:      store,
		notifier:   notifier,
	}
}

// storageEnvelope is the shape probed to classify a payload.
type storageEnvelope struct {
	Records []map[string]json.RawMessage `json:"Records"`
}

// isStorageNotification reports whether the payload is a storage notification
// batch: a Records array whose every element carries an s3 member. An empty
// Records array still counts; a null or absent one does not.
func isStorageNotification(payload json.RawMessage) bool {
	var envelope storageEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return false
	}
	if envelope.Records == nil {
		return false
	}
	for _, record := range envelope.Records {
		if _, ok := record["s3"]; !ok {
			return false
		}
	}
	return true
}

// Handle serves one raw invocation payload. Storage batches return (nil,
// nil): the notification source ignores the result. HTTP requests return the
// proxied response.
func (d *Dispatcher) Handle(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	if isStorageNotification(payload) {
		var event events.S3Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("parsing storage notification: %w", err)
		}
		d.handleStorageEvent(ctx, event)
		return nil, nil
	}

	var request events.APIGatewayV2HTTPRequest
	if err := json.Unmarshal(payload, &request); err != nil {
		return nil, fmt.Errorf("parsing gateway request: %w", err)
	}
	return d.adapter.ProxyWithContext(ctx, request)
}

// handleStorageEvent submits every real object in the batch, strictly in
// order. A failing record is logged and reported but never aborts the
// records after it.
func (d *Dispatcher) handleStorageEvent(ctx context.Context, event events.S3Event) {
	for _, record := range event.Records {
		if record.S3.Object.Size == 0 {
			// Folder markers and other pseudo-objects carry no bytes.
			log.Infof("skipping empty object %s/%s", record.S3.Bucket.Name, record.S3.Object.Key)
			continue
		}
		if err := d.submitRecord(ctx, record); err != nil {
			log.Errorf("submitting %s/%s: %s", record.S3.Bucket.Name, record.S3.Object.Key, err)
			telemetry.ReportError(err)
		}
	}
}

func (d *Dispatcher) submitRecord(ctx context.Context, record events.S3EventRecord) error {
	body, err := d.translator.Translate(ctx, record)
	if err != nil {
		return err
	}
	return submissions.SubmitFromURL(ctx, body, d.store, d.notifier)
}
