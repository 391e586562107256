package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"github.com/osaleh1i1/threatexchange/pkg/api"
	"github.com/osaleh1i1/threatexchange/pkg/internal/testutil"
	"github.com/osaleh1i1/threatexchange/pkg/store"
	"github.com/osaleh1i1/threatexchange/pkg/store/hmaconfig"
	"github.com/osaleh1i1/threatexchange/pkg/store/records"
	"github.com/osaleh1i1/threatexchange/pkg/submissions"
)

// imageCreatedNotification is a storage notification batch as the bucket
// delivers it, trimmed to the members this service reads plus the usual
// envelope fields.
const imageCreatedNotification = `{
  "Records": [
    {
      "eventVersion": "2.1",
      "eventSource": "aws:s3",
      "awsRegion": "us-east-1",
      "eventTime": "2023-04-12T09:30:00.000Z",
      "eventName": "ObjectCreated:Put",
      "s3": {
        "s3SchemaVersion": "1.0",
        "configurationId": "image-submissions",
        "bucket": {"name": "partner-bucket", "arn": "arn:aws:s3:::partner-bucket"},
        "object": {"key": "images/cat.jpg", "size": 51342, "eTag": "0123456789abcdef"}
      }
    },
    {
      "eventVersion": "2.1",
      "eventSource": "aws:s3",
      "awsRegion": "us-east-1",
      "eventTime": "2023-04-12T09:30:01.000Z",
      "eventName": "ObjectCreated:Put",
      "s3": {
        "s3SchemaVersion": "1.0",
        "configurationId": "image-submissions",
        "bucket": {"name": "partner-bucket", "arn": "arn:aws:s3:::partner-bucket"},
        "object": {"key": "images/dog.jpg", "size": 40961, "eTag": "fedcba9876543210"}
      }
    }
  ]
}`

type emptySignalData struct{}

func (emptySignalData) FileStats(ctx context.Context, privacyGroupID string) (api.SignalFileStats, error) {
	return api.SignalFileStats{}, store.ErrNotFound
}

type dispatcherEnv struct {
	records    *records.MapStore
	signer     *testutil.FakePresigner
	notifier   *testutil.FakeNotifier
	dispatcher *Dispatcher
}

func newDispatcherEnv(t *testing.T) *dispatcherEnv {
	t.Helper()
	env := &dispatcherEnv{
		records:  records.NewMapStore(),
		signer:   &testutil.FakePresigner{},
		notifier: &testutil.FakeNotifier{},
	}
	router, err := api.New(
		api.WithRecordStore(env.records),
		api.WithConfigStore(hmaconfig.NewMapStore()),
		api.WithPresigner(env.signer),
		api.WithImagesTopic(env.notifier),
		api.WithImageStore("images-bucket", "images/"),
		api.WithSignalDataStore(emptySignalData{}),
	)
	require.NoError(t, err)
	env.dispatcher = NewDispatcher(router, NewTranslator(env.signer), env.records, env.notifier)
	return env
}

func storageEventJSON(t *testing.T, recs ...events.S3EventRecord) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(events.S3Event{Records: recs})
	require.NoError(t, err)
	return payload
}

func gatewayRequestJSON(t *testing.T, method string, path string, body string) json.RawMessage {
	t.Helper()
	request := events.APIGatewayV2HTTPRequest{
		Version: "2.0",
		RawPath: path,
		Headers: map[string]string{"content-type": "application/json"},
		Body:    body,
	}
	request.RequestContext.HTTP.Method = method
	request.RequestContext.HTTP.Path = path
	payload, err := json.Marshal(request)
	require.NoError(t, err)
	return payload
}

func gatewayResponse(t *testing.T, result interface{}) events.APIGatewayV2HTTPResponse {
	t.Helper()
	response, ok := result.(events.APIGatewayV2HTTPResponse)
	require.True(t, ok, "expected a gateway response, got %T", result)
	return response
}

func TestHandleStorageNotification(t *testing.T) {
	env := newDispatcherEnv(t)

	result, err := env.dispatcher.Handle(context.Background(), json.RawMessage(imageCreatedNotification))
	require.NoError(t, err)
	require.Nil(t, result)

	// Both objects become URL submissions, in delivery order.
	require.Len(t, env.notifier.Published, 2)
	require.Equal(t, "partner-bucket/images/cat.jpg", env.notifier.Published[0].ContentID)
	require.Equal(t, "partner-bucket/images/dog.jpg", env.notifier.Published[1].ContentID)
	require.Equal(t, "PHOTO", env.notifier.Published[0].ContentType)

	record, err := env.records.GetContent(context.Background(), "partner-bucket/images/cat.jpg")
	require.NoError(t, err)
	require.Equal(t, records.ContentRefTypeURL, record.RefType)
	require.Equal(t, "https://signed.example/partner-bucket/images/cat.jpg?op=get_object&expires=3600", record.Ref)

	counts, err := env.records.GetCounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), counts[records.MeasureSubmissions])
}

func TestClassification(t *testing.T) {
	t.Run("empty records array is a storage batch", func(t *testing.T) {
		env := newDispatcherEnv(t)
		result, err := env.dispatcher.Handle(context.Background(), json.RawMessage(`{"Records": []}`))
		require.NoError(t, err)
		require.Nil(t, result)
		require.Empty(t, env.notifier.Published)
	})

	t.Run("null records field goes to the router", func(t *testing.T) {
		env := newDispatcherEnv(t)
		result, err := env.dispatcher.Handle(context.Background(), json.RawMessage(`{"Records": null}`))
		require.NoError(t, err)
		response := gatewayResponse(t, result)
		require.Equal(t, http.StatusOK, response.StatusCode)
		require.Contains(t, response.Body, "Hello World, HMA")
	})

	t.Run("records without an s3 member go to the router", func(t *testing.T) {
		env := newDispatcherEnv(t)
		result, err := env.dispatcher.Handle(context.Background(), json.RawMessage(`{"Records": [{"Sns": {"Type": "Notification"}}]}`))
		require.NoError(t, err)
		gatewayResponse(t, result)
		require.Empty(t, env.notifier.Published)
	})

	t.Run("mixed batch goes to the router", func(t *testing.T) {
		env := newDispatcherEnv(t)
		payload := `{"Records": [{"s3": {"bucket": {"name": "b"}, "object": {"key": "k", "size": 1}}}, {"Sns": {}}]}`
		result, err := env.dispatcher.Handle(context.Background(), json.RawMessage(payload))
		require.NoError(t, err)
		gatewayResponse(t, result)
		require.Empty(t, env.notifier.Published)
	})

	t.Run("non-object payload is an error", func(t *testing.T) {
		env := newDispatcherEnv(t)
		_, err := env.dispatcher.Handle(context.Background(), json.RawMessage(`[1, 2, 3]`))
		require.Error(t, err)
	})
}

func TestStorageBatchIsolation(t *testing.T) {
	env := newDispatcherEnv(t)
	env.signer.FailKey = "images/bad.jpg"

	payload := storageEventJSON(t,
		storageRecord("partner-bucket", "images/first.jpg", 100),
		storageRecord("partner-bucket", "images/bad.jpg", 100),
		storageRecord("partner-bucket", "images/last.jpg", 100),
	)
	result, err := env.dispatcher.Handle(context.Background(), payload)
	require.NoError(t, err)
	require.Nil(t, result)

	require.Len(t, env.notifier.Published, 2)
	require.Equal(t, "partner-bucket/images/first.jpg", env.notifier.Published[0].ContentID)
	require.Equal(t, "partner-bucket/images/last.jpg", env.notifier.Published[1].ContentID)

	_, err = env.records.GetContent(context.Background(), "partner-bucket/images/bad.jpg")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStorageSkipsEmptyObjects(t *testing.T) {
	env := newDispatcherEnv(t)

	payload := storageEventJSON(t,
		storageRecord("partner-bucket", "images/", 0),
		storageRecord("partner-bucket", "images/real.jpg", 100),
	)
	result, err := env.dispatcher.Handle(context.Background(), payload)
	require.NoError(t, err)
	require.Nil(t, result)

	require.Len(t, env.notifier.Published, 1)
	require.Equal(t, "partner-bucket/images/real.jpg", env.notifier.Published[0].ContentID)
	_, err = env.records.GetContent(context.Background(), "partner-bucket/images/")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestHandleHTTPRequest(t *testing.T) {
	t.Run("liveness", func(t *testing.T) {
		env := newDispatcherEnv(t)
		result, err := env.dispatcher.Handle(context.Background(), gatewayRequestJSON(t, http.MethodGet, "/", ""))
		require.NoError(t, err)
		response := gatewayResponse(t, result)
		require.Equal(t, http.StatusOK, response.StatusCode)
		require.Contains(t, response.Body, "Hello World, HMA")
	})

	t.Run("submission through the gateway", func(t *testing.T) {
		env := newDispatcherEnv(t)
		body, err := json.Marshal(submissions.SubmitContentRequestBody{
			SubmissionType: submissions.SubmissionTypeFromURL,
			ContentID:      "client-chosen-1",
			ContentType:    records.ContentTypePhoto,
			ContentRef:     "https://example.com/a.jpg",
		})
		require.NoError(t, err)

		result, err := env.dispatcher.Handle(context.Background(), gatewayRequestJSON(t, http.MethodPost, "/submit/", string(body)))
		require.NoError(t, err)
		response := gatewayResponse(t, result)
		require.Equal(t, http.StatusOK, response.StatusCode)
		require.Contains(t, response.Body, `"submit_successful":true`)

		_, err = env.records.GetContent(context.Background(), "client-chosen-1")
		require.NoError(t, err)
		require.Len(t, env.notifier.Published, 1)
	})

	t.Run("unknown path", func(t *testing.T) {
		env := newDispatcherEnv(t)
		result, err := env.dispatcher.Handle(context.Background(), gatewayRequestJSON(t, http.MethodGet, "/managed-hashes", ""))
		require.NoError(t, err)
		response := gatewayResponse(t, result)
		require.Equal(t, http.StatusNotFound, response.StatusCode)
		require.Contains(t, response.Body, `"error":"404"`)
	})

	t.Run("wrong method", func(t *testing.T) {
		env := newDispatcherEnv(t)
		result, err := env.dispatcher.Handle(context.Background(), gatewayRequestJSON(t, http.MethodDelete, "/", ""))
		require.NoError(t, err)
		response := gatewayResponse(t, result)
		require.Equal(t, http.StatusMethodNotAllowed, response.StatusCode)
		require.Contains(t, response.Body, `"error":"405"`)
	})
}
