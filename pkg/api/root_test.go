package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"github.com/osaleh1i1/threatexchange/pkg/internal/testutil"
	"github.com/osaleh1i1/threatexchange/pkg/store"
	"github.com/osaleh1i1/threatexchange/pkg/store/hmaconfig"
	"github.com/osaleh1i1/threatexchange/pkg/store/records"
)

type fakeSignalDataStore struct {
	stats map[string]SignalFileStats
	err   error
}

func (f *fakeSignalDataStore) FileStats(ctx context.Context, privacyGroupID string) (SignalFileStats, error) {
	if f.err != nil {
		return SignalFileStats{}, f.err
	}
	stats, ok := f.stats[privacyGroupID]
	if !ok {
		return SignalFileStats{}, store.ErrNotFound
	}
	return stats, nil
}

type testEnv struct {
	records    *records.MapStore
	configs    *hmaconfig.MapStore
	signer     *testutil.FakePresigner
	notifier   *testutil.FakeNotifier
	writebacks *testutil.FakeWritebackQueue
	signalData *fakeSignalDataStore
	router     http.Handler
}

func newTestEnv(t *testing.T, extra ...Option) *testEnv {
	env := &testEnv{
		records:    records.NewMapStore(),
		configs:    hmaconfig.NewMapStore(),
		signer:     &testutil.FakePresigner{},
		notifier:   &testutil.FakeNotifier{},
		writebacks: &testutil.FakeWritebackQueue{},
		signalData: &fakeSignalDataStore{stats: map[string]SignalFileStats{}},
	}
	opts := []Option{
		WithRecordStore(env.records),
		WithConfigStore(env.configs),
		WithPresigner(env.signer),
		WithImagesTopic(env.notifier),
		WithImageStore("images-bucket", "images/"),
		WithSignalDataStore(env.signalData),
		WithWritebackQueue(env.writebacks),
	}
	router, err := New(append(opts, extra...)...)
	require.NoError(t, err)
	env.router = router
	return env
}

func (env *testEnv) do(t *testing.T, method string, target string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHello(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	decodeBody(t, rec, &body)
	require.Equal(t, map[string]string{"message": "Hello World, HMA"}, body)
}

func TestErrorContract(t *testing.T) {
	env := newTestEnv(t)

	t.Run("unknown path", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/nope", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		var body ErrorResponse
		decodeBody(t, rec, &body)
		require.Equal(t, "404", body.Error)
	})

	t.Run("unknown path under a mounted prefix", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/action-rules/x/y", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		var body ErrorResponse
		decodeBody(t, rec, &body)
		require.Equal(t, "404", body.Error)
	})

	t.Run("wrong method on the liveness route", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/", nil)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		var body ErrorResponse
		decodeBody(t, rec, &body)
		require.Equal(t, "405", body.Error)
	})

	t.Run("wrong method under a mounted prefix", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/stats/", nil)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		var body ErrorResponse
		decodeBody(t, rec, &body)
		require.Equal(t, "405", body.Error)
	})
}

func TestRecovererAnswers500(t *testing.T) {
	handler := recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "500", body.Error)
}

func TestAccessTokenAuth(t *testing.T) {
	secret := []byte("test-secret")
	env := newTestEnv(t, WithAccessTokenSecret(secret))

	t.Run("liveness stays open", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/stats/", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		var body ErrorResponse
		decodeBody(t, rec, &body)
		require.Equal(t, "401", body.Error)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/stats/", nil)
		req.Header.Set("Authorization", "Bearer junk")
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("other-secret"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/stats/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString(secret)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/stats/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}
