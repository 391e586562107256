package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/osaleh1i1/threatexchange/pkg/messages"
	"github.com/osaleh1i1/threatexchange/pkg/presigner"
	"github.com/osaleh1i1/threatexchange/pkg/store/hmaconfig"
	"github.com/osaleh1i1/threatexchange/pkg/store/records"
	"github.com/osaleh1i1/threatexchange/pkg/submissions"
)

// WritebackQueue accepts opinion-change writeback requests for asynchronous
// delivery back to the signal exchange.
type WritebackQueue interface {
	Queue(ctx context.Context, msg messages.WritebackMessage) error
}

// SignalFileStats summarizes one privacy group's fetched signal data file.
type SignalFileStats struct {
	SignalCount int64
	UpdatedAt   time.Time
}

// SignalDataStore reads stats about the signal data files the fetcher
// pipeline maintains.
type SignalDataStore interface {
	FileStats(ctx context.Context, privacyGroupID string) (SignalFileStats, error)
}

type config struct {
	recordStore       records.Store
	configStore       hmaconfig.Store
	signer            presigner.RequestPresigner
	imagesTopic       submissions.Notifier
	imageBucket       string
	imagePrefix       string
	signalData        SignalDataStore
	writebacks        WritebackQueue
	accessTokenSecret []byte
}

// Option configures the API router.
type Option func(*config)

// WithRecordStore configures the pipeline datastore backing the matches,
// content, submit and stats resources.
func WithRecordStore(store records.Store) Option {
	return func(c *config) { c.recordStore = store }
}

// WithConfigStore configures the store backing action rules, action
// performers and collaboration configs.
func WithConfigStore(store hmaconfig.Store) Option {
	return func(c *config) { c.configStore = store }
}

// WithPresigner configures temporary access URL issuance.
func WithPresigner(signer presigner.RequestPresigner) Option {
	return func(c *config) { c.signer = signer }
}

// WithImagesTopic configures the notify target for accepted URL submissions.
func WithImagesTopic(topic submissions.Notifier) Option {
	return func(c *config) { c.imagesTopic = topic }
}

// WithImageStore configures the bucket and key prefix submitted images are
// stored under.
func WithImageStore(bucket string, prefix string) Option {
	return func(c *config) {
		c.imageBucket = bucket
		c.imagePrefix = prefix
	}
}

// WithSignalDataStore configures signal data file stats for the datasets
// resource.
func WithSignalDataStore(store SignalDataStore) Option {
	return func(c *config) { c.signalData = store }
}

// WithWritebackQueue enables opinion-change writebacks. Without it the
// opinion change is still recorded, just never written back.
func WithWritebackQueue(queue WritebackQueue) Option {
	return func(c *config) { c.writebacks = queue }
}

// WithAccessTokenSecret enables bearer-token auth on every resource route.
func WithAccessTokenSecret(secret []byte) Option {
	return func(c *config) { c.accessTokenSecret = secret }
}

// New builds the HTTP surface of the service: the liveness route, the uniform
// error contract and one mounted sub-router per resource. Error handlers are
// registered before the mounts so every sub-router inherits them.
func New(opts ...Option) (http.Handler, error) {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.recordStore == nil {
		return nil, errors.New("record store is required")
	}
	if c.configStore == nil {
		return nil, errors.New("config store is required")
	}
	if c.signer == nil {
		return nil, errors.New("presigner is required")
	}
	if c.imagesTopic == nil {
		return nil, errors.New("images topic is required")
	}
	if c.imageBucket == "" {
		return nil, errors.New("image store is required")
	}
	if c.signalData == nil {
		return nil, errors.New("signal data store is required")
	}

	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(limitRequestBody)
	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/", hello)

	r.Group(func(g chi.Router) {
		if len(c.accessTokenSecret) > 0 {
			g.Use(requireAccessToken(c.accessTokenSecret))
		}
		g.Mount("/action-rules", NewActionRulesHandler(c.configStore).Routes())
		g.Mount("/matches", NewMatchesHandler(c.recordStore, c.writebacks).Routes())
		g.Mount("/content", NewContentHandler(c.recordStore, c.signer, c.imageBucket, c.imagePrefix).Routes())
		g.Mount("/submit", NewSubmitHandler(c.recordStore, c.imagesTopic, c.signer, c.imageBucket, c.imagePrefix).Routes())
		g.Mount("/datasets", NewDatasetsHandler(c.configStore, c.signalData).Routes())
		g.Mount("/stats", NewStatsHandler(c.recordStore).Routes())
		g.Mount("/actions", NewActionsHandler(c.configStore).Routes())
	})

	return r, nil
}

func hello(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"message": "Hello World, HMA"})
}
