package aws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/osaleh1i1/threatexchange/pkg/api"
	"github.com/osaleh1i1/threatexchange/pkg/dispatch"
	"github.com/osaleh1i1/threatexchange/pkg/presigner"
)

// ErrMissingSecret means that the value returned from Secrets was empty
var ErrMissingSecret = errors.New("missing value for secret")

func mustGetEnv(envVar string) string {
	value := os.Getenv(envVar)
	if len(value) == 0 {
		panic(fmt.Errorf("missing env var: %s", envVar))
	}
	return value
}

// Config is the setup the API-root lambda reads once at cold start.
type Config struct {
	Config                         aws.Config
	S3Options                      []func(*s3.Options)
	DynamoOptions                  []func(*dynamodb.Options)
	SNSOptions                     []func(*sns.Options)
	SQSOptions                     []func(*sqs.Options)
	SentryDSN                      string
	SentryEnvironment              string
	DatastoreTableName             string
	ConfigTableName                string
	ImageBucket                    string
	ImagePrefix                    string
	ImagesTopicARN                 string
	WritebacksQueueURL             string
	ThreatExchangeDataBucket       string
	ThreatExchangeDataFolder       string
	ThreatExchangePDQFileExtension string
	APIAccessTokenSecret           string
}

func mustGetSSMParams(ctx context.Context, client *ssm.Client, names ...string) map[string]string {
	response, err := client.GetParameters(ctx, &ssm.GetParametersInput{
		Names:          names,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		panic(fmt.Errorf("retrieving SSM parameters: %w", err))
	}
	params := map[string]string{}
	for _, name := range names {
		value := ""
		for _, p := range response.Parameters {
			if *p.Name == name {
				value = *p.Value
				break
			}
		}
		if value == "" {
			panic(ErrMissingSecret)
		}
		params[name] = value
	}
	return params
}

// FromEnv constructs the AWS Configuration from the environment
func FromEnv(ctx context.Context) Config {
	awsConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		panic(fmt.Errorf("loading aws default config: %w", err))
	}

	// The API access token secret lives in SSM, everything else is plain env.
	var accessTokenSecret string
	if paramName := os.Getenv("API_ACCESS_TOKEN_SECRET_PARAM"); paramName != "" {
		ssmClient := ssm.NewFromConfig(awsConfig)
		secrets := mustGetSSMParams(ctx, ssmClient, paramName)
		accessTokenSecret = secrets[paramName]
	}

	return Config{
		Config:             awsConfig,
		SentryDSN:          os.Getenv("SENTRY_DSN"),
		SentryEnvironment:  os.Getenv("SENTRY_ENVIRONMENT"),
		DatastoreTableName: mustGetEnv("DYNAMODB_TABLE"),
		ConfigTableName:    mustGetEnv("HMA_CONFIG_TABLE"),
		ImageBucket:        mustGetEnv("IMAGE_BUCKET_NAME"),
		// Named _KEY for historical reasons; it holds the key prefix images
		// are stored under.
		ImagePrefix:                    mustGetEnv("IMAGE_FOLDER_KEY"),
		ImagesTopicARN:                 mustGetEnv("IMAGES_TOPIC_ARN"),
		WritebacksQueueURL:             os.Getenv("WRITEBACKS_QUEUE_URL"),
		ThreatExchangeDataBucket:       mustGetEnv("THREAT_EXCHANGE_DATA_BUCKET_NAME"),
		ThreatExchangeDataFolder:       mustGetEnv("THREAT_EXCHANGE_DATA_FOLDER"),
		ThreatExchangePDQFileExtension: mustGetEnv("THREAT_EXCHANGE_PDQ_FILE_EXTENSION"),
		APIAccessTokenSecret:           accessTokenSecret,
	}
}

type services struct {
	recordStore      *DynamoRecordStore
	requestPresigner *presigner.S3RequestPresigner
	imagesTopic      *SNSImagesTopic
	router           http.Handler
}

func construct(cfg Config) (*services, error) {
	recordStore := NewDynamoRecordStore(cfg.Config, cfg.DatastoreTableName, cfg.DynamoOptions...)
	configStore := NewDynamoConfigStore(cfg.Config, cfg.ConfigTableName, cfg.DynamoOptions...)
	requestPresigner := presigner.NewS3RequestPresigner(cfg.Config, cfg.S3Options...)
	imagesTopic := NewSNSImagesTopic(cfg.Config, cfg.ImagesTopicARN, cfg.SNSOptions...)
	signalData := NewS3SignalDataStore(
		cfg.Config,
		cfg.ThreatExchangeDataBucket,
		cfg.ThreatExchangeDataFolder,
		cfg.ThreatExchangePDQFileExtension,
		cfg.S3Options...,
	)

	opts := []api.Option{
		api.WithRecordStore(recordStore),
		api.WithConfigStore(configStore),
		api.WithPresigner(requestPresigner),
		api.WithImagesTopic(imagesTopic),
		api.WithImageStore(cfg.ImageBucket, cfg.ImagePrefix),
		api.WithSignalDataStore(signalData),
	}
	if cfg.WritebacksQueueURL != "" {
		opts = append(opts, api.WithWritebackQueue(NewSQSWritebackQueue(cfg.Config, cfg.WritebacksQueueURL, cfg.SQSOptions...)))
	}
	if cfg.APIAccessTokenSecret != "" {
		opts = append(opts, api.WithAccessTokenSecret([]byte(cfg.APIAccessTokenSecret)))
	}

	router, err := api.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("constructing router: %w", err)
	}
	return &services{
		recordStore:      recordStore,
		requestPresigner: requestPresigner,
		imagesTopic:      imagesTopic,
		router:           router,
	}, nil
}

// Construct wires the datastore, config store, presigner and messaging
// clients into the dual-mode dispatcher the lambda serves.
func Construct(cfg Config) (*dispatch.Dispatcher, error) {
	svcs, err := construct(cfg)
	if err != nil {
		return nil, err
	}
	return dispatch.NewDispatcher(
		svcs.router,
		dispatch.NewTranslator(svcs.requestPresigner),
		svcs.recordStore,
		svcs.imagesTopic,
	), nil
}

// ConstructRouter wires the same resources into the bare HTTP surface, for
// serving outside the lambda runtime.
func ConstructRouter(cfg Config) (http.Handler, error) {
	svcs, err := construct(cfg)
	if err != nil {
		return nil, err
	}
	return svcs.router, nil
}
