package aws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "DUMMYIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "DUMMYEXAMPLEKEY")
	t.Setenv("DYNAMODB_TABLE", "ThreatExchange-HMADataStore")
	t.Setenv("HMA_CONFIG_TABLE", "ThreatExchange-HMAConfig")
	t.Setenv("IMAGE_BUCKET_NAME", "hma-prod-images")
	t.Setenv("IMAGE_FOLDER_KEY", "images/")
	t.Setenv("IMAGES_TOPIC_ARN", "arn:aws:sns:us-east-1:123456789012:hma-images")
	t.Setenv("THREAT_EXCHANGE_DATA_BUCKET_NAME", "hma-prod-threatexchange-data")
	t.Setenv("THREAT_EXCHANGE_DATA_FOLDER", "threat_exchange_data/")
	t.Setenv("THREAT_EXCHANGE_PDQ_FILE_EXTENSION", ".pdq.te")
	// An empty parameter name keeps FromEnv away from SSM.
	t.Setenv("API_ACCESS_TOKEN_SECRET_PARAM", "")
}

func TestFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WRITEBACKS_QUEUE_URL", "https://sqs.us-east-1.amazonaws.com/123456789012/hma-writebacks")

	cfg := FromEnv(context.Background())

	require.Equal(t, "us-east-1", cfg.Config.Region)
	require.Equal(t, "ThreatExchange-HMADataStore", cfg.DatastoreTableName)
	require.Equal(t, "ThreatExchange-HMAConfig", cfg.ConfigTableName)
	require.Equal(t, "hma-prod-images", cfg.ImageBucket)
	require.Equal(t, "images/", cfg.ImagePrefix)
	require.Equal(t, "arn:aws:sns:us-east-1:123456789012:hma-images", cfg.ImagesTopicARN)
	require.Equal(t, "https://sqs.us-east-1.amazonaws.com/123456789012/hma-writebacks", cfg.WritebacksQueueURL)
	require.Equal(t, "hma-prod-threatexchange-data", cfg.ThreatExchangeDataBucket)
	require.Equal(t, "threat_exchange_data/", cfg.ThreatExchangeDataFolder)
	require.Equal(t, ".pdq.te", cfg.ThreatExchangePDQFileExtension)
	require.Empty(t, cfg.APIAccessTokenSecret)
}

func TestFromEnvRequiresPipelineConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("IMAGES_TOPIC_ARN", "")

	require.PanicsWithError(t, "missing env var: IMAGES_TOPIC_ARN", func() {
		FromEnv(context.Background())
	})
}

func testConfig() Config {
	return Config{
		Config: aws.Config{
			Region:      "us-east-1",
			Credentials: credentials.NewStaticCredentialsProvider("DUMMYIDEXAMPLE", "DUMMYEXAMPLEKEY", ""),
		},
		DatastoreTableName:             "ThreatExchange-HMADataStore",
		ConfigTableName:                "ThreatExchange-HMAConfig",
		ImageBucket:                    "hma-prod-images",
		ImagePrefix:                    "images/",
		ImagesTopicARN:                 "arn:aws:sns:us-east-1:123456789012:hma-images",
		ThreatExchangeDataBucket:       "hma-prod-threatexchange-data",
		ThreatExchangeDataFolder:       "threat_exchange_data/",
		ThreatExchangePDQFileExtension: ".pdq.te",
	}
}

func TestConstruct(t *testing.T) {
	dispatcher, err := Construct(testConfig())
	require.NoError(t, err)
	require.NotNil(t, dispatcher)
}

func TestConstructRouter(t *testing.T) {
	router, err := ConstructRouter(testConfig())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message": "Hello World, HMA"}`, rec.Body.String())
}
