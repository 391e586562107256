package aws

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/osaleh1i1/threatexchange/pkg/api"
	"github.com/osaleh1i1/threatexchange/pkg/store"
)

// S3SignalDataStore reads the signal data files the fetcher lambda writes to
// S3, one file per privacy group at <folder><privacy_group_id><extension>.
type S3SignalDataStore struct {
	bucket        string
	keyPrefix     string
	fileExtension string
	s3Client      *s3.Client
}

var _ api.SignalDataStore = (*S3SignalDataStore)(nil)

// NewS3SignalDataStore returns an api.SignalDataStore connected to an AWS
// S3 bucket.
func NewS3SignalDataStore(cfg aws.Config, bucket string, keyPrefix string, fileExtension string, opts ...func(*s3.Options)) *S3SignalDataStore {
	return &S3SignalDataStore{
		bucket:        bucket,
		keyPrefix:     keyPrefix,
		fileExtension: fileExtension,
		s3Client:      s3.NewFromConfig(cfg, opts...),
	}
}

func (s *S3SignalDataStore) signalFileKey(privacyGroupID string) string {
	return s.keyPrefix + privacyGroupID + s.fileExtension
}

// FileStats implements api.SignalDataStore. The signal count is the
// number of non-empty lines in the file.
func (s *S3SignalDataStore) FileStats(ctx context.Context, privacyGroupID string) (api.SignalFileStats, error) {
	response, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.signalFileKey(privacyGroupID)),
	})
	var notFound *types.NoSuchKey
	if errors.As(err, &notFound) {
		return api.SignalFileStats{}, store.ErrNotFound
	}
	if err != nil {
		return api.SignalFileStats{}, fmt.Errorf("getting signal file: %w", err)
	}
	defer response.Body.Close()

	var count int64
	scanner := bufio.NewScanner(response.Body)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return api.SignalFileStats{}, fmt.Errorf("reading signal file: %w", err)
	}

	var updatedAt time.Time
	if response.LastModified != nil {
		updatedAt = response.LastModified.UTC()
	}
	return api.SignalFileStats{SignalCount: count, UpdatedAt: updatedAt}, nil
}
