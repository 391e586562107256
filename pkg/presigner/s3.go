package presigner

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3RequestPresigner signs URLs with the S3 SDK. A single presigner serves
// any bucket the service credentials can reach; signing is a local operation.
type S3RequestPresigner struct {
	presignClient *s3.PresignClient
}

var _ RequestPresigner = (*S3RequestPresigner)(nil)

// NewS3RequestPresigner creates a presigner from an AWS config.
func NewS3RequestPresigner(cfg aws.Config, opts ...func(*s3.Options)) *S3RequestPresigner {
	return &S3RequestPresigner{
		presignClient: s3.NewPresignClient(s3.NewFromConfig(cfg, opts...)),
	}
}

// PresignURL implements RequestPresigner.
func (sp *S3RequestPresigner) PresignURL(ctx context.Context, bucket string, key string, versionID string, expiry time.Duration, op Operation) (string, error) {
	switch op {
	case GetObject:
		input := &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}
		if versionID != "" {
			input.VersionId = aws.String(versionID)
		}
		signedReq, err := sp.presignClient.PresignGetObject(ctx, input, s3.WithPresignExpires(expiry))
		if err != nil {
			return "", fmt.Errorf("signing get request: %w", err)
		}
		return signedReq.URL, nil
	case PutObject:
		signedReq, err := sp.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(expiry))
		if err != nil {
			return "", fmt.Errorf("signing put request: %w", err)
		}
		return signedReq.URL, nil
	default:
		return "", fmt.Errorf("unsupported presign operation: %s", op)
	}
}
