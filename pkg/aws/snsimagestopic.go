package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/osaleh1i1/threatexchange/pkg/messages"
	"github.com/osaleh1i1/threatexchange/pkg/submissions"
)

// SNSImagesTopic publishes submission events to the SNS topic that feeds the
// hasher lambda.
type SNSImagesTopic struct {
	topicARN  string
	snsClient *sns.Client
}

var _ submissions.Notifier = (*SNSImagesTopic)(nil)

// NewSNSImagesTopic returns a submissions.Notifier connected to an AWS SNS
// topic.
func NewSNSImagesTopic(cfg aws.Config, topicARN string, opts ...func(*sns.Options)) *SNSImagesTopic {
	return &SNSImagesTopic{
		topicARN:  topicARN,
		snsClient: sns.NewFromConfig(cfg, opts...),
	}
}

// PublishURLSubmission implements submissions.Notifier.
func (s *SNSImagesTopic) PublishURLSubmission(ctx context.Context, msg messages.URLSubmissionMessage) error {
	messageJSON, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("serializing submission message: %w", err)
	}
	_, err = s.snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(messageJSON)),
	})
	if err != nil {
		return fmt.Errorf("publishing submission message: %w", err)
	}
	return nil
}
