package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/osaleh1i1/threatexchange/pkg/api"
	"github.com/osaleh1i1/threatexchange/pkg/messages"
)

// SQSWritebackQueue sends opinion-change writeback requests to the SQS queue
// drained by the writebacker lambda.
type SQSWritebackQueue struct {
	queueURL  string
	sqsClient *sqs.Client
}

var _ api.WritebackQueue = (*SQSWritebackQueue)(nil)

// NewSQSWritebackQueue returns an api.WritebackQueue connected to an AWS
// SQS queue.
func NewSQSWritebackQueue(cfg aws.Config, queueURL string, opts ...func(*sqs.Options)) *SQSWritebackQueue {
	return &SQSWritebackQueue{
		queueURL:  queueURL,
		sqsClient: sqs.NewFromConfig(cfg, opts...),
	}
}

// Queue implements api.WritebackQueue.
func (s *SQSWritebackQueue) Queue(ctx context.Context, msg messages.WritebackMessage) error {
	messageJSON, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("serializing writeback message: %w", err)
	}
	_, err = s.sqsClient.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(messageJSON)),
	})
	if err != nil {
		return fmt.Errorf("queueing writeback message: %w", err)
	}
	return nil
}
