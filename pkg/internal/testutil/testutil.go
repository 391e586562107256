// Package testutil provides in-process fakes for the service's messaging and
// signing collaborators.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/osaleh1i1/threatexchange/pkg/messages"
	"github.com/osaleh1i1/threatexchange/pkg/presigner"
)

// PresignCall records the arguments of one PresignURL call.
type PresignCall struct {
	Bucket    string
	Key       string
	VersionID string
	Expiry    time.Duration
	Op        presigner.Operation
}

// FakePresigner implements presigner.RequestPresigner with deterministic
// URLs and no cryptography.
type FakePresigner struct {
	// FailKey makes PresignURL fail for one object key.
	FailKey string
	Calls   []PresignCall
}

var _ presigner.RequestPresigner = (*FakePresigner)(nil)

func (p *FakePresigner) PresignURL(ctx context.Context, bucket string, key string, versionID string, expiry time.Duration, op presigner.Operation) (string, error) {
	if p.FailKey != "" && key == p.FailKey {
		return "", fmt.Errorf("presign refused for %s", key)
	}
	p.Calls = append(p.Calls, PresignCall{Bucket: bucket, Key: key, VersionID: versionID, Expiry: expiry, Op: op})
	return fmt.Sprintf("https://signed.example/%s/%s?op=%s&expires=%d", bucket, key, op, int(expiry.Seconds())), nil
}

// FakeNotifier collects published URL-submission messages.
type FakeNotifier struct {
	// FailContentID makes publishing fail for one content id.
	FailContentID string
	Published     []messages.URLSubmissionMessage
}

func (n *FakeNotifier) PublishURLSubmission(ctx context.Context, msg messages.URLSubmissionMessage) error {
	if n.FailContentID != "" && msg.ContentID == n.FailContentID {
		return fmt.Errorf("publish refused for %s", msg.ContentID)
	}
	n.Published = append(n.Published, msg)
	return nil
}

// FakeWritebackQueue collects queued writeback messages.
type FakeWritebackQueue struct {
	Err    error
	Queued []messages.WritebackMessage
}

func (q *FakeWritebackQueue) Queue(ctx context.Context, msg messages.WritebackMessage) error {
	if q.Err != nil {
		return q.Err
	}
	q.Queued = append(q.Queued, msg)
	return nil
}
