// Package messages defines the wire shapes exchanged with the asynchronous
// pipeline stages: the images topic feeding the hasher and the writeback
// queue feeding the writebacker.
package messages

import "time"

// URLSubmissionEvent tags messages announcing content submitted by URL.
const URLSubmissionEvent = "URLSubmission"

// URLSubmissionMessage is published to the images topic when content is
// submitted from a URL. The hasher stage fetches the URL and computes
// signals.
type URLSubmissionMessage struct {
	Event       string `json:"event"`
	ContentID   string `json:"content_id"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// NewURLSubmissionMessage builds the message for one URL submission.
func NewURLSubmissionMessage(contentID string, contentType string, url string) URLSubmissionMessage {
	return URLSubmissionMessage{
		Event:       URLSubmissionEvent,
		ContentID:   contentID,
		ContentType: contentType,
		URL:         url,
	}
}

// WritebackMessage asks the writeback stage to report a reviewer's opinion
// change back to the signal source.
type WritebackMessage struct {
	WritebackID   string    `json:"writeback_id"`
	ContentID     string    `json:"content_id"`
	SignalID      string    `json:"signal_id"`
	SignalSource  string    `json:"signal_source"`
	OpinionChange string    `json:"opinion_change"`
	RequestedAt   time.Time `json:"requested_at"`
}
