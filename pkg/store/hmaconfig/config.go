// Package hmaconfig holds the operator-editable configuration objects that
// live in the HMA config table: action rules, action performers and
// collaboration (privacy group) configs. The pipeline datastore is separate,
// see store/records.
package hmaconfig

// Label is a key/value pair attached to matches and evaluated by action
// rules.
type Label struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ActionRule decides which action to take when a match carries (or lacks)
// certain labels.
type ActionRule struct {
	Name              string  `json:"name"`
	MustHaveLabels    []Label `json:"must_have_labels"`
	MustNotHaveLabels []Label `json:"must_not_have_labels"`
	ActionLabel       Label   `json:"action_label"`
}

// ActionPerformer executes an action by POSTing to a partner-owned webhook.
type ActionPerformer struct {
	Name    string            `json:"name"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// CollaborationConfig describes one ThreatExchange privacy group the
// deployment exchanges signals with.
type CollaborationConfig struct {
	PrivacyGroupID  string `json:"privacy_group_id"`
	Name            string `json:"name"`
	FetcherActive   bool   `json:"fetcher_active"`
	MatcherActive   bool   `json:"matcher_active"`
	WritebackActive bool   `json:"write_back"`
	InUse           bool   `json:"in_use"`
}
