package domain

import "time"

// Sentinel values applied when a field cannot be determined.
const (
	UnknownEmail         = "unknown@documentcloud.org"
	UnknownSenderName    = "Unknown Sender"
	UnknownRecipientName = "Unknown Recipient"
)

// Record is one normalised email-like unit derived from a source document.
// It is the canonical representation after extraction and defaulting.
type Record struct {
	// DocumentID is the stable source identifier, unique within a collection.
	DocumentID string

	// SenderEmail and SenderName identify the sender. They fall back to
	// the unknown sentinels when extraction could not determine them.
	SenderEmail string
	SenderName  string

	// RecipientEmail and RecipientName identify the recipient.
	RecipientEmail string
	RecipientName  string

	// Subject is never empty; it falls back to the document title or a
	// synthesized "Document <id>" string.
	Subject string

	// Body is the document text, truncated to the configured cap.
	Body string

	// SearchText is a larger but still bounded slice of the text used for
	// full-content search inside the chunk files.
	SearchText string

	// Preview is a short derived summary, at most the preview cap.
	Preview string

	// SentAt is the best-effort send timestamp. Nil when unparseable.
	SentAt *time.Time

	// Provenance carries source attribution fields.
	Source      string
	DocumentURL string
	PageCount   int
	FileType    string
	Tags        []string
}

// Contact aggregates sender/recipient participation across all records.
type Contact struct {
	Email       string
	Name        string
	DisplayName string
	RecordCount int
	FirstSeen   *time.Time
	LastSeen    *time.Time
}

// TagMap is the single normalised shape for source document tag data.
// Keys are lower-cased and stripped of surrounding underscores; list
// values are collapsed to their first element at the source boundary.
type TagMap map[string]string

// Get returns the first present value among the given keys.
func (t TagMap) Get(keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := t[key]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Values returns all tag values in unspecified order.
func (t TagMap) Values() []string {
	if len(t) == 0 {
		return nil
	}
	values := make([]string, 0, len(t))
	for _, v := range t {
		values = append(values, v)
	}
	return values
}
