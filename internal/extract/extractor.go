// Package extract recovers email-like metadata from loosely structured
// documents: structured tags first, regex header scanning as a fallback.
package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/open-inbox/openinbox-cli/internal/core/domain"
)

// DefaultHeaderBytes is the size of the leading text slice scanned by the
// regex fallback. Headers live at the top of a document; scanning further
// only invites false matches from quoted replies.
const DefaultHeaderBytes = 2048

// Tag key chains consulted per field, in priority order.
var (
	senderTags    = []string{"from", "sender", "author"}
	recipientTags = []string{"to", "recipient", "addressee"}
	subjectTags   = []string{"subject", "title", "topic"}
	dateTags      = []string{"docdate", "date", "sent", "created", "timestamp"}
)

// Header patterns per field, in priority order. First match wins.
var (
	fromPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^From:[ \t]*(.+)$`),
		regexp.MustCompile(`(?im)^Sender:[ \t]*(.+)$`),
	}
	toPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^To:[ \t]*(.+)$`),
		regexp.MustCompile(`(?im)^Recipient:[ \t]*(.+)$`),
		regexp.MustCompile(`(?im)^Cc:[ \t]*(.+)$`),
	}
	subjectPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^Subject:[ \t]*(.+)$`),
		regexp.MustCompile(`(?im)^Subj:[ \t]*(.+)$`),
		regexp.MustCompile(`(?im)^Re:[ \t]*(.+)$`),
	}
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^Sent:[ \t]*(.+)$`),
		regexp.MustCompile(`(?im)^Date:[ \t]*(.+)$`),
		regexp.MustCompile(`(?im)^Received:[ \t]*(.+)$`),
	}
)

// Metadata holds the extracted fields. Each is independently optional:
// empty strings and a nil SentAt are the normal "could not determine"
// outcome, never an error.
type Metadata struct {
	SenderEmail    string
	SenderName     string
	RecipientEmail string
	RecipientName  string
	Subject        string
	SentAt         *time.Time
}

// Extractor recovers metadata from a document's tags and raw text.
type Extractor struct {
	headerBytes int
}

// NewExtractor creates an extractor. headerBytes bounds the region the
// regex fallback scans; zero or negative selects DefaultHeaderBytes.
func NewExtractor(headerBytes int) *Extractor {
	if headerBytes <= 0 {
		headerBytes = DefaultHeaderBytes
	}
	return &Extractor{headerBytes: headerBytes}
}

// Extract runs the two-step policy: structured tags first, then - only if
// every field missed - regex scanning over the leading header region.
// Partial tag coverage is accepted as-is and never triggers the fallback.
func (e *Extractor) Extract(tags domain.TagMap, rawText, dateHint string) Metadata {
	var md Metadata

	if v, ok := tags.Get(senderTags...); ok {
		md.SenderEmail, md.SenderName = ParsePerson(v)
	}
	if v, ok := tags.Get(recipientTags...); ok {
		md.RecipientEmail, md.RecipientName = ParsePerson(v)
	}
	if v, ok := tags.Get(subjectTags...); ok {
		md.Subject = strings.TrimSpace(v)
	}
	if v, ok := tags.Get(dateTags...); ok {
		if t, ok := ParseDate(v, dateHint); ok {
			md.SentAt = &t
		}
	}

	if e.anyResolved(md) {
		return md
	}

	e.scanHeaders(&md, rawText, dateHint)
	return md
}

// anyResolved reports whether step 1 found at least one field.
func (e *Extractor) anyResolved(md Metadata) bool {
	return md.SenderEmail != "" || md.SenderName != "" ||
		md.RecipientEmail != "" || md.RecipientName != "" ||
		md.Subject != "" || md.SentAt != nil
}

// scanHeaders applies the ordered regex patterns to the header region.
func (e *Extractor) scanHeaders(md *Metadata, rawText, dateHint string) {
	region := rawText
	if len(region) > e.headerBytes {
		region = region[:e.headerBytes]
	}

	if v := firstMatch(fromPatterns, region); v != "" {
		md.SenderEmail, md.SenderName = ParsePerson(v)
	}
	if v := firstMatch(toPatterns, region); v != "" {
		// Single-recipient simplification: drop everything after the
		// first semicolon of a multi-recipient header.
		if i := strings.Index(v, ";"); i >= 0 {
			v = strings.TrimSpace(v[:i])
		}
		md.RecipientEmail, md.RecipientName = ParsePerson(v)
	}
	if v := firstMatch(subjectPatterns, region); v != "" {
		md.Subject = v
	}
	if v := firstMatch(datePatterns, region); v != "" {
		if t, ok := ParseDate(v, dateHint); ok {
			md.SentAt = &t
		}
	}
}

// firstMatch returns the first capture of the first pattern that matches.
func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
