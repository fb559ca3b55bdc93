package services

import (
	"fmt"
	"strings"

	"github.com/open-inbox/openinbox-cli/internal/core/domain"
	"github.com/open-inbox/openinbox-cli/internal/extract"
)

// recordIDPrefix namespaces source identifiers within a collection.
const recordIDPrefix = "DC_"

// documentURLBase is the canonical public URL for a source document.
const documentURLBase = "https://www.documentcloud.org/documents/"

// RecordBuilder assembles normalised records from extractor output,
// applying sentinel defaults and the configured length caps.
type RecordBuilder struct {
	bodyCap    int
	searchCap  int
	previewCap int
}

// NewRecordBuilder creates a record builder with the given caps.
func NewRecordBuilder(bodyCap, searchCap, previewCap int) *RecordBuilder {
	return &RecordBuilder{
		bodyCap:    bodyCap,
		searchCap:  searchCap,
		previewCap: previewCap,
	}
}

// Build produces a record from a source document and its extracted
// metadata. Missing fields get their final defaults here; extraction
// absence is never an error.
func (b *RecordBuilder) Build(doc *domain.SourceDocument, md extract.Metadata) domain.Record {
	text := doc.RawText
	if strings.TrimSpace(text) == "" {
		text = fmt.Sprintf("[Document %s - %s]\n\nNo text content available.", doc.ID, doc.Title)
	}

	rec := domain.Record{
		DocumentID:     recordIDPrefix + doc.ID,
		SenderEmail:    md.SenderEmail,
		SenderName:     md.SenderName,
		RecipientEmail: md.RecipientEmail,
		RecipientName:  md.RecipientName,
		Subject:        md.Subject,
		SentAt:         md.SentAt,
		DocumentURL:    documentURLBase + doc.ID,
		PageCount:      doc.PageCount,
		FileType:       doc.FileType,
		Tags:           doc.Tags.Values(),
	}

	if rec.SenderEmail == "" {
		rec.SenderEmail = domain.UnknownEmail
	}
	if rec.SenderName == "" {
		rec.SenderName = domain.UnknownSenderName
	}
	if rec.RecipientEmail == "" {
		rec.RecipientEmail = domain.UnknownEmail
	}
	if rec.RecipientName == "" {
		rec.RecipientName = domain.UnknownRecipientName
	}
	if rec.Subject == "" {
		rec.Subject = doc.Title
	}
	if rec.Subject == "" {
		rec.Subject = fmt.Sprintf("Document %s", doc.ID)
	}
	if rec.SentAt == nil && !doc.CreatedAt.IsZero() {
		created := doc.CreatedAt
		rec.SentAt = &created
	}

	if doc.FileType == "" {
		rec.FileType = "unknown"
	}
	if doc.Source != "" {
		rec.Source = "DocumentCloud - " + doc.Source
	} else {
		rec.Source = "DocumentCloud"
	}

	rec.Body = b.truncateBody(text, rec.DocumentURL)
	rec.SearchText = truncate(text, b.searchCap)
	rec.Preview = b.preview(text)

	return rec
}

// truncateBody caps the body, appending a notice linking to the original
// when truncation occurs.
func (b *RecordBuilder) truncateBody(text, url string) string {
	if len(text) <= b.bodyCap {
		return text
	}
	return text[:b.bodyCap] + fmt.Sprintf("\n\n[Truncated. Read the full document at %s]", url)
}

// preview derives a short summary: whitespace collapsed, cut at a sentence
// end near the cap if one exists, else at a word boundary, else hard.
func (b *RecordBuilder) preview(text string) string {
	clean := strings.Join(strings.Fields(text), " ")
	if len(clean) <= b.previewCap {
		return clean
	}

	cut := clean[:b.previewCap]

	if idx := strings.LastIndex(cut, "."); idx >= b.previewCap-30 {
		return cut[:idx+1]
	}
	if idx := strings.LastIndex(cut, " "); idx >= b.previewCap-20 {
		cut = cut[:idx]
	}
	return cut + "..."
}

// truncate hard-caps a string.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
