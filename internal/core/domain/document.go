package domain

import "time"

// SourceDocument is the boundary shape supplied by the document source.
// The source adapter normalises tag data into a TagMap exactly once, so
// downstream extraction only ever sees this one shape.
type SourceDocument struct {
	// ID is the stable identifier at the source.
	ID string

	// Title is the document title, possibly empty.
	Title string

	// CreatedAt is the document creation timestamp at the source.
	CreatedAt time.Time

	// RawText is the full document text. May be empty.
	RawText string

	// Tags is the normalised tag map.
	Tags TagMap

	// Source is a free-form source label.
	Source string

	// PageCount and FileType describe the underlying file.
	PageCount int
	FileType  string
}
