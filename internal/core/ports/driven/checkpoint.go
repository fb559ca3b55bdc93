package driven

// Checkpoint tracks which source documents have already been converted to
// records across interrupted runs of the same collection.
//
// Lifecycle: Restore is called exactly once before any work begins; MarkDone
// is called after each record is fully built; Flush is called only from the
// interruption handler. Normal completion never flushes - the prior
// checkpoint on disk remains the source of truth until superseded.
type Checkpoint interface {
	// Restore loads previously processed identifiers from durable storage.
	// Idempotent; a missing checkpoint file is a fresh start, not an error.
	Restore() error

	// Done reports whether an identifier has already been processed.
	Done(id string) bool

	// MarkDone records an identifier as processed, in memory only.
	MarkDone(id string)

	// Count returns the number of processed identifiers.
	Count() int

	// Flush writes the in-memory identifier set to durable storage.
	// Called from the interruption handler; must not perform any I/O
	// against the document source or deployment sink.
	Flush() error
}
