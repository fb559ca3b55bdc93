// Package sqlite creates the indexed metadata store artifact: lightweight
// per-record rows, the chunk directory, the collection descriptor, the
// contact roster and an FTS5 index. Full body content never enters the
// store; it lives only in the content chunk files.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/open-inbox/openinbox-cli/internal/core/domain"
	"github.com/open-inbox/openinbox-cli/internal/core/ports/driven"
	"github.com/open-inbox/openinbox-cli/internal/logger"
)

// Ensure StoreWriter implements the interface.
var _ driven.MetadataStoreWriter = (*StoreWriter)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	ordinal INTEGER PRIMARY KEY,
	document_id TEXT UNIQUE NOT NULL,
	sender_email TEXT,
	sender_name TEXT,
	recipient_email TEXT,
	recipient_name TEXT,
	subject TEXT,
	preview TEXT,
	date_sent DATETIME,
	chunk_id INTEGER NOT NULL,
	source TEXT,
	document_url TEXT,
	page_count INTEGER DEFAULT 0,
	file_type TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chunk_dir (
	chunk_id INTEGER PRIMARY KEY,
	start_ordinal INTEGER NOT NULL,
	end_ordinal INTEGER NOT NULL,
	path TEXT NOT NULL,
	byte_size INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS collection_info (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	display_name TEXT NOT NULL,
	record_count INTEGER DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS contacts (
	email TEXT PRIMARY KEY,
	name TEXT,
	display_name TEXT,
	record_count INTEGER DEFAULT 0,
	first_seen DATETIME,
	last_seen DATETIME
);

CREATE VIRTUAL TABLE IF NOT EXISTS record_search USING fts5(
	document_id UNINDEXED,
	sender_name,
	sender_email,
	recipient_name,
	recipient_email,
	subject,
	preview
);

CREATE INDEX IF NOT EXISTS idx_records_sender_email ON records(sender_email);
CREATE INDEX IF NOT EXISTS idx_records_recipient_email ON records(recipient_email);
CREATE INDEX IF NOT EXISTS idx_records_date_sent ON records(date_sent);
CREATE INDEX IF NOT EXISTS idx_records_chunk_id ON records(chunk_id);
`

// StoreWriter creates the metadata store file for a collection.
type StoreWriter struct {
	dir string
}

// NewStoreWriter creates a store writer rooted at the output directory.
func NewStoreWriter(dir string) *StoreWriter {
	return &StoreWriter{dir: dir}
}

// Create builds, populates and validates the store. Records must be in
// canonical (planned) order: record i carries ordinal i+1. Any failure
// aborts the whole step; no partial store is considered valid.
func (w *StoreWriter) Create(
	ctx context.Context,
	col domain.Collection,
	records []domain.Record,
	plan []domain.ChunkRef,
) (string, error) {
	if err := os.MkdirAll(w.dir, 0700); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(w.dir, domain.CollectionFilename(col.ID, col.Name)+".db")

	// A leftover store from a failed attempt must not survive.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("removing stale store: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(5000)")
	if err != nil {
		return "", fmt.Errorf("opening store: %w", err)
	}

	if err := w.populate(ctx, db, col, records, plan); err != nil {
		db.Close()
		os.Remove(path)
		return "", err
	}
	if err := db.Close(); err != nil {
		return "", fmt.Errorf("closing store: %w", err)
	}

	if err := w.validate(ctx, path, len(records)); err != nil {
		os.Remove(path)
		return "", err
	}

	logger.Info("Created metadata store %s with %d records", filepath.Base(path), len(records))
	return path, nil
}

// populate writes the full store contents inside one transaction.
func (w *StoreWriter) populate(
	ctx context.Context,
	db *sql.DB,
	col domain.Collection,
	records []domain.Record,
	plan []domain.ChunkRef,
) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO collection_info (id, name, display_name, record_count, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, col.ID, col.Name, col.DisplayName, len(records), col.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("saving collection info: %w", err)
	}

	if err := w.insertChunkDir(ctx, tx, plan); err != nil {
		return err
	}
	if err := w.insertRecords(ctx, tx, records, plan); err != nil {
		return err
	}
	if err := w.insertContacts(ctx, tx, records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing store: %w", err)
	}
	return nil
}

func (w *StoreWriter) insertChunkDir(ctx context.Context, tx *sql.Tx, plan []domain.ChunkRef) error {
	for _, ref := range plan {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chunk_dir (chunk_id, start_ordinal, end_ordinal, path, byte_size)
			VALUES (?, ?, ?, ?, ?)
		`, ref.ID, ref.StartOrdinal, ref.EndOrdinal, ref.Path, ref.ByteSize); err != nil {
			return fmt.Errorf("saving chunk %d: %w", ref.ID, err)
		}
	}
	return nil
}

func (w *StoreWriter) insertRecords(
	ctx context.Context, tx *sql.Tx, records []domain.Record, plan []domain.ChunkRef,
) error {
	recStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO records (
			ordinal, document_id, sender_email, sender_name, recipient_email, recipient_name,
			subject, preview, date_sent, chunk_id, source, document_url, page_count, file_type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing record statement: %w", err)
	}
	defer recStmt.Close()

	ftsStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO record_search (
			document_id, sender_name, sender_email, recipient_name, recipient_email, subject, preview
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing search statement: %w", err)
	}
	defer ftsStmt.Close()

	for i, rec := range records {
		ordinal := i + 1
		chunkID := chunkForOrdinal(plan, ordinal)
		if chunkID < 0 {
			return fmt.Errorf("ordinal %d outside chunk plan: %w", ordinal, domain.ErrInvalidInput)
		}

		if _, err := recStmt.ExecContext(ctx,
			ordinal, rec.DocumentID, rec.SenderEmail, rec.SenderName,
			rec.RecipientEmail, rec.RecipientName, rec.Subject, rec.Preview,
			sentAtValue(rec.SentAt), chunkID, rec.Source, rec.DocumentURL,
			rec.PageCount, rec.FileType,
		); err != nil {
			return fmt.Errorf("saving record %s: %w", rec.DocumentID, err)
		}

		if _, err := ftsStmt.ExecContext(ctx,
			rec.DocumentID, rec.SenderName, rec.SenderEmail,
			rec.RecipientName, rec.RecipientEmail, rec.Subject, rec.Preview,
		); err != nil {
			return fmt.Errorf("indexing record %s: %w", rec.DocumentID, err)
		}
	}
	return nil
}

func (w *StoreWriter) insertContacts(ctx context.Context, tx *sql.Tx, records []domain.Record) error {
	for _, c := range AggregateContacts(records) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO contacts (email, name, display_name, record_count, first_seen, last_seen)
			VALUES (?, ?, ?, ?, ?, ?)
		`, c.Email, c.Name, c.DisplayName, c.RecordCount,
			sentAtValue(c.FirstSeen), sentAtValue(c.LastSeen)); err != nil {
			return fmt.Errorf("saving contact %s: %w", c.Email, err)
		}
	}
	return nil
}

// validate re-opens the finished artifact and checks it is readable with
// the expected row counts.
func (w *StoreWriter) validate(ctx context.Context, path string, expected int) error {
	db, err := sql.Open("sqlite", path+"?_pragma=query_only(1)")
	if err != nil {
		return fmt.Errorf("%w: reopening: %v", domain.ErrStoreInvalid, err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&count); err != nil {
		return fmt.Errorf("%w: counting records: %v", domain.ErrStoreInvalid, err)
	}
	if count != expected {
		return fmt.Errorf("%w: got %d records, want %d", domain.ErrStoreInvalid, count, expected)
	}

	var collections int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM collection_info").Scan(&collections); err != nil {
		return fmt.Errorf("%w: counting collection info: %v", domain.ErrStoreInvalid, err)
	}
	if collections != 1 {
		return fmt.Errorf("%w: got %d collection rows, want 1", domain.ErrStoreInvalid, collections)
	}

	return nil
}

// chunkForOrdinal finds the chunk holding a 1-based ordinal, -1 if none.
func chunkForOrdinal(plan []domain.ChunkRef, ordinal int) int {
	for _, ref := range plan {
		if ordinal >= ref.StartOrdinal && ordinal <= ref.EndOrdinal {
			return ref.ID
		}
	}
	return -1
}

// sentAtValue converts an optional timestamp to a driver value.
func sentAtValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// AggregateContacts folds sender/recipient pairs across records into the
// contact roster. The unknown sentinel never becomes a contact; display
// names are backfilled only when previously absent.
func AggregateContacts(records []domain.Record) []domain.Contact {
	byEmail := make(map[string]*domain.Contact)
	var order []string

	touch := func(email, name string, seen *time.Time) {
		if email == "" || email == domain.UnknownEmail {
			return
		}
		c, ok := byEmail[email]
		if !ok {
			c = &domain.Contact{Email: email}
			byEmail[email] = c
			order = append(order, email)
		}
		c.RecordCount++
		if c.Name == "" && name != "" &&
			name != domain.UnknownSenderName && name != domain.UnknownRecipientName {
			c.Name = name
		}
		if seen != nil {
			if c.FirstSeen == nil || seen.Before(*c.FirstSeen) {
				s := *seen
				c.FirstSeen = &s
			}
			if c.LastSeen == nil || seen.After(*c.LastSeen) {
				s := *seen
				c.LastSeen = &s
			}
		}
	}

	for _, rec := range records {
		touch(rec.SenderEmail, rec.SenderName, rec.SentAt)
		touch(rec.RecipientEmail, rec.RecipientName, rec.SentAt)
	}

	contacts := make([]domain.Contact, 0, len(order))
	for _, email := range order {
		c := byEmail[email]
		if c.DisplayName == "" {
			if c.Name != "" {
				c.DisplayName = c.Name
			} else {
				c.DisplayName = c.Email
			}
		}
		contacts = append(contacts, *c)
	}
	return contacts
}
