// Package domain contains the core business entities for Open Inbox:
// records, collections, chunks, contacts and the manifest. It has no
// dependencies on adapters or infrastructure.
package domain
