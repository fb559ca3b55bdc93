package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoRecords indicates extraction produced no records at all.
	// Total failure is reported distinctly from partial failure.
	ErrNoRecords = errors.New("no records extracted")

	// ErrStoreInvalid indicates the metadata store failed post-commit
	// validation. No partial store is considered valid.
	ErrStoreInvalid = errors.New("metadata store failed validation")

	// ErrInterrupted indicates the run was stopped by the host deadline.
	// It is an orderly early return, not a failure.
	ErrInterrupted = errors.New("run interrupted")

	// ErrDeployFailed indicates the sink could not be reached at all.
	// Local artifacts remain available for manual recovery.
	ErrDeployFailed = errors.New("deployment failed")

	// ErrPayloadTooLarge indicates an artifact exceeds the sink's size ceiling.
	ErrPayloadTooLarge = errors.New("payload exceeds size ceiling")

	// ErrRateLimited indicates the sink API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
