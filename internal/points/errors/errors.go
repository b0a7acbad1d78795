package errors

import "errors"

var (
	// ErrAlreadyRecorded is the unique (source, source_id, type) index firing:
	// the ledger already holds this entry.
	ErrAlreadyRecorded = errors.New("point transaction already recorded")
)
