package interfaces

import "errors"

var (
	// ErrNotFound is wrapped by repositories when a record does not exist
	ErrNotFound = errors.New("not found")

	// ErrUpsertConflict is wrapped when concurrent writers kept claiming the
	// same identity and the upsert gave up retrying
	ErrUpsertConflict = errors.New("upsert conflict")
)
