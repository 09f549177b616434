package sentinel

import "errors"

// Sentinel errors for ledger-state facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about registry records, not validation
// failures:
// - ErrNotFound: no record exists for the identifier
// - ErrAlreadyExists: the identifier or document hash is already occupied
// - ErrAlreadyRevoked: the record's revoked flag is already set
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrAlreadyRevoked = errors.New("already revoked")
)
