package registry

import (
	"time"

	"eduledger/internal/domain"
)

// IssueRequest carries the caller-supplied fields for one issuance. The
// document itself never reaches the registry; callers fingerprint it
// client-side and submit only the digest.
type IssueRequest struct {
	ID          string
	DocHash     domain.DocHash
	Recipient   domain.Address
	MetadataURI string
}

// Verification is the judgment returned by the query engine. IsValid is true
// iff a record exists and is not revoked. Exists lets callers distinguish
// "never issued" from "issued but revoked"; both are invalid.
//
// MetadataURI and RevokedReason are deliberately absent: verification reveals
// no more than it must. Inspect returns the full record for issuers.
type Verification struct {
	IsValid   bool
	Exists    bool
	ID        string
	DocHash   domain.DocHash
	Recipient domain.Address
	IssuedAt  time.Time
}
