package ledgerlog

import (
	"time"

	"github.com/google/uuid"

	"eduledger/internal/domain"
)

// Type classifies a registry state change.
type Type string

const (
	TypeCertificateIssued  Type = "certificate.issued"
	TypeCertificateRevoked Type = "certificate.revoked"
)

// Event is the durable journal entry appended for every state-changing
// operation. External indexers reconstruct per-holder certificate lists from
// this stream; the registry itself never scans.
//
// Issuance events carry (CertificateID, Recipient, DocHash, MetadataURI,
// IssuedAt) in that stable order on the wire.
type Event struct {
	ID        uuid.UUID `json:"ID"`
	Type      Type      `json:"Type"`
	Timestamp time.Time `json:"Timestamp"`

	CertificateID string         `json:"CertificateID"`
	Recipient     domain.Address `json:"Recipient,omitempty"`
	DocHash       string         `json:"DocHash,omitempty"`
	MetadataURI   string         `json:"MetadataURI,omitempty"`
	IssuedAt      time.Time      `json:"IssuedAt,omitzero"`

	// Reason is set for revocation events only.
	Reason string `json:"Reason,omitempty"`

	// Request provenance, for operational correlation.
	IssuerID  string `json:"IssuerID,omitempty"`
	RequestID string `json:"RequestID,omitempty"`
}
