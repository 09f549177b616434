package domain

import "time"

// DocHash is the fixed-length fingerprint of a credential document. The zero
// value is the "absent" sentinel and is never valid for a stored record.
type DocHash [32]byte

// IsZero reports whether the hash is the absent sentinel.
func (h DocHash) IsZero() bool {
	return h == DocHash{}
}

// Address identifies a credential holder. The registry treats it as opaque;
// ZeroAddress marks an unassigned holder.
type Address string

// ZeroAddress is the null holder sentinel.
const ZeroAddress Address = ""

// CertificateRecord is the authoritative data unit for one issued credential.
// A record is created once, revoked at most once, and never deleted.
type CertificateRecord struct {
	ID            string
	DocHash       DocHash
	Recipient     Address
	MetadataURI   string
	IssuedAt      time.Time
	Revoked       bool
	RevokedReason string
}

// Valid reports the verification judgment for the record: issued and not
// revoked. The zero record is never valid because its DocHash is the absent
// sentinel.
func (r CertificateRecord) Valid() bool {
	return !r.DocHash.IsZero() && !r.Revoked
}
