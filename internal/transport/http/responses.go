package httptransport

import (
	"time"

	"eduledger/internal/domain"
	"eduledger/internal/registry"
	"eduledger/pkg/fingerprint"
)

type certificateResponse struct {
	CertID      string    `json:"certId"`
	DocHash     string    `json:"docHash"`
	Recipient   string    `json:"recipient"`
	MetadataURI string    `json:"metadataUri"`
	IssuedAt    time.Time `json:"issuedAt"`
}

type certificateDetailResponse struct {
	certificateResponse
	Revoked       bool   `json:"revoked"`
	RevokedReason string `json:"revokedReason,omitempty"`
}

type verifyResponse struct {
	IsValid   bool       `json:"isValid"`
	Exists    bool       `json:"exists"`
	CertID    string     `json:"certId,omitempty"`
	DocHash   string     `json:"docHash,omitempty"`
	Recipient string     `json:"recipient,omitempty"`
	IssuedAt  *time.Time `json:"issuedAt,omitempty"`
}

type issueBatchResponse struct {
	Certificates []certificateResponse `json:"certificates"`
}

func toCertificateResponse(record domain.CertificateRecord) certificateResponse {
	return certificateResponse{
		CertID:      record.ID,
		DocHash:     fingerprint.Hex(record.DocHash),
		Recipient:   string(record.Recipient),
		MetadataURI: record.MetadataURI,
		IssuedAt:    record.IssuedAt,
	}
}

func toVerifyResponse(v registry.Verification) verifyResponse {
	resp := verifyResponse{
		IsValid:   v.IsValid,
		Exists:    v.Exists,
		CertID:    v.ID,
		Recipient: string(v.Recipient),
	}
	if !v.DocHash.IsZero() {
		resp.DocHash = fingerprint.Hex(v.DocHash)
	}
	if !v.IssuedAt.IsZero() {
		at := v.IssuedAt
		resp.IssuedAt = &at
	}
	return resp
}
