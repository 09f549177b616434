package httptransport

// Wire types follow the field names the original web client submits; the
// document never travels, only its 0x-hex fingerprint.

type issueRequest struct {
	CertID      string `json:"certId"`
	DocHash     string `json:"docHash"`
	Recipient   string `json:"recipient"`
	MetadataURI string `json:"metadataUri"`
}

type issueBatchRequest struct {
	Certificates []issueRequest `json:"certificates"`
}

type revokeRequest struct {
	Reason string `json:"reason"`
}
