package handler

import (
	"time"

	"idverse/internal/credential/models"
)

// IssueResponse is the response body for credential issuance.
type IssueResponse struct {
	Credential models.Document `json:"credential"`
	CID        string          `json:"cid"`
	NumericID  uint64          `json:"numeric_id"`
	Receipt    ReceiptResponse `json:"receipt"`
	RequestID  string          `json:"request_id,omitempty"`
}

// RequestIssueResponse acknowledges a pending credential request. Next names
// the endpoint an operator uses to fulfil it.
type RequestIssueResponse struct {
	RequestID      string    `json:"request_id"`
	Status         string    `json:"status"`
	CredentialType string    `json:"credential_type"`
	SubjectID      string    `json:"subject_id"`
	ExpiresAt      time.Time `json:"expires_at"`
	Next           string    `json:"next"`
}

// ReceiptResponse acknowledges a registry state change.
type ReceiptResponse struct {
	TxHash       string    `json:"tx_hash"`
	Operation    string    `json:"operation"`
	CredentialID string    `json:"credential_id"`
	NumericID    uint64    `json:"numeric_id,omitempty"`
	At           time.Time `json:"at"`
	Reason       string    `json:"reason,omitempty"`
}

func toReceiptResponse(r models.Receipt) ReceiptResponse {
	return ReceiptResponse{
		TxHash:       r.TxHash,
		Operation:    string(r.Operation),
		CredentialID: string(r.ApplicationID),
		NumericID:    r.NumericID,
		At:           r.At.UTC(),
		Reason:       r.Reason,
	}
}

// StatusResponse is the registry status of a credential.
type StatusResponse struct {
	CredentialID     string     `json:"credential_id,omitempty"`
	NumericID        uint64     `json:"numeric_id,omitempty"`
	Registered       bool       `json:"registered"`
	Revoked          bool       `json:"revoked"`
	Active           bool       `json:"active"`
	CID              string     `json:"cid,omitempty"`
	Issuer           string     `json:"issuer,omitempty"`
	IssuedAt         *time.Time `json:"issued_at,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	RevocationReason string     `json:"revocation_reason,omitempty"`
}

func toStatusResponse(id models.CredentialID, cid string, status models.RegistryStatus) StatusResponse {
	out := StatusResponse{
		CredentialID: string(id),
		Registered:   status.Registered,
		Revoked:      status.Revoked,
		Active:       status.Active(),
		CID:          cid,
	}
	if rec := status.Record; rec != nil {
		out.NumericID = rec.NumericID
		out.Issuer = rec.Issuer
		if !rec.IssuedAt.IsZero() {
			issued := rec.IssuedAt.UTC()
			out.IssuedAt = &issued
		}
		out.ExpiresAt = rec.ExpiresAt
		out.RevokedAt = rec.RevokedAt
		out.RevocationReason = rec.RevocationReason
	}
	return out
}

// ChecksResponse itemizes the presentation checks.
type ChecksResponse struct {
	TypeOK       bool `json:"type_ok"`
	NotExpired   bool `json:"not_expired"`
	SignatureOK  bool `json:"signature_ok"`
	Active       bool `json:"active"`
	DisclosureOK bool `json:"disclosure_ok"`
	ChallengeOK  bool `json:"challenge_ok"`
}

// VerdictResponse is the response body for a presentation.
type VerdictResponse struct {
	Verified     bool             `json:"verified"`
	CredentialID string           `json:"credential_id,omitempty"`
	CID          string           `json:"cid,omitempty"`
	Checks       ChecksResponse   `json:"checks"`
	Reasons      []string         `json:"reasons"`
	Status       StatusResponse   `json:"status"`
	Credential   *models.Document `json:"credential,omitempty"`
	CheckedAt    time.Time        `json:"checked_at"`
}

func toVerdictResponse(v *models.Verdict) VerdictResponse {
	reasons := make([]string, len(v.Reasons))
	for i, r := range v.Reasons {
		reasons[i] = string(r)
	}
	return VerdictResponse{
		Verified:     v.Verified,
		CredentialID: string(v.CredentialID),
		CID:          v.CID,
		Checks: ChecksResponse{
			TypeOK:       v.Checks.TypeOK,
			NotExpired:   v.Checks.NotExpired,
			SignatureOK:  v.Checks.SignatureOK,
			Active:       v.Checks.Active,
			DisclosureOK: v.Checks.DisclosureOK,
			ChallengeOK:  v.Checks.ChallengeOK,
		},
		Reasons:    reasons,
		Status:     toStatusResponse(v.CredentialID, v.CID, v.Status),
		Credential: v.Document,
		CheckedAt:  v.CheckedAt.UTC(),
	}
}

// ChallengeResponse carries a fresh presentation nonce.
type ChallengeResponse struct {
	Challenge string    `json:"challenge"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssuerInfoResponse publishes the issuer's verification key.
type IssuerInfoResponse struct {
	Issuer             string `json:"issuer"`
	VerificationMethod string `json:"verification_method"`
	PublicKeyMultibase string `json:"public_key_multibase"`
	PublicKeyHex       string `json:"public_key_hex"`
}

// CredentialSummary is one entry of a subject's credential list.
type CredentialSummary struct {
	CredentialID string     `json:"credential_id"`
	Type         string     `json:"type"`
	Issuer       string     `json:"issuer"`
	CID          string     `json:"cid"`
	NumericID    uint64     `json:"numeric_id,omitempty"`
	IssuedAt     time.Time  `json:"issued_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// SubjectCredentialsResponse lists credentials issued to a subject.
type SubjectCredentialsResponse struct {
	SubjectID   string              `json:"subject_id"`
	Credentials []CredentialSummary `json:"credentials"`
}
