package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "idverse/pkg/domain-errors"
)

const (
	// ContextCredentialsV1 is always the first @context entry.
	ContextCredentialsV1 = "https://www.w3.org/2018/credentials/v1"

	// TypeVerifiableCredential must appear in every document's type list.
	TypeVerifiableCredential = "VerifiableCredential"

	// ProofTypeEd25519 is the only proof suite this service produces or accepts.
	ProofTypeEd25519 = "Ed25519Signature2020"

	// ProofPurposeAssertion is fixed for issued credentials.
	ProofPurposeAssertion = "assertionMethod"

	// SubjectIDKey is the credentialSubject key holding the subject identifier.
	SubjectIDKey = "id"

	// DefaultIssuer is used when no issuer DID is configured.
	DefaultIssuer = "did:example:issuer"

	credentialIDPrefix = "vc_"
	subjectDIDPrefix   = "did:example:"
)

// CredentialID is the prefixed identifier for issued credentials.
type CredentialID string

// NewCredentialID generates a new credential ID with a stable prefix.
func NewCredentialID() CredentialID {
	return CredentialID(credentialIDPrefix + uuid.NewString())
}

// ParseCredentialID validates the vc_<uuid> form.
func ParseCredentialID(value string) (CredentialID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "credential_id is required")
	}
	if !strings.HasPrefix(value, credentialIDPrefix) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "credential_id must start with vc_")
	}
	if _, err := uuid.Parse(strings.TrimPrefix(value, credentialIDPrefix)); err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid credential_id format")
	}
	return CredentialID(value), nil
}

// LookupCandidates returns the identifiers tried, in order, when resolving a
// presented reference: the value as given, then the value with the vc_ prefix
// added if it was missing. Substring matches are never attempted.
func LookupCandidates(ref string) []CredentialID {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	out := []CredentialID{CredentialID(ref)}
	if !strings.HasPrefix(ref, credentialIDPrefix) {
		out = append(out, CredentialID(credentialIDPrefix+ref))
	}
	return out
}

func (id CredentialID) String() string { return string(id) }

// SubjectDID maps a bare subject id onto the example DID method. Values that
// are already DIDs pass through.
func SubjectDID(subjectID string) string {
	if strings.HasPrefix(subjectID, "did:") {
		return subjectID
	}
	return subjectDIDPrefix + subjectID
}

// Claims represents the claim set of a credential subject.
type Claims map[string]any

// Document is a W3C Verifiable Credential. Proof is nil until signed.
type Document struct {
	Context   []string       `json:"@context"`
	Types     []string       `json:"type"`
	ID        CredentialID   `json:"id"`
	Issuer    string         `json:"issuer"`
	Subject   map[string]any `json:"credentialSubject"`
	IssuedAt  time.Time      `json:"issuanceDate"`
	ExpiresAt *time.Time     `json:"expirationDate,omitempty"`
	Proof     *Proof         `json:"proof,omitempty"`
}

// Proof is the signature envelope attached after signing.
type Proof struct {
	Type               string    `json:"type"`
	Created            time.Time `json:"created"`
	VerificationMethod string    `json:"verificationMethod"`
	ProofPurpose       string    `json:"proofPurpose"`
	ProofValue         string    `json:"proofValue"`
}

// HasType reports whether t is among the document's types.
func (d *Document) HasType(t string) bool {
	for _, have := range d.Types {
		if have == t {
			return true
		}
	}
	return false
}

// CredentialType returns the first type that is not VerifiableCredential.
func (d *Document) CredentialType() string {
	for _, t := range d.Types {
		if t != TypeVerifiableCredential {
			return t
		}
	}
	return ""
}

// SubjectID returns the subject identifier, or "" when absent or not a string.
func (d *Document) SubjectID() string {
	s, _ := d.Subject[SubjectIDKey].(string)
	return s
}

// Claims returns the subject map without the subject id key.
func (d *Document) Claims() Claims {
	out := make(Claims, len(d.Subject))
	for k, v := range d.Subject {
		if k == SubjectIDKey {
			continue
		}
		out[k] = v
	}
	return out
}

// ExpiredAt reports whether the document has an expiry at or before now.
func (d *Document) ExpiredAt(now time.Time) bool {
	return d.ExpiresAt != nil && !now.Before(*d.ExpiresAt)
}

// WithoutProof returns a shallow copy with Proof cleared.
func (d Document) WithoutProof() Document {
	d.Proof = nil
	return d
}

// SignedDocument pairs a decoded document with the exact bytes it was
// resolved from. Signatures are checked against Raw so fields this service
// does not model still count toward the signed payload.
type SignedDocument struct {
	Document Document
	Raw      json.RawMessage
}

// CredentialRecord is the bookkeeping row persisted next to an issued
// credential. It holds references only; the signed bytes live in the content
// store.
type CredentialRecord struct {
	ID        CredentialID
	Type      string
	SubjectID string
	Issuer    string
	CID       string
	NumericID uint64
	IssuedAt  time.Time
	ExpiresAt *time.Time
}
