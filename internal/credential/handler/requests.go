package handler

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"idverse/internal/credential/models"
	dErrors "idverse/pkg/domain-errors"
	"idverse/pkg/validation"
)

// IssueRequest is the request body for credential issuance. At most one of
// ExpiresIn, ExpiresAt and NoExpiry may be set; none selects the server
// default TTL. With RequestID the subject, type and claims may be omitted and
// are taken from the pending credential request.
type IssueRequest struct {
	SubjectID      string         `json:"subject_id" validate:"required_without=RequestID,max=256"`
	CredentialType string         `json:"credential_type" validate:"required_without=RequestID,max=128"`
	Claims         map[string]any `json:"claims"`
	ExpiresIn      string         `json:"expires_in,omitempty" validate:"max=32"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
	NoExpiry       bool           `json:"no_expiry,omitempty"`
	RequestID      string         `json:"request_id,omitempty" validate:"max=128"`

	parsedExpiry models.ExpiryPolicy
}

func (r *IssueRequest) Normalize() {
	r.SubjectID = strings.TrimSpace(r.SubjectID)
	r.CredentialType = strings.TrimSpace(r.CredentialType)
	r.ExpiresIn = strings.TrimSpace(r.ExpiresIn)
	r.RequestID = strings.TrimSpace(r.RequestID)
}

// Validate validates the request and parses the expiry selection.
func (r *IssueRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}

	selected := 0
	if r.ExpiresIn != "" {
		selected++
	}
	if r.ExpiresAt != nil {
		selected++
	}
	if r.NoExpiry {
		selected++
	}
	if selected > 1 {
		return dErrors.New(dErrors.CodeValidation, "expires_in, expires_at and no_expiry are mutually exclusive")
	}

	switch {
	case r.NoExpiry:
		r.parsedExpiry = models.NeverExpire()
	case r.ExpiresAt != nil:
		r.parsedExpiry = models.ExpireAt(*r.ExpiresAt)
	case r.ExpiresIn != "":
		d, err := time.ParseDuration(r.ExpiresIn)
		if err != nil || d <= 0 {
			return dErrors.New(dErrors.CodeValidation, "expires_in must be a positive duration such as 720h")
		}
		r.parsedExpiry = models.ExpireAfter(d)
	}
	return nil
}

// ParsedExpiry returns the validated expiry policy.
func (r *IssueRequest) ParsedExpiry() models.ExpiryPolicy {
	return r.parsedExpiry
}

// RequestIssueRequest is the request body a holder sends to ask for a
// credential. SubjectID defaults to the authenticated caller.
type RequestIssueRequest struct {
	CredentialType string         `json:"credential_type" validate:"required,notblank,max=128"`
	SubjectID      string         `json:"subject_id,omitempty" validate:"max=256"`
	Claims         map[string]any `json:"claims"`
}

func (r *RequestIssueRequest) Normalize() {
	r.CredentialType = strings.TrimSpace(r.CredentialType)
	r.SubjectID = strings.TrimSpace(r.SubjectID)
}

func (r *RequestIssueRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

// PresentRequest is the request body for a presentation. The credential is
// referenced by value, CID or id; the first one present wins.
type PresentRequest struct {
	Credential   json.RawMessage `json:"credential,omitempty"`
	CID          string          `json:"cid,omitempty" validate:"max=256"`
	CredentialID string          `json:"credential_id,omitempty" validate:"max=128"`
	Disclosed    map[string]any  `json:"disclosed,omitempty"`
	Challenge    string          `json:"challenge,omitempty" validate:"max=256"`
}

func (r *PresentRequest) Normalize() {
	r.CID = strings.TrimSpace(r.CID)
	r.CredentialID = strings.TrimSpace(r.CredentialID)
	r.Challenge = strings.TrimSpace(r.Challenge)
	if bytes.Equal(bytes.TrimSpace(r.Credential), []byte("null")) {
		r.Credential = nil
	}
}

func (r *PresentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	if len(r.Credential) == 0 && r.CID == "" && r.CredentialID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "credential, cid or credential_id is required")
	}
	return nil
}

// ToModel converts the request into the engine input.
func (r *PresentRequest) ToModel() models.PresentRequest {
	return models.PresentRequest{
		Credential: models.CredentialRef{
			Document: r.Credential,
			CID:      r.CID,
			ID:       r.CredentialID,
		},
		Disclosed: r.Disclosed,
		Challenge: r.Challenge,
	}
}

// RevokeRequest is the request body for revocation. The id may be an
// application id or a registry numeric id.
type RevokeRequest struct {
	CredentialID string `json:"credential_id" validate:"required,notblank,max=128"`
	Reason       string `json:"reason" validate:"max=512"`
}

func (r *RevokeRequest) Normalize() {
	r.CredentialID = strings.TrimSpace(r.CredentialID)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *RevokeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}
