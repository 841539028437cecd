package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "idverse/pkg/domain-errors"
)

func validDocument() map[string]any {
	return map[string]any{
		"@context":          []any{"https://www.w3.org/2018/credentials/v1"},
		"type":              []any{"VerifiableCredential", "GovID"},
		"id":                "vc_0b9f4c1e-2d7a-4f0e-9a55-0d8c9f1b2e3a",
		"issuer":            "did:example:issuer",
		"credentialSubject": map[string]any{"id": "did:example:alice", "age": 30},
		"issuanceDate":      "2026-03-01T12:00:00Z",
		"expirationDate":    "2027-03-01T12:00:00Z",
		"proof": map[string]any{
			"type":               "Ed25519Signature2020",
			"created":            "2026-03-01T12:00:00Z",
			"verificationMethod": "did:example:issuer#key-1",
			"proofPurpose":       "assertionMethod",
			"proofValue":         "z3abc",
		},
	}
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestValidateAcceptsSignedCredential(t *testing.T) {
	require.NoError(t, Validate(encode(t, validDocument())))
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing proof", func(d map[string]any) { delete(d, "proof") }},
		{"missing issuer", func(d map[string]any) { delete(d, "issuer") }},
		{"type is a string", func(d map[string]any) { d["type"] = "VerifiableCredential" }},
		{"empty type list", func(d map[string]any) { d["type"] = []any{} }},
		{"subject without id", func(d map[string]any) { d["credentialSubject"] = map[string]any{"age": 30} }},
		{"bad issuance date", func(d map[string]any) { d["issuanceDate"] = "yesterday" }},
		{"proof without value", func(d map[string]any) { delete(d["proof"].(map[string]any), "proofValue") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDocument()
			tt.mutate(doc)
			err := Validate(encode(t, doc))
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedDocument))
		})
	}
}

func TestValidateRejectsNonJSON(t *testing.T) {
	err := Validate([]byte("{not json"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedDocument))
}
