package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"idverse/internal/credential/contentstore"
	"idverse/internal/credential/models"
	jwttoken "idverse/internal/jwt_token"
	"idverse/pkg/canonical"
	"idverse/pkg/testutil/testserver"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestKeygenIsStableAcrossRuns(t *testing.T) {
	dir := t.TempDir()

	first, err := execute(t, "keygen", "--issuer", "did:example:acme", "--keys-dir", dir)
	require.NoError(t, err)
	second, err := execute(t, "keygen", "--issuer", "did:example:acme", "--keys-dir", dir)
	require.NoError(t, err)

	var a, b map[string]any
	require.NoError(t, json.Unmarshal([]byte(first), &a))
	require.NoError(t, json.Unmarshal([]byte(second), &b))
	assert.Equal(t, true, a["generated"])
	assert.Equal(t, false, b["generated"])
	assert.Equal(t, a["public_key_multibase"], b["public_key_multibase"])
	assert.Equal(t, "did:example:acme#key-1", a["verification_method"])
}

func TestCIDIgnoresFormatting(t *testing.T) {
	compact := writeFile(t, "a.json", `{"b":2,"a":1}`)
	pretty := writeFile(t, "b.json", "{\n  \"a\": 1,\n  \"b\": 2\n}\n")

	first, err := execute(t, "cid", compact)
	require.NoError(t, err)
	second, err := execute(t, "cid", pretty)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	canon, err := canonical.Marshal(map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	want, err := contentstore.ComputeCID(canon)
	require.NoError(t, err)
	assert.Equal(t, want.String()+"\n", first)
}

func TestCIDRejectsInvalidJSON(t *testing.T) {
	_, err := execute(t, "cid", writeFile(t, "bad.json", `{"a":`))
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	t.Setenv("VCCTL_JWT_SIGNING_KEY", "cli-test-key")

	out, err := execute(t, "token", "--subject", "ops@example.com", "--ttl", "10m")
	require.NoError(t, err)

	var tok tokenOutput
	require.NoError(t, json.Unmarshal([]byte(out), &tok))
	assert.Equal(t, jwttoken.RoleIssuer, tok.Role)

	svc := jwttoken.NewJWTService("cli-test-key", jwttoken.DefaultIssuer, jwttoken.DefaultAudience, time.Minute)
	claims, err := svc.ValidateToken(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, jwttoken.RoleIssuer, claims.Role)
}

func TestParseKeyValues(t *testing.T) {
	got, err := parseKeyValues([]string{"age=30", "name=alice", "adult=true", "nationalId=9007199254740993", "note=30 days"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"age":        json.Number("30"),
		"name":       "alice",
		"adult":      true,
		"nationalId": json.Number("9007199254740993"),
		"note":       "30 days",
	}, got)

	_, err = parseKeyValues([]string{"=x"})
	assert.Error(t, err)
	_, err = parseKeyValues([]string{"novalue"})
	assert.Error(t, err)
}

// RemoteSuite drives the server-facing commands against an in-process server.
type RemoteSuite struct {
	suite.Suite
	srv   *testserver.Server
	token string
}

func TestRemoteSuite(t *testing.T) {
	suite.Run(t, new(RemoteSuite))
}

func (s *RemoteSuite) SetupTest() {
	s.srv = testserver.Start(s.T())
	token, err := s.srv.IssuerToken()
	s.Require().NoError(err)
	s.token = token
}

func (s *RemoteSuite) run(args ...string) (string, error) {
	return execute(s.T(), append(args, "--server", s.srv.URL)...)
}

func (s *RemoteSuite) issue(extra ...string) string {
	path := filepath.Join(s.T().TempDir(), "vc.json")
	args := append([]string{"issue", "--token", s.token,
		"--subject-id", "alice", "--type", "GovID", "--claim", "age=30", "--out", path}, extra...)
	_, err := s.run(args...)
	s.Require().NoError(err)
	return path
}

func (s *RemoteSuite) TestIssueRequiresToken() {
	_, err := s.run("issue", "--subject-id", "alice", "--type", "GovID")
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(401, apiErr.Status)
}

func (s *RemoteSuite) TestIssueNeedsSubjectAndTypeWithoutRequest() {
	_, err := s.run("issue", "--token", s.token, "--type", "GovID")
	s.EqualError(err, "--subject-id and --type are required unless --request-id is set")
}

func (s *RemoteSuite) TestRequestThenIssue() {
	holder, err := s.srv.HolderToken("alice")
	s.Require().NoError(err)

	out, err := s.run("request", "--token", holder, "--type", "GovID", "--claim", "age=30")
	s.Require().NoError(err)
	var pending struct {
		RequestID string `json:"request_id"`
		Status    string `json:"status"`
		SubjectID string `json:"subject_id"`
	}
	s.Require().NoError(json.Unmarshal([]byte(out), &pending))
	s.Equal("pending", pending.Status)
	s.Equal("did:example:alice", pending.SubjectID)

	_, err = s.run("issue", "--token", holder, "--request-id", pending.RequestID)
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(403, apiErr.Status)

	out, err = s.run("issue", "--token", s.token, "--request-id", pending.RequestID)
	s.Require().NoError(err)
	s.Contains(out, pending.RequestID)
	s.Contains(out, `"did:example:alice"`)
}

func (s *RemoteSuite) TestVerifyWithServerKey() {
	path := s.issue()

	out, err := s.run("verify", path)
	s.Require().NoError(err)
	var res verifyOutput
	s.Require().NoError(json.Unmarshal([]byte(out), &res))
	s.True(res.SignatureOK)
	s.Equal(models.DefaultIssuer, res.Issuer)
}

func (s *RemoteSuite) TestVerifyWithExplicitKeyDetectsTampering() {
	path := s.issue()
	raw, err := os.ReadFile(path)
	s.Require().NoError(err)
	tampered := bytes.Replace(raw, []byte(`"age":30`), []byte(`"age":31`), 1)
	s.Require().NotEqual(raw, tampered)
	s.Require().NoError(os.WriteFile(path, tampered, 0o600))

	_, err = execute(s.T(), "verify", path, "--public-key", s.srv.Signer.PublicKeyMultibase())
	s.EqualError(err, "signature invalid")
}

func (s *RemoteSuite) TestPresentWithFreshChallenge() {
	path := s.issue()

	out, err := s.run("present", path, "--fetch-challenge", "--disclose", "age=30")
	s.Require().NoError(err)
	s.Contains(out, `"verified": true`)
	s.Contains(out, `"challenge_ok": true`)
}

func (s *RemoteSuite) TestRevokeThenPresentFails() {
	path := s.issue()
	var doc models.Document
	raw, err := os.ReadFile(path)
	s.Require().NoError(err)
	s.Require().NoError(json.Unmarshal(raw, &doc))

	_, err = s.run("revoke", string(doc.ID), "--token", s.token, "--reason", "lost")
	s.Require().NoError(err)

	out, err := s.run("status", string(doc.ID))
	s.Require().NoError(err)
	s.Contains(out, `"revoked": true`)

	out, err = s.run("present", "--credential-id", string(doc.ID), "--fetch-challenge")
	s.ErrorIs(err, ErrNotVerified)
	s.Contains(out, `"Revoked"`)

	_, err = s.run("revoke", string(doc.ID), "--token", s.token)
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(409, apiErr.Status)
}

func (s *RemoteSuite) TestChallenge() {
	out, err := s.run("challenge")
	s.Require().NoError(err)
	s.Contains(out, `"challenge"`)
	s.Contains(out, `"expires_at"`)
}

func (s *RemoteSuite) TestPresentNeedsReference() {
	_, err := s.run("present")
	s.Error(err)
}
