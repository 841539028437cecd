package vc

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	POSTWithHeaders(path string, body interface{}, headers map[string]string) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	GetAccessToken() string
	GetLastResponseBody() []byte
	GetLastResponseStatus() int
}

// RegisterSteps registers VC-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &vcSteps{tc: tc}

	// Issuance steps
	ctx.Step(`^I issue a "([^"]*)" credential for subject "([^"]*)" with claims:$`, steps.issueWithClaims)
	ctx.Step(`^I have issued a "([^"]*)" credential for subject "([^"]*)"$`, steps.haveIssued)
	ctx.Step(`^I have issued a "([^"]*)" credential for subject "([^"]*)" expiring in "([^"]*)"$`, steps.haveIssuedExpiring)

	// Holder request steps
	ctx.Step(`^I request a "([^"]*)" credential with claims:$`, steps.requestCredential)
	ctx.Step(`^I issue the requested credential$`, steps.issueRequested)

	// Lifecycle steps
	ctx.Step(`^I revoke the issued credential with reason "([^"]*)"$`, steps.revokeIssued)
	ctx.Step(`^I look up the status of the issued credential by numeric id$`, steps.statusByNumericID)

	// Presentation steps
	ctx.Step(`^I request a challenge$`, steps.requestChallenge)
	ctx.Step(`^I present the issued credential with the challenge$`, steps.presentWithChallenge)
	ctx.Step(`^I present the issued credential with the challenge disclosing:$`, steps.presentWithChallengeDisclosing)
	ctx.Step(`^I present the issued credential by content id$`, steps.presentByCID)
	ctx.Step(`^I present credential id "([^"]*)" with the challenge$`, steps.presentIDWithChallenge)

	// Verdict assertion steps
	ctx.Step(`^the credential should be verified$`, steps.shouldBeVerified)
	ctx.Step(`^the credential should not be verified$`, steps.shouldNotBeVerified)
	ctx.Step(`^the check "([^"]*)" should be (true|false)$`, steps.checkShouldBe)
	ctx.Step(`^the verdict reasons should include "([^"]*)"$`, steps.reasonsShouldInclude)
}

type issued struct {
	credential json.RawMessage
	cid        string
	id         string
	numericID  uint64
}

type vcSteps struct {
	tc        TestContext
	issued    *issued
	challenge string
	requestID string
}

func (s *vcSteps) authHeaders() map[string]string {
	token := s.tc.GetAccessToken()
	if token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

func (s *vcSteps) issue(body map[string]interface{}) error {
	if err := s.tc.POSTWithHeaders("/vc/issue", body, s.authHeaders()); err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != 201 {
		return nil
	}

	var resp struct {
		Credential json.RawMessage `json:"credential"`
		CID        string          `json:"cid"`
		NumericID  uint64          `json:"numeric_id"`
		Receipt    struct {
			CredentialID string `json:"credential_id"`
		} `json:"receipt"`
	}
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &resp); err != nil {
		return fmt.Errorf("failed to parse issue response: %w", err)
	}
	s.issued = &issued{
		credential: resp.Credential,
		cid:        resp.CID,
		id:         resp.Receipt.CredentialID,
		numericID:  resp.NumericID,
	}
	return nil
}

func (s *vcSteps) issueWithClaims(ctx context.Context, credType, subject string, table *godog.Table) error {
	claims, err := tableToMap(table)
	if err != nil {
		return err
	}
	return s.issue(map[string]interface{}{
		"subject_id":      subject,
		"credential_type": credType,
		"claims":          claims,
	})
}

func (s *vcSteps) haveIssued(ctx context.Context, credType, subject string) error {
	return s.haveIssuedWith(map[string]interface{}{
		"subject_id":      subject,
		"credential_type": credType,
		"claims":          map[string]interface{}{"age": 30},
	})
}

func (s *vcSteps) haveIssuedExpiring(ctx context.Context, credType, subject, expiresIn string) error {
	return s.haveIssuedWith(map[string]interface{}{
		"subject_id":      subject,
		"credential_type": credType,
		"claims":          map[string]interface{}{"age": 30},
		"expires_in":      expiresIn,
	})
}

func (s *vcSteps) haveIssuedWith(body map[string]interface{}) error {
	if err := s.issue(body); err != nil {
		return err
	}
	if s.issued == nil {
		return fmt.Errorf("issuance failed with status %d: %s", s.tc.GetLastResponseStatus(), string(s.tc.GetLastResponseBody()))
	}
	return nil
}

func (s *vcSteps) requestCredential(ctx context.Context, credType string, table *godog.Table) error {
	claims, err := tableToMap(table)
	if err != nil {
		return err
	}
	body := map[string]interface{}{
		"credential_type": credType,
		"claims":          claims,
	}
	if err := s.tc.POSTWithHeaders("/vc/request-issue", body, s.authHeaders()); err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != 202 {
		return nil
	}
	value, err := s.tc.GetResponseField("request_id")
	if err != nil {
		return err
	}
	id, _ := value.(string)
	if id == "" {
		return fmt.Errorf("request-issue response carried no request_id")
	}
	s.requestID = id
	return nil
}

func (s *vcSteps) issueRequested(ctx context.Context) error {
	if s.requestID == "" {
		return fmt.Errorf("no credential has been requested in this scenario")
	}
	return s.issue(map[string]interface{}{"request_id": s.requestID})
}

func (s *vcSteps) requireIssued() error {
	if s.issued == nil {
		return fmt.Errorf("no credential has been issued in this scenario")
	}
	return nil
}

func (s *vcSteps) revokeIssued(ctx context.Context, reason string) error {
	if err := s.requireIssued(); err != nil {
		return err
	}
	body := map[string]interface{}{
		"credential_id": s.issued.id,
		"reason":        reason,
	}
	return s.tc.POSTWithHeaders("/vc/revoke", body, s.authHeaders())
}

func (s *vcSteps) statusByNumericID(ctx context.Context) error {
	if err := s.requireIssued(); err != nil {
		return err
	}
	return s.tc.GET("/vc/status/"+strconv.FormatUint(s.issued.numericID, 10), nil)
}

func (s *vcSteps) requestChallenge(ctx context.Context) error {
	if err := s.tc.GET("/vc/challenge", nil); err != nil {
		return err
	}
	value, err := s.tc.GetResponseField("challenge")
	if err != nil {
		return err
	}
	challenge, ok := value.(string)
	if !ok || challenge == "" {
		return fmt.Errorf("challenge response carried no token")
	}
	s.challenge = challenge
	return nil
}

func (s *vcSteps) present(body map[string]interface{}) error {
	return s.tc.POST("/vc/present", body)
}

func (s *vcSteps) presentWithChallenge(ctx context.Context) error {
	if err := s.requireIssued(); err != nil {
		return err
	}
	return s.present(map[string]interface{}{
		"credential": s.issued.credential,
		"challenge":  s.challenge,
	})
}

func (s *vcSteps) presentWithChallengeDisclosing(ctx context.Context, table *godog.Table) error {
	if err := s.requireIssued(); err != nil {
		return err
	}
	disclosed, err := tableToMap(table)
	if err != nil {
		return err
	}
	return s.present(map[string]interface{}{
		"credential": s.issued.credential,
		"challenge":  s.challenge,
		"disclosed":  disclosed,
	})
}

func (s *vcSteps) presentByCID(ctx context.Context) error {
	if err := s.requireIssued(); err != nil {
		return err
	}
	return s.present(map[string]interface{}{"cid": s.issued.cid})
}

func (s *vcSteps) presentIDWithChallenge(ctx context.Context, id string) error {
	return s.present(map[string]interface{}{
		"credential_id": id,
		"challenge":     s.challenge,
	})
}

func (s *vcSteps) verdict() (map[string]interface{}, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &data); err != nil {
		return nil, fmt.Errorf("failed to parse verdict: %w", err)
	}
	return data, nil
}

func (s *vcSteps) shouldBeVerified(ctx context.Context) error {
	v, err := s.verdict()
	if err != nil {
		return err
	}
	if verified, _ := v["verified"].(bool); !verified {
		return fmt.Errorf("expected verified verdict, got reasons %v", v["reasons"])
	}
	return nil
}

func (s *vcSteps) shouldNotBeVerified(ctx context.Context) error {
	v, err := s.verdict()
	if err != nil {
		return err
	}
	if verified, _ := v["verified"].(bool); verified {
		return fmt.Errorf("expected verdict to fail but it was verified")
	}
	return nil
}

func (s *vcSteps) checkShouldBe(ctx context.Context, check, expected string) error {
	value, err := s.tc.GetResponseField("checks." + check)
	if err != nil {
		return err
	}
	if fmt.Sprint(value) != expected {
		return fmt.Errorf("check %s: expected %s but got %v", check, expected, value)
	}
	return nil
}

func (s *vcSteps) reasonsShouldInclude(ctx context.Context, reason string) error {
	value, err := s.tc.GetResponseField("reasons")
	if err != nil {
		return err
	}
	reasons, _ := value.([]interface{})
	for _, r := range reasons {
		if r == reason {
			return nil
		}
	}
	return fmt.Errorf("reason %s not in %v", reason, reasons)
}

// tableToMap reads a two-column key/value table. Cells that parse as JSON
// keep their type, so "30" becomes a number.
func tableToMap(table *godog.Table) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(table.Rows))
	for _, row := range table.Rows {
		if len(row.Cells) != 2 {
			return nil, fmt.Errorf("expected key/value rows, got %d cells", len(row.Cells))
		}
		var value interface{}
		if err := json.Unmarshal([]byte(row.Cells[1].Value), &value); err != nil {
			value = row.Cells[1].Value
		}
		out[row.Cells[0].Value] = value
	}
	return out, nil
}
