package common

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	ResponseContains(field string) bool
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	IssueOperatorToken() (string, error)
	IssueHolderToken(subject string) (string, error)
	SetAccessToken(token string)
	AdvanceClock(d time.Duration)
}

// RegisterSteps registers common step definitions used across features
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	// Background steps
	ctx.Step(`^the credential engine is running$`, steps.engineIsRunning)
	ctx.Step(`^I am authenticated as an issuer$`, steps.authenticatedAsIssuer)
	ctx.Step(`^I am authenticated as holder "([^"]*)"$`, steps.authenticatedAsHolder)
	ctx.Step(`^I am not authenticated$`, steps.notAuthenticated)

	// Time steps
	ctx.Step(`^the clock advances by "([^"]*)"$`, steps.clockAdvancesBy)

	// Response assertion steps
	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, steps.responseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.responseFieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should start with "([^"]*)"$`, steps.responseFieldShouldStartWith)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) engineIsRunning(ctx context.Context) error {
	if err := s.tc.GET("/health/live", nil); err != nil {
		return err
	}
	return s.responseStatusShouldBe(ctx, 200)
}

func (s *commonSteps) authenticatedAsIssuer(ctx context.Context) error {
	token, err := s.tc.IssueOperatorToken()
	if err != nil {
		return fmt.Errorf("failed to mint operator token: %w", err)
	}
	s.tc.SetAccessToken(token)
	return nil
}

func (s *commonSteps) authenticatedAsHolder(ctx context.Context, subject string) error {
	token, err := s.tc.IssueHolderToken(subject)
	if err != nil {
		return fmt.Errorf("failed to mint holder token: %w", err)
	}
	s.tc.SetAccessToken(token)
	return nil
}

func (s *commonSteps) notAuthenticated(ctx context.Context) error {
	s.tc.SetAccessToken("")
	return nil
}

func (s *commonSteps) clockAdvancesBy(ctx context.Context, duration string) error {
	d, err := time.ParseDuration(duration)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", duration, err)
	}
	s.tc.AdvanceClock(d)
	return nil
}

func (s *commonSteps) responseStatusShouldBe(ctx context.Context, expectedStatus int) error {
	actualStatus := s.tc.GetLastResponseStatus()
	if actualStatus != expectedStatus {
		return fmt.Errorf("expected status %d but got %d\nResponse: %s", expectedStatus, actualStatus, string(s.tc.GetLastResponseBody()))
	}
	return nil
}

func (s *commonSteps) responseShouldContain(ctx context.Context, field string) error {
	if !s.tc.ResponseContains(field) {
		return fmt.Errorf("response does not contain field: %s\nResponse: %s", field, string(s.tc.GetLastResponseBody()))
	}
	return nil
}

func (s *commonSteps) responseFieldShouldEqual(ctx context.Context, field, expectedValue string) error {
	actualValue, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprint(actualValue) != expectedValue {
		return fmt.Errorf("field %s: expected %s but got %v", field, expectedValue, actualValue)
	}
	return nil
}

func (s *commonSteps) responseFieldShouldStartWith(ctx context.Context, field, prefix string) error {
	actualValue, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(fmt.Sprint(actualValue), prefix) {
		return fmt.Errorf("field %s: expected prefix %s but got %v", field, prefix, actualValue)
	}
	return nil
}
