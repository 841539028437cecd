package e2e

import (
	"github.com/cucumber/godog"

	"idverse/e2e/steps/common"
	"idverse/e2e/steps/vc"
)

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	vc.RegisterSteps(ctx, tc)
}
