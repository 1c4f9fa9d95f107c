package bdd

import (
	"testing"

	"github.com/cucumber/godog"

	"github.com/travelmapping/siteupdate-go/test/bdd/steps"
)

func TestPipelineScenarios(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: steps.InitializePipelineScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/pipeline.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run pipeline BDD scenarios")
	}
}
