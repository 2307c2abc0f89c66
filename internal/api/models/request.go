package models

// RunScenarioQuery holds the query-string options accepted alongside the
// YAML scenario body on POST /api/v1/scenarios.
type RunScenarioQuery struct {
	Seed          int64 `form:"seed"`
	IncludeTraces bool  `form:"include_traces"`
}
