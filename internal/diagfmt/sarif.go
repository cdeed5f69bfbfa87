package diagfmt

import (
	"encoding/json"
	"io"
	"path/filepath"

	"optdbg/internal/diag"
	"optdbg/internal/session"
)

const (
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion = "2.1.0"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool              `json:"tool"`
	Invocations       []sarifInvocation      `json:"invocations,omitempty"`
	AutomationDetails *sarifAutomationDetail `json:"automationDetails,omitempty"`
	Results           []sarifResult          `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules"`
}

type sarifText struct {
	Text string `json:"text"`
}

type sarifRule struct {
	ID                   string            `json:"id"`
	ShortDescription     sarifText         `json:"shortDescription"`
	FullDescription      *sarifText        `json:"fullDescription,omitempty"`
	DefaultConfiguration sarifRuleConfig   `json:"defaultConfiguration"`
	Properties           map[string]string `json:"properties,omitempty"`
}

type sarifRuleConfig struct {
	Level string `json:"level"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifAutomationDetail struct {
	ID string `json:"id"`
}

type sarifResult struct {
	RuleID     string          `json:"ruleId"`
	RuleIndex  int             `json:"ruleIndex"`
	Level      string          `json:"level"`
	Message    sarifText       `json:"message"`
	Locations  []sarifLocation `json:"locations,omitempty"`
	Properties map[string]any  `json:"properties,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation *sarifPhysical `json:"physicalLocation,omitempty"`
	LogicalLocations []sarifLogical `json:"logicalLocations,omitempty"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           *sarifRegion  `json:"region,omitempty"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine"`
	StartColumn uint32 `json:"startColumn,omitempty"`
}

type sarifLogical struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SevCritical, diag.SevHigh:
		return "error"
	case diag.SevMedium:
		return "warning"
	default:
		return "note"
	}
}

// Sarif writes the selected diagnostics as a SARIF 2.1.0 log. Rules are the
// distinct pattern ids in first-seen order.
func Sarif(w io.Writer, s *session.Session, opts ReportOpts, meta SarifRunMeta) error {
	shown := Select(s.Diagnostics, opts)

	name := meta.ToolName
	if name == "" {
		name = "optdbg"
	}
	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: name, Version: meta.ToolVersion, Rules: []sarifRule{}}},
		Results: make([]sarifResult, 0, len(shown)),
	}
	if len(meta.InvocationArgs) > 0 {
		run.Invocations = []sarifInvocation{{Arguments: meta.InvocationArgs, ExecutionSuccessful: true}}
	}
	if s.RunID != "" {
		run.AutomationDetails = &sarifAutomationDetail{ID: s.RunID}
	}

	ruleIndex := make(map[string]int)
	for i := range shown {
		r := &shown[i]
		id := r.RuleID()
		idx, ok := ruleIndex[id]
		if !ok {
			idx = len(run.Tool.Driver.Rules)
			ruleIndex[id] = idx
			rule := sarifRule{
				ID:                   id,
				ShortDescription:     sarifText{Text: r.ShortReason},
				DefaultConfiguration: sarifRuleConfig{Level: sarifLevel(r.Severity)},
				Properties:           map[string]string{"pass": r.Pass},
			}
			if !r.IsFallback() && r.DetailedExplanation != "" {
				rule.FullDescription = &sarifText{Text: r.DetailedExplanation}
			}
			run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, rule)
		}

		res := sarifResult{
			RuleID:    id,
			RuleIndex: idx,
			Level:     sarifLevel(r.Severity),
			Message:   sarifText{Text: r.ShortReason + ": " + r.RootCause},
			Properties: map[string]any{
				"pass":     r.Pass,
				"remark":   r.RemarkName,
				"severity": r.Severity.String(),
			},
		}
		if r.EstimatedSpeedup > 0 {
			res.Properties["estimatedSpeedup"] = r.EstimatedSpeedup
		}
		loc := sarifLocation{}
		if r.Location.IsValid() {
			phys := &sarifPhysical{ArtifactLocation: sarifArtifact{URI: filepath.ToSlash(r.Location.File)}}
			if r.Location.Line > 0 {
				phys.Region = &sarifRegion{StartLine: r.Location.Line, StartColumn: r.Location.Column}
			}
			loc.PhysicalLocation = phys
		}
		if r.Function != "" {
			loc.LogicalLocations = []sarifLogical{{Name: r.Function, Kind: "function"}}
		}
		if loc.PhysicalLocation != nil || loc.LogicalLocations != nil {
			res.Locations = []sarifLocation{loc}
		}
		run.Results = append(run.Results, res)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(sarifLog{Schema: sarifSchema, Version: sarifVersion, Runs: []sarifRun{run}})
}
