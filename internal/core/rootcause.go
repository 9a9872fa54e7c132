package core

import (
	"context"
	"fmt"
)

// RootCauseStage asks the narrative collaborator to explain a detected
// risk. The explanation is qualitative color for the summary and report
// email; nothing downstream branches on it, and a failed lookup leaves the
// run otherwise untouched.
type RootCauseStage struct {
	narrative NarrativeService
}

func NewRootCauseStage(narrative NarrativeService) *RootCauseStage {
	return &RootCauseStage{narrative: narrative}
}

func (*RootCauseStage) Name() string { return "RootCause" }

func (s *RootCauseStage) Run(ctx context.Context, pc *PipelineContext) error {
	if pc.Status != StatusRisk {
		return nil
	}
	if s.narrative == nil {
		pc.AddLog(s.Name(), "No narrative service configured, skipping root cause analysis")
		return nil
	}

	cause, err := s.narrative.ExplainRisk(ctx, pc.Record, pc.RiskType)
	if err != nil {
		pc.AddWarn(s.Name(), fmt.Sprintf("Root cause analysis unavailable: %v", err))
		return nil
	}
	pc.RootCause = cause
	pc.AddLog(s.Name(), fmt.Sprintf("Root cause: %s", cause))
	return nil
}
