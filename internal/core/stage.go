package core

import "context"

// Stage is one step of the decision pipeline. A stage reads and mutates the
// PipelineContext it is handed; it must recover from collaborator failures
// itself and only return an error for unrecoverable programming faults.
type Stage interface {
	Name() string
	Run(ctx context.Context, pc *PipelineContext) error
}

// ReasoningService is the natural-language reasoning backend. It is
// fallible and non-authoritative: callers must fall back deterministically
// on any error and never propagate one past their stage.
type ReasoningService interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NarrativeService produces a qualitative root-cause explanation for a
// detected risk. Output is narration only; no decision logic reads it.
type NarrativeService interface {
	ExplainRisk(ctx context.Context, rec ItemRecord, risk RiskType) (string, error)
}

// Notifier delivers a status report to an operator. Failure text is
// surfaced verbatim to the caller.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}
