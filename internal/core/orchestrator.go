package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RunResult is the outcome of one Analyze call: everything the pipeline
// proposed, none of it persisted. It is handed back across the approval
// boundary so a human can accept or reject before Commit is called.
type RunResult struct {
	RunID  uuid.UUID  `json:"run_id"`
	Record ItemRecord `json:"record"`

	Status   HealthStatus `json:"status"`
	RiskType RiskType     `json:"risk_type,omitempty"`
	Coverage string       `json:"coverage"`

	ProposedForecast *int              `json:"proposed_forecast,omitempty"`
	ForecastMethod   ForecastMethod    `json:"forecast_method,omitempty"`
	Transfer         *TransferProposal `json:"transfer,omitempty"`
	PurchaseOrder    *PurchaseOrder    `json:"purchase_order,omitempty"`

	RootCause string     `json:"root_cause,omitempty"`
	Summary   string     `json:"summary"`
	Logs      []LogEntry `json:"logs"`

	// Source row as seen during analysis; commit math derives the source
	// location's absolute post-transfer stock from it.
	transferSource *ItemRecord
}

// HasChanges reports whether committing this result would write anything.
func (r *RunResult) HasChanges() bool {
	forecastChanged := r.ProposedForecast != nil && *r.ProposedForecast != r.Record.Forecast
	return forecastChanged || r.Transfer != nil || r.PurchaseOrder != nil
}

// CommitResult reports what Commit actually did. Persisted is the explicit
// durability signal: a run whose persistence retries were exhausted still
// returns its in-memory result, so callers must check Persisted instead of
// relying on the absence of an error.
type CommitResult struct {
	RunID     uuid.UUID `json:"run_id"`
	Persisted bool      `json:"persisted"`
	Error     string    `json:"error,omitempty"`
}

// Orchestrator sequences the pipeline stages over a shared record store.
// The stage order is fixed at construction: Monitoring always runs first,
// the risk stages run only when it reports Risk, Communication always runs
// last. One Analyze call is strictly sequential; nothing overlaps.
type Orchestrator struct {
	store      RecordStore
	monitoring Stage
	riskStages []Stage
	summarize  Stage
	log        zerolog.Logger
	now        func() time.Time
}

func NewOrchestrator(store RecordStore, reasoner ReasoningService, narrative NarrativeService, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:      store,
		monitoring: MonitoringStage{},
		riskStages: []Stage{
			NewForecastStage(reasoner),
			NewRootCauseStage(narrative),
			RebalanceStage{},
			ProcurementStage{},
		},
		summarize: CommunicationStage{},
		log:       logger,
		now:       time.Now,
	}
}

// Analyze runs the full pipeline for one SKU and returns its proposals
// without persisting anything. An unknown SKU or an unreadable store is an
// error; collaborator failures inside stages are not.
func (o *Orchestrator) Analyze(ctx context.Context, skuID string) (*RunResult, error) {
	records, err := o.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading record store: %w", err)
	}

	var subject *ItemRecord
	for i := range records {
		if records[i].SKUID == skuID {
			subject = &records[i]
			break
		}
	}
	if subject == nil {
		return nil, fmt.Errorf("sku %s: %w", skuID, ErrRecordNotFound)
	}

	o.log.Info().Str("sku", skuID).Str("product", subject.Name).Str("location", subject.Location).
		Msg("starting analysis")

	pc := NewPipelineContext(*subject, records, o.now())

	if err := o.runStage(ctx, o.monitoring, pc); err != nil {
		return nil, err
	}
	if pc.Status == StatusRisk {
		for _, st := range o.riskStages {
			if err := o.runStage(ctx, st, pc); err != nil {
				return nil, err
			}
		}
	}
	if err := o.runStage(ctx, o.summarize, pc); err != nil {
		return nil, err
	}

	res := &RunResult{
		RunID:            uuid.New(),
		Record:           pc.Record,
		Status:           pc.Status,
		RiskType:         pc.RiskType,
		Coverage:         pc.Coverage,
		ProposedForecast: pc.ProposedForecast,
		ForecastMethod:   pc.ForecastMethod,
		Transfer:         pc.Transfer,
		PurchaseOrder:    pc.PurchaseOrder,
		RootCause:        pc.RootCause,
		Summary:          pc.Summary,
		Logs:             pc.Logs,
		transferSource:   pc.TransferSource,
	}
	o.log.Info().Str("sku", skuID).Str("status", string(pc.Status)).
		Bool("has_changes", res.HasChanges()).Msg("analysis complete")
	return res, nil
}

func (o *Orchestrator) runStage(ctx context.Context, st Stage, pc *PipelineContext) error {
	o.log.Debug().Str("stage", st.Name()).Msg("running stage")
	if err := st.Run(ctx, pc); err != nil {
		return fmt.Errorf("stage %s: %w", st.Name(), err)
	}
	return nil
}

// Commit applies the accepted proposals of a run to the record store. All
// writes are absolute values computed from the analysis-time record, so
// committing the same result twice leaves the store in the same state as
// committing it once. Persistence failure after the store's retry budget
// is logged and reported through CommitResult, never raised.
func (o *Orchestrator) Commit(ctx context.Context, res *RunResult) *CommitResult {
	cr := &CommitResult{RunID: res.RunID}

	updates := buildUpdates(res)
	if len(updates) == 0 {
		cr.Persisted = true
		return cr
	}

	err := o.store.ApplyAndSave(ctx, updates)
	switch {
	case err == nil:
		cr.Persisted = true
		o.log.Info().Str("sku", res.Record.SKUID).Int("rows", len(updates)).Msg("changes persisted")
	case errors.Is(err, ErrRecordNotFound):
		cr.Error = err.Error()
		o.log.Error().Err(err).Str("sku", res.Record.SKUID).Msg("commit target missing")
	default:
		cr.Error = err.Error()
		o.log.Error().Err(err).Str("sku", res.Record.SKUID).Msg("failed to persist changes")
	}
	return cr
}

// Run is the one-shot path: Analyze immediately followed by Commit, with
// no approval gate in between.
func (o *Orchestrator) Run(ctx context.Context, skuID string) (*RunResult, *CommitResult, error) {
	res, err := o.Analyze(ctx, skuID)
	if err != nil {
		return nil, nil, err
	}
	return res, o.Commit(ctx, res), nil
}

// buildUpdates translates a run's proposals into absolute row updates:
// the subject's new forecast, its on-order count raised by an accepted
// purchase order, its stock raised by an accepted transfer, and the source
// row's stock lowered by the same transfer.
func buildUpdates(res *RunResult) []RecordUpdate {
	rec := res.Record

	subject := FieldChanges{}
	if res.ProposedForecast != nil && *res.ProposedForecast != rec.Forecast {
		subject.Forecast = IntPtr(*res.ProposedForecast)
	}
	if res.PurchaseOrder != nil {
		subject.OnOrder = IntPtr(rec.OnOrder + res.PurchaseOrder.Quantity)
	}
	if res.Transfer != nil {
		subject.Stock = IntPtr(rec.Stock + res.Transfer.Quantity)
	}

	var updates []RecordUpdate
	if subject.Stock != nil || subject.Forecast != nil || subject.OnOrder != nil {
		updates = append(updates, RecordUpdate{
			Key:    RowKey{SKUID: rec.SKUID},
			Fields: subject,
		})
	}
	if res.Transfer != nil && res.transferSource != nil {
		updates = append(updates, RecordUpdate{
			Key:    RowKey{ProductName: rec.Name, Location: res.Transfer.SourceLocation},
			Fields: FieldChanges{Stock: IntPtr(res.transferSource.Stock - res.Transfer.Quantity)},
		})
	}
	return updates
}
