package core

import "time"

// Season is the demand season a product belongs to.
type Season string

const (
	SeasonWinter  Season = "Winter"
	SeasonSummer  Season = "Summer"
	SeasonAllYear Season = "All Year"
)

// SeasonForDate maps a calendar date to the season used in forecast prompts.
// Meteorological seasons: Dec-Feb is Winter, Jun-Aug is Summer, the rest of
// the year is treated as no particular season.
func SeasonForDate(t time.Time) Season {
	switch t.Month() {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonAllYear
	}
}

// HealthStatus is the Monitoring stage's verdict for a record.
type HealthStatus string

const (
	StatusUnknown HealthStatus = "Unknown"
	StatusHealthy HealthStatus = "Healthy"
	StatusRisk    HealthStatus = "Risk"
)

// RiskType qualifies a Risk status.
type RiskType string

const (
	RiskStockOut  RiskType = "Stock-out"
	RiskOverstock RiskType = "Overstock"
)

// ItemRecord is one row of the shared record store: a single product SKU
// stocked at a single location. SKUID is unique store-wide; the same Name
// appears once per Location.
type ItemRecord struct {
	SKUID         string `json:"sku_id"`
	Name          string `json:"product_name"`
	Category      string `json:"category"`
	Season        Season `json:"season"`
	Stock         int    `json:"current_stock"`
	Forecast      int    `json:"forecast"`
	SalesTrend30d int    `json:"sales_trend_last_30_days"`
	LeadTimeDays  int    `json:"supplier_lead_time"`
	Location      string `json:"location"`
	OnOrder       int    `json:"on_order"`
}

// TransferProposal moves stock from a sibling location into the subject's
// location. SourceLocation is never the subject's own location and Quantity
// is always positive.
type TransferProposal struct {
	SourceLocation string `json:"source_location"`
	Quantity       int    `json:"quantity"`
}

// PurchaseOrder is a proposed replenishment order for the subject SKU.
type PurchaseOrder struct {
	Quantity     int `json:"quantity"`
	LeadTimeDays int `json:"lead_time_days"`
}

// ForecastMethod records how the proposed forecast was obtained, so callers
// can tell a reasoning-service answer from the deterministic fallback and
// from a parse failure that was downgraded to the fallback.
type ForecastMethod string

const (
	ForecastUnset     ForecastMethod = ""
	ForecastReasoned  ForecastMethod = "reasoning"
	ForecastRule      ForecastMethod = "rule"
	ForecastUnchanged ForecastMethod = "unchanged"
)

// LogEntry is one stage message in a pipeline run.
type LogEntry struct {
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	Level     string    `json:"level"`
	Timestamp time.Time `json:"timestamp"`
}

// PipelineContext is the mutable state threaded through one pipeline run.
// The orchestrator owns it exclusively; each stage reads and writes its
// declared fields and appends to Logs. It is discarded after commit — only
// the proposals survive into the store.
type PipelineContext struct {
	Record   ItemRecord
	Snapshot []ItemRecord // full store contents, for cross-location lookups

	CurrentDate   time.Time
	CurrentSeason Season

	Status   HealthStatus
	RiskType RiskType
	Coverage string // formatted to 2 decimals by Monitoring

	ProposedForecast *int
	ForecastMethod   ForecastMethod
	Transfer         *TransferProposal
	TransferSource   *ItemRecord // snapshot of the matched source row, for commit math
	PurchaseOrder    *PurchaseOrder
	RootCause        string

	Summary string
	Logs    []LogEntry
}

// NewPipelineContext builds the context for one run.
func NewPipelineContext(subject ItemRecord, snapshot []ItemRecord, now time.Time) *PipelineContext {
	return &PipelineContext{
		Record:        subject,
		Snapshot:      snapshot,
		CurrentDate:   now,
		CurrentSeason: SeasonForDate(now),
		Status:        StatusUnknown,
	}
}

// AddLog appends an info-level stage message.
func (pc *PipelineContext) AddLog(stage, message string) {
	pc.addLog(stage, message, "INFO")
}

// AddWarn appends a warn-level stage message.
func (pc *PipelineContext) AddWarn(stage, message string) {
	pc.addLog(stage, message, "WARN")
}

func (pc *PipelineContext) addLog(stage, message, level string) {
	pc.Logs = append(pc.Logs, LogEntry{
		Stage:     stage,
		Message:   message,
		Level:     level,
		Timestamp: time.Now(),
	})
}

// PlanningForecast is the forecast Procurement plans against: the adjusted
// forecast when the Forecast stage produced one, else the stored forecast.
func (pc *PipelineContext) PlanningForecast() int {
	if pc.ProposedForecast != nil {
		return *pc.ProposedForecast
	}
	return pc.Record.Forecast
}
