package core

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Coverage thresholds. Both boundaries are exclusive: coverage of exactly
// 0.8 or exactly 2.0 is Healthy.
var (
	stockOutThreshold  = decimal.RequireFromString("0.8")
	overstockThreshold = decimal.RequireFromString("2.0")
)

// MonitoringStage classifies the subject record's health from its stock
// coverage. It always runs and writes Status, RiskType and Coverage; the
// risk stages downstream are skipped entirely when it reports Healthy.
type MonitoringStage struct{}

func (MonitoringStage) Name() string { return "Monitoring" }

func (s MonitoringStage) Run(_ context.Context, pc *PipelineContext) error {
	rec := pc.Record

	coverage := decimal.Zero
	if rec.Forecast > 0 {
		coverage = decimal.NewFromInt(int64(rec.Stock)).Div(decimal.NewFromInt(int64(rec.Forecast)))
	}
	pc.Coverage = coverage.StringFixed(2)

	switch {
	case coverage.LessThan(stockOutThreshold):
		pc.Status = StatusRisk
		pc.RiskType = RiskStockOut
	case coverage.GreaterThan(overstockThreshold):
		pc.Status = StatusRisk
		pc.RiskType = RiskOverstock
	default:
		pc.Status = StatusHealthy
	}

	msg := fmt.Sprintf("Stock %d, forecast %d, coverage %s: %s", rec.Stock, rec.Forecast, pc.Coverage, pc.Status)
	if pc.Status == StatusRisk {
		msg = fmt.Sprintf("%s (%s)", msg, pc.RiskType)
	}
	pc.AddLog(s.Name(), msg)
	return nil
}
