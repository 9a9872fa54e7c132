package core

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

// Asymmetric forecast buffers: a 10% upside margin and a smaller 5%
// downside margin, so decreases stay conservative and the bias runs toward
// avoiding stock-outs.
var (
	trendUpRatio   = decimal.RequireFromString("1.1")
	trendDownRatio = decimal.RequireFromString("0.9")
	downsideBuffer = decimal.RequireFromString("1.05")
)

var firstIntRe = regexp.MustCompile(`-?\d+`)

// ForecastStage proposes a revised demand forecast when the record is at
// risk. It first asks the reasoning service and takes the first integer
// literal in the reply; if the service fails, the reply has no usable
// integer, or the value merely restates the current forecast, it falls
// back to the deterministic trend rule. ProposedForecast is written on
// every risk run, even when unchanged.
type ForecastStage struct {
	reasoner ReasoningService
}

func NewForecastStage(reasoner ReasoningService) *ForecastStage {
	return &ForecastStage{reasoner: reasoner}
}

func (*ForecastStage) Name() string { return "Forecast" }

func (s *ForecastStage) Run(ctx context.Context, pc *PipelineContext) error {
	if pc.Status != StatusRisk {
		return nil
	}
	rec := pc.Record

	if candidate, ok := s.reasonedForecast(ctx, pc); ok && candidate != rec.Forecast {
		pc.ProposedForecast = &candidate
		pc.ForecastMethod = ForecastReasoned
		pc.AddLog(s.Name(), fmt.Sprintf("Reasoning service proposed forecast %d (was %d, trend %d)",
			candidate, rec.Forecast, rec.SalesTrend30d))
		return nil
	}

	s.applyTrendRule(pc)
	return nil
}

// reasonedForecast asks the reasoning service for a forecast and extracts
// the first integer literal from its free-text reply. A service error, a
// reply without an integer, or a negative value all count as unavailable;
// the parse failures are logged as a distinguishable outcome rather than
// silently dropped.
func (s *ForecastStage) reasonedForecast(ctx context.Context, pc *PipelineContext) (int, bool) {
	if s.reasoner == nil {
		return 0, false
	}
	rec := pc.Record

	prompt := fmt.Sprintf(`You are a demand forecasting expert for retail supply chains.

Product: %s (%s)
Season tag: %s
Today is %s (current season: %s).
Current 30-day forecast: %d units.
Actual sales over the last 30 days: %d units.

Considering the sales trend and whether the product is in season right now,
reply with your recommended 30-day forecast as a single integer number of
units, followed by a one-sentence justification.`,
		rec.Name, rec.Category, rec.Season,
		pc.CurrentDate.Format("2006-01-02"), pc.CurrentSeason,
		rec.Forecast, rec.SalesTrend30d)

	reply, err := s.reasoner.Generate(ctx, prompt)
	if err != nil {
		pc.AddWarn(s.Name(), fmt.Sprintf("Reasoning service unavailable, using trend rule: %v", err))
		return 0, false
	}

	match := firstIntRe.FindString(reply)
	if match == "" {
		pc.AddWarn(s.Name(), fmt.Sprintf("No integer found in reasoning reply %q, using trend rule", truncate(reply, 80)))
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil || n < 0 {
		pc.AddWarn(s.Name(), fmt.Sprintf("Unusable forecast %q from reasoning reply, using trend rule", match))
		return 0, false
	}
	return n, true
}

// applyTrendRule is the deterministic fallback: raise toward trend with a
// 10% buffer when sales clearly outrun the forecast, lower cautiously with
// a 5% buffer when they clearly lag, otherwise leave the forecast alone.
func (s *ForecastStage) applyTrendRule(pc *PipelineContext) {
	rec := pc.Record
	trend := decimal.NewFromInt(int64(rec.SalesTrend30d))
	forecast := decimal.NewFromInt(int64(rec.Forecast))

	newForecast := rec.Forecast
	switch {
	case trend.GreaterThan(forecast.Mul(trendUpRatio)):
		newForecast = int(trend.Mul(trendUpRatio).Floor().IntPart())
		pc.ForecastMethod = ForecastRule
		pc.AddLog(s.Name(), fmt.Sprintf("Increase: forecast %d -> %d (trend %d > %d x 1.1)",
			rec.Forecast, newForecast, rec.SalesTrend30d, rec.Forecast))
	case trend.LessThan(forecast.Mul(trendDownRatio)):
		newForecast = int(trend.Mul(downsideBuffer).Floor().IntPart())
		pc.ForecastMethod = ForecastRule
		pc.AddLog(s.Name(), fmt.Sprintf("Decrease: forecast %d -> %d (trend %d < %d x 0.9)",
			rec.Forecast, newForecast, rec.SalesTrend30d, rec.Forecast))
	default:
		pc.ForecastMethod = ForecastUnchanged
		pc.AddLog(s.Name(), fmt.Sprintf("Forecast %d left unchanged (trend %d within band)",
			rec.Forecast, rec.SalesTrend30d))
	}
	pc.ProposedForecast = &newForecast
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
