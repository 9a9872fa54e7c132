package core_test

import (
	"context"
	"errors"
	"testing"

	"inventory-agent/internal/core"
)

// fakeReasoner returns a canned reply or error for every prompt.
type fakeReasoner struct {
	reply string
	err   error
	calls int
}

func (f *fakeReasoner) Generate(context.Context, string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func riskContext(stock, forecast, trend int) *core.PipelineContext {
	pc := newTestContext(core.ItemRecord{
		SKUID: "P-101", Name: "Widget", Location: "NJ", Season: core.SeasonWinter,
		Stock: stock, Forecast: forecast, SalesTrend30d: trend,
	})
	pc.Status = core.StatusRisk
	pc.RiskType = core.RiskStockOut
	return pc
}

func TestForecast_TrendRuleFallback(t *testing.T) {
	tests := []struct {
		name       string
		forecast   int
		trend      int
		want       int
		wantMethod core.ForecastMethod
	}{
		{"trend above upper band", 100, 111, 122, core.ForecastRule},     // floor(111*1.1)
		{"trend below lower band", 100, 89, 93, core.ForecastRule},       // floor(89*1.05)
		{"trend inside band", 100, 95, 100, core.ForecastUnchanged},      // untouched
		{"trend at upper boundary", 100, 110, 100, core.ForecastUnchanged}, // 110 is not > 110
		{"trend at lower boundary", 100, 90, 100, core.ForecastUnchanged},  // 90 is not < 90
		{"large stock-out trend", 100, 150, 165, core.ForecastRule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := riskContext(10, tt.forecast, tt.trend)
			stage := core.NewForecastStage(&fakeReasoner{err: errors.New("backend down")})
			if err := stage.Run(context.Background(), pc); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pc.ProposedForecast == nil {
				t.Fatal("ProposedForecast not set")
			}
			if *pc.ProposedForecast != tt.want {
				t.Errorf("proposed forecast = %d, want %d", *pc.ProposedForecast, tt.want)
			}
			if pc.ForecastMethod != tt.wantMethod {
				t.Errorf("method = %q, want %q", pc.ForecastMethod, tt.wantMethod)
			}
		})
	}
}

func TestForecast_ReasonedValueWins(t *testing.T) {
	pc := riskContext(10, 100, 95)
	stage := core.NewForecastStage(&fakeReasoner{reply: "I recommend 130 units for December."})
	if err := stage.Run(context.Background(), pc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc.ProposedForecast == nil || *pc.ProposedForecast != 130 {
		t.Fatalf("proposed forecast = %v, want 130", pc.ProposedForecast)
	}
	if pc.ForecastMethod != core.ForecastReasoned {
		t.Errorf("method = %q, want %q", pc.ForecastMethod, core.ForecastReasoned)
	}
}

func TestForecast_ReasonedEchoFallsThroughToRule(t *testing.T) {
	// Reasoning that just restates the current forecast defers to the rule.
	pc := riskContext(10, 100, 150)
	stage := core.NewForecastStage(&fakeReasoner{reply: "Keep it at 100 units."})
	if err := stage.Run(context.Background(), pc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc.ProposedForecast == nil || *pc.ProposedForecast != 165 {
		t.Fatalf("proposed forecast = %v, want 165 from trend rule", pc.ProposedForecast)
	}
	if pc.ForecastMethod != core.ForecastRule {
		t.Errorf("method = %q, want %q", pc.ForecastMethod, core.ForecastRule)
	}
}

func TestForecast_UnparseableReplyIsSurfacedAndFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no integer at all", "demand looks stable, keep steady"},
		{"negative value", "forecast should drop to -20 units"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := riskContext(10, 100, 150)
			stage := core.NewForecastStage(&fakeReasoner{reply: tt.reply})
			if err := stage.Run(context.Background(), pc); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pc.ProposedForecast == nil || *pc.ProposedForecast != 165 {
				t.Fatalf("proposed forecast = %v, want 165 from trend rule", pc.ProposedForecast)
			}

			var warned bool
			for _, entry := range pc.Logs {
				if entry.Level == "WARN" {
					warned = true
				}
			}
			if !warned {
				t.Error("expected a WARN log entry marking the parse failure")
			}
		})
	}
}

func TestForecast_SkipsHealthyRecords(t *testing.T) {
	pc := newTestContext(core.ItemRecord{SKUID: "P-101", Stock: 100, Forecast: 100, SalesTrend30d: 200})
	pc.Status = core.StatusHealthy

	reasoner := &fakeReasoner{reply: "999"}
	stage := core.NewForecastStage(reasoner)
	if err := stage.Run(context.Background(), pc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc.ProposedForecast != nil {
		t.Errorf("healthy record got a forecast proposal: %d", *pc.ProposedForecast)
	}
	if reasoner.calls != 0 {
		t.Errorf("reasoning service called %d times for a healthy record", reasoner.calls)
	}
}
