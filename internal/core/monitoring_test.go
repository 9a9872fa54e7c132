package core_test

import (
	"context"
	"testing"
	"time"

	"inventory-agent/internal/core"
)

func newTestContext(rec core.ItemRecord, snapshot ...core.ItemRecord) *core.PipelineContext {
	all := append([]core.ItemRecord{rec}, snapshot...)
	return core.NewPipelineContext(rec, all, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC))
}

func TestMonitoring_CoverageBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		stock      int
		forecast   int
		wantStatus core.HealthStatus
		wantRisk   core.RiskType
	}{
		{"just under stock-out threshold", 79, 100, core.StatusRisk, core.RiskStockOut},
		{"exactly at stock-out threshold", 80, 100, core.StatusHealthy, ""},
		{"exactly at overstock threshold", 200, 100, core.StatusHealthy, ""},
		{"just over overstock threshold", 201, 100, core.StatusRisk, core.RiskOverstock},
		{"near but under overstock threshold", 200, 101, core.StatusHealthy, ""},
		{"zero forecast counts as zero coverage", 50, 0, core.StatusRisk, core.RiskStockOut},
		{"zero stock", 0, 100, core.StatusRisk, core.RiskStockOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := newTestContext(core.ItemRecord{
				SKUID: "P-101", Name: "Widget", Location: "NJ",
				Stock: tt.stock, Forecast: tt.forecast,
			})
			if err := (core.MonitoringStage{}).Run(context.Background(), pc); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pc.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s (coverage %s)", pc.Status, tt.wantStatus, pc.Coverage)
			}
			if tt.wantStatus == core.StatusRisk && pc.RiskType != tt.wantRisk {
				t.Errorf("risk type = %s, want %s", pc.RiskType, tt.wantRisk)
			}
			if len(pc.Logs) != 1 {
				t.Errorf("expected exactly one log line, got %d", len(pc.Logs))
			}
		})
	}
}

func TestMonitoring_CoverageFormatting(t *testing.T) {
	pc := newTestContext(core.ItemRecord{SKUID: "P-101", Stock: 50, Forecast: 100})
	if err := (core.MonitoringStage{}).Run(context.Background(), pc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc.Coverage != "0.50" {
		t.Errorf("coverage = %q, want %q", pc.Coverage, "0.50")
	}
}
