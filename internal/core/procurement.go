package core

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Fixed safety margin added on top of a computed deficit, integer-truncated.
var safetyBufferRatio = decimal.RequireFromString("0.2")

// ProcurementStage turns the remaining deficit into a replenishment order.
// It plans against the Forecast stage's output when one exists and does NOT
// net out a pending transfer proposal: a transfer and a purchase order can
// coexist and both be accepted.
type ProcurementStage struct{}

func (ProcurementStage) Name() string { return "Procurement" }

func (s ProcurementStage) Run(_ context.Context, pc *PipelineContext) error {
	if pc.Status != StatusRisk {
		return nil
	}
	rec := pc.Record

	planning := pc.PlanningForecast()
	deficit := planning - (rec.Stock + rec.OnOrder)
	if deficit <= 0 {
		pc.AddLog(s.Name(), fmt.Sprintf("No purchase order required (deficit %d)", deficit))
		return nil
	}

	buffer := int(decimal.NewFromInt(int64(deficit)).Mul(safetyBufferRatio).Floor().IntPart())
	qty := deficit + buffer
	pc.PurchaseOrder = &PurchaseOrder{Quantity: qty, LeadTimeDays: rec.LeadTimeDays}
	pc.AddLog(s.Name(), fmt.Sprintf("Create PO for %d units (deficit %d + 20%% safety buffer, lead time %d days)",
		qty, deficit, rec.LeadTimeDays))
	return nil
}
