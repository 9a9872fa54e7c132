package core

import (
	"context"
	"fmt"
	"strings"
)

// CommunicationStage renders the human-readable run summary. It always
// runs and makes no numeric decisions: every sentence is derived from the
// structured proposals already on the context.
type CommunicationStage struct{}

func (CommunicationStage) Name() string { return "Communication" }

func (s CommunicationStage) Run(_ context.Context, pc *PipelineContext) error {
	rec := pc.Record

	if pc.Status != StatusRisk {
		pc.Summary = fmt.Sprintf("%s (%s) at %s is healthy (coverage %s): no action required.",
			rec.Name, rec.SKUID, rec.Location, pc.Coverage)
		pc.AddLog(s.Name(), pc.Summary)
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s risk detected for %s (%s) at %s, coverage %s.\n",
		pc.RiskType, rec.Name, rec.SKUID, rec.Location, pc.Coverage)
	rootCause := pc.RootCause
	if rootCause == "" {
		rootCause = "not determined"
	}
	fmt.Fprintf(&b, "Root cause: %s\n", rootCause)
	if pc.ProposedForecast != nil && *pc.ProposedForecast != rec.Forecast {
		fmt.Fprintf(&b, "Forecast: revised from %d to %d units.\n", rec.Forecast, *pc.ProposedForecast)
	} else {
		fmt.Fprintf(&b, "Forecast: unchanged at %d units.\n", rec.Forecast)
	}
	fmt.Fprintf(&b, "Inventory: %s\n", InventoryActionText(pc))
	fmt.Fprintf(&b, "Procurement: %s", ProcurementActionText(pc))

	pc.Summary = b.String()
	pc.AddLog(s.Name(), "Summary composed")
	return nil
}

// InventoryActionText renders the transfer proposal (or its absence) as a
// sentence. Presentation only: the TransferProposal struct stays the
// source of truth.
func InventoryActionText(pc *PipelineContext) string {
	if pc.Transfer == nil {
		if pc.RiskType == RiskOverstock {
			return "no transfer considered for an overstocked location."
		}
		return "no sibling surplus available; covering the shortfall by procurement."
	}
	return fmt.Sprintf("transfer %d units from %s to %s.",
		pc.Transfer.Quantity, pc.Transfer.SourceLocation, pc.Record.Location)
}

// ProcurementActionText renders the purchase order proposal (or its
// absence) as a sentence.
func ProcurementActionText(pc *PipelineContext) string {
	if pc.PurchaseOrder == nil {
		return "no purchase order required."
	}
	return fmt.Sprintf("create a purchase order for %d units (supplier lead time %d days).",
		pc.PurchaseOrder.Quantity, pc.PurchaseOrder.LeadTimeDays)
}
