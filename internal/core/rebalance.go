package core

import (
	"context"
	"fmt"
)

const (
	// A sibling location must exceed its own forecast by more than this
	// many units before any of its stock is considered transferable.
	surplusThreshold = 10

	// Transfers are capped regardless of how large the surplus is. A
	// deliberately conservative cap: one truck, not a warehouse drain.
	maxTransferQty = 50
)

// RebalanceStage searches sibling locations for transferable surplus of
// the subject product. The snapshot is scanned in store order and the
// first qualifying record wins — no optimization across candidates, no
// distance or lead-time weighting. Only a stock-out risk triggers a
// search; stock is never transferred INTO an overstocked site.
type RebalanceStage struct{}

func (RebalanceStage) Name() string { return "Rebalance" }

func (s RebalanceStage) Run(_ context.Context, pc *PipelineContext) error {
	if pc.Status != StatusRisk {
		return nil
	}
	if pc.RiskType != RiskStockOut {
		pc.AddLog(s.Name(), "Overstock risk: no inbound transfer considered")
		return nil
	}
	subject := pc.Record

	for i := range pc.Snapshot {
		candidate := pc.Snapshot[i]
		if candidate.Name != subject.Name || candidate.Location == subject.Location {
			continue
		}
		surplus := candidate.Stock - candidate.Forecast
		if surplus <= surplusThreshold {
			continue
		}

		qty := surplus
		if qty > maxTransferQty {
			qty = maxTransferQty
		}
		pc.Transfer = &TransferProposal{SourceLocation: candidate.Location, Quantity: qty}
		pc.TransferSource = &candidate
		pc.AddLog(s.Name(), fmt.Sprintf("Transfer %d units from %s to %s (%s holds %d against forecast %d)",
			qty, candidate.Location, subject.Location, candidate.Location, candidate.Stock, candidate.Forecast))
		return nil
	}

	pc.AddLog(s.Name(), "No sibling location has transferable surplus: procurement required")
	return nil
}
