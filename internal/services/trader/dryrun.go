// Package trader holds the order execution boundary. Order placement belongs
// to the external execution collaborator; the dry-run trader stands in for it
// here, acknowledging orders and leaving an audit trail.
package trader

import (
	"context"

	"go.uber.org/zap"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

// EventSink receives execution audit events. Satisfied by the monitor.
type EventSink interface {
	RecordEvent(kind, instrument, detail string)
}

// DryRunTrader logs every order it receives instead of routing it anywhere.
type DryRunTrader struct {
	logger *zap.Logger
	sink   EventSink
}

// NewDryRunTrader creates a dry-run trader. The sink may be nil.
func NewDryRunTrader(logger *zap.Logger, sink EventSink) *DryRunTrader {
	return &DryRunTrader{logger: logger, sink: sink}
}

// Execute acknowledges the order without placing it.
func (t *DryRunTrader) Execute(_ context.Context, req domain.OrderRequest) error {
	t.logger.Info("dry-run order",
		zap.String("plan", req.PlanID),
		zap.String("instrument", req.Instrument),
		zap.String("direction", string(req.Direction)),
		zap.String("entry", req.Entry.String()),
		zap.String("stop", req.Stop.String()),
		zap.String("target", req.Target.String()),
		zap.String("size", req.Size.String()))

	if t.sink != nil {
		t.sink.RecordEvent("order_dry_run", req.Instrument, req.PlanID)
	}
	return nil
}
