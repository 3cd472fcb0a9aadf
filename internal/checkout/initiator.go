package checkout

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"secondhand/internal/cart"
	"secondhand/internal/commerce"
	"secondhand/internal/domain"
)

type ChargeCreator interface {
	CreateCharge(ctx context.Context, req commerce.ChargeRequest) (commerce.Charge, error)
}

type Ledger interface {
	Create(ctx context.Context, rec domain.ChargeRecord) error
}

type Initiator struct {
	Carts     *cart.Registry
	Charges   ChargeCreator
	Ledger    Ledger
	PublicURL string
}

// Initiate submits a charge for the selected lines of the session's cart and
// records it as pending. Nothing is retried.
func (in *Initiator) Initiate(ctx context.Context, sid string, selected []string) (commerce.Charge, error) {
	var lines []cart.Line
	if store, ok := in.Carts.Peek(sid); ok {
		lines = Select(store.Items(), selected)
	}

	req, total, err := BuildChargeRequest(sid, lines, in.PublicURL)
	if err != nil {
		return commerce.Charge{}, err
	}

	charge, err := in.Charges.CreateCharge(ctx, req)
	if err != nil {
		return commerce.Charge{}, err
	}

	rec := domain.ChargeRecord{
		ID:          charge.ID,
		SessionID:   sid,
		Description: req.Description,
		Amount:      total,
		Currency:    Currency,
		LinesJSON:   req.Metadata["line_items"],
		Status:      domain.ChargePending,
	}
	if err := in.Ledger.Create(ctx, rec); err != nil {
		zap.L().Error("checkout.ledger", zap.String("charge_id", charge.ID), zap.Error(err))
		return commerce.Charge{}, fmt.Errorf("record charge %s: %w", charge.ID, err)
	}
	return charge, nil
}
