package webhook

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"secondhand/internal/cart"
	"secondhand/internal/checkout"
	"secondhand/internal/domain"
	"secondhand/internal/repos"
)

type Ledger interface {
	Get(ctx context.Context, id string) (domain.ChargeRecord, error)
	Settle(ctx context.Context, id, status string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, chargeID, typ string) (bool, error)
}

type Listings interface {
	Get(ctx context.Context, id string) (domain.Product, error)
	UpdateStatus(ctx context.Context, id string, status domain.ListingStatus, ifVersion int64) error
}

// Dispatcher applies verified charge events to the ledger, the session carts and
// the listings.
type Dispatcher struct {
	Ledger   Ledger
	Carts    *cart.Registry
	Listings Listings
}

const soldRetries = 3

// Dispatch handles one event. Repeated event ids, charges already settled and
// charges this server never created are skipped without error.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	log := zap.L().With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type), zap.String("charge_id", ev.Data.ID))

	switch ev.Type {
	case TypeChargeCreated, TypeChargeConfirmed, TypeChargeFailed:
	default:
		log.Info("webhook.unhandled")
		return nil
	}

	if ev.ID != "" {
		first, err := d.Ledger.MarkEventProcessed(ctx, ev.ID, ev.Data.ID, ev.Type)
		if err != nil {
			return fmt.Errorf("record event %s: %w", ev.ID, err)
		}
		if !first {
			log.Info("webhook.duplicate")
			return nil
		}
	}

	switch ev.Type {
	case TypeChargeCreated:
		log.Info("webhook.charge.created")
		return nil
	case TypeChargeConfirmed:
		return d.settle(ctx, log, ev, domain.ChargeSuccessful, cart.StatusSuccessful)
	default:
		return d.settle(ctx, log, ev, domain.ChargeRejected, cart.StatusRejected)
	}
}

func (d *Dispatcher) settle(ctx context.Context, log *zap.Logger, ev Event, chargeStatus string, lineStatus cart.LineStatus) error {
	rec, err := d.Ledger.Get(ctx, ev.Data.ID)
	if errors.Is(err, repos.ErrNotFound) {
		// metadata and description of foreign charges are caller-written
		log.Warn("webhook.charge.unknown", zap.String("session", ev.Data.Meta("session")))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load charge %s: %w", ev.Data.ID, err)
	}
	lines, err := ledgerLines(rec)
	if err != nil {
		return err
	}

	changed, err := d.Ledger.Settle(ctx, rec.ID, chargeStatus)
	if err != nil {
		return fmt.Errorf("settle charge %s: %w", rec.ID, err)
	}
	if !changed {
		log.Info("webhook.charge.already_settled")
		return nil
	}

	if store, ok := d.Carts.Peek(rec.SessionID); ok {
		for _, l := range lines {
			_ = store.UpdateStatus(l.ProductID, lineStatus)
		}
	}
	log.Info("webhook.charge.settled", zap.String("status", chargeStatus), zap.Int("lines", len(lines)))

	if chargeStatus != domain.ChargeSuccessful {
		return nil
	}
	var errs []error
	for _, l := range lines {
		if err := d.markSold(ctx, l.ProductID); err != nil {
			errs = append(errs, fmt.Errorf("mark %s sold: %w", l.ProductID, err))
		}
	}
	return errors.Join(errs...)
}

// ledgerLines decodes the lines stored with the charge. Rows written without
// lines fall back to the description the server built for the charge.
func ledgerLines(rec domain.ChargeRecord) ([]domain.ChargeLine, error) {
	lines, err := rec.Lines()
	if err != nil {
		return nil, fmt.Errorf("decode lines of %s: %w", rec.ID, err)
	}
	if len(lines) > 0 || rec.Description == "" {
		return lines, nil
	}
	return checkout.ParseDescription(rec.Description)
}

func (d *Dispatcher) markSold(ctx context.Context, id string) error {
	for i := 0; i < soldRetries; i++ {
		p, err := d.Listings.Get(ctx, id)
		if err != nil {
			return err
		}
		if p.Status == domain.StatusSold {
			return nil
		}
		err = d.Listings.UpdateStatus(ctx, id, domain.StatusSold, p.Version)
		if !errors.Is(err, repos.ErrVersionConflict) {
			return err
		}
	}
	return repos.ErrVersionConflict
}
