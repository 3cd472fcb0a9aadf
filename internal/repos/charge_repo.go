package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"secondhand/internal/domain"
)

// ChargeRepo is the local ledger of charges created at checkout and the ids of
// webhook events already applied to it.
type ChargeRepo struct{ db *sqlx.DB }

func NewChargeRepo(db *sqlx.DB) *ChargeRepo { return &ChargeRepo{db: db} }

func (r *ChargeRepo) Create(ctx context.Context, rec domain.ChargeRecord) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if rec.Status == "" {
		rec.Status = domain.ChargePending
	}
	if rec.LinesJSON == "" {
		rec.LinesJSON = "[]"
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO charges(id, session_id, description, amount, currency, lines_json, status, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.Description, rec.Amount.String(), rec.Currency, rec.LinesJSON, rec.Status, now, now)
	return err
}

func (r *ChargeRepo) Get(ctx context.Context, id string) (domain.ChargeRecord, error) {
	var rec domain.ChargeRecord
	err := r.db.GetContext(ctx, &rec, `
		SELECT id, session_id, description, amount, currency, lines_json, status, created_at, updated_at
		FROM charges WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ChargeRecord{}, ErrNotFound
	}
	return rec, err
}

func (r *ChargeRepo) BySession(ctx context.Context, sid string) ([]domain.ChargeRecord, error) {
	var out []domain.ChargeRecord
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, session_id, description, amount, currency, lines_json, status, created_at, updated_at
		FROM charges WHERE session_id = ? ORDER BY created_at DESC`, sid)
	return out, err
}

// Settle moves a pending charge to a terminal status. It reports false when the
// charge had already left pending, so callers can skip repeated deliveries.
func (r *ChargeRepo) Settle(ctx context.Context, id, status string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE charges SET status = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`,
		status, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	if _, err := r.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// MarkEventProcessed records an event id. first is false when the id was seen before.
func (r *ChargeRepo) MarkEventProcessed(ctx context.Context, eventID, chargeID, typ string) (first bool, err error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO webhook_events(id, charge_id, type, received_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		eventID, chargeID, typ, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
