package repos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	applog "secondhand/internal/log"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one connection: ":memory:" is per-connection and sqlite serializes writers anyway
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Product documents (same shape as the products-template collection)
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  doc TEXT NOT NULL,
  seller_name TEXT NOT NULL DEFAULT '',
  version INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_seller     ON products(seller_name);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Charge ledger
CREATE TABLE IF NOT EXISTS charges(
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  description TEXT NOT NULL,
  amount TEXT NOT NULL,
  currency TEXT NOT NULL,
  lines_json TEXT NOT NULL DEFAULT '[]',
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','successful','rejected')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_charges_session ON charges(session_id);

-- Processed webhook events
CREATE TABLE IF NOT EXISTS webhook_events(
  id TEXT PRIMARY KEY,
  charge_id TEXT,
  type TEXT NOT NULL,
  received_at TEXT DEFAULT CURRENT_TIMESTAMP
);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	applog.L().Info("seed.products", zap.String("reason", "empty products table"))

	now := time.Now().UTC()
	docs := []struct {
		id  string
		doc map[string]any
	}{
		{"stroller-001", map[string]any{
			"name": "Baby Stroller - Lightweight Cabin Size Foldable", "price": 11.46,
			"image": "/media/listings/stroller.png", "brand": "Abc brand",
			"description": "Lightweight cabin-size stroller, folds with one hand.",
			"condition":   "like new", "category": "Baby essentials", "status": "active",
			"ageRange":       map[string]any{"startAge": 0, "endAge": 4},
			"cleaningStatus": "sanitised", "dimensions": "60cm x 60cm", "dealMethod": "Meet up: Punggol Point",
			"seller": map[string]any{"name": "miketan", "rating": 4.5, "review": 50, "avatar": `"/media/avatars/miketan.png"`},
			"likes":  2, "createdAt": now.Add(-3 * time.Hour), "version": 1,
		}},
		{"bottle-002", map[string]any{
			"name": "Reusable Water Bottle - Eco Friendly", "price": 12.99,
			"image": "/media/listings/bottle.png", "brand": "EcoBottle",
			"description": "Stainless steel bottle, keeps drinks cold for 24 hours.",
			"condition":   "brand new", "category": "Sports", "status": "active",
			"ageRange":       map[string]any{"startAge": 3, "endAge": 99},
			"cleaningStatus": "washed", "dimensions": "25cm x 7cm", "dealMethod": "Meet up: City Hall MRT",
			"seller": map[string]any{"name": "greenlife", "rating": 4.8, "review": 32, "avatar": "/media/avatars/greenlife.png"},
			"likes":  5, "createdAt": now.Add(-2 * time.Hour), "version": 1,
		}},
		// legacy spelling kept on purpose; ingestion reads both
		{"blocks-003", map[string]any{
			"name": "Wooden Building Blocks (50 pcs)", "price": 5.00,
			"image": "/media/listings/blocks.png", "brand": "PlayWood",
			"description": "Complete set, a few marks from use.",
			"condition":   "lightly used", "category": "Toys", "status": "active",
			"age_range":       map[string]any{"start_age": 2, "end_age": 6},
			"cleaning_status": "washed", "dimensions": "30cm box", "deal_method": "Delivery",
			"seller": map[string]any{"name": "miketan", "rating": 4.5, "reviews": 50},
			"likes":  1, "created_at": now.Add(-1 * time.Hour).Format(time.RFC3339),
		}},
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, d := range docs {
		raw, err := json.Marshal(d.doc)
		if err != nil {
			return err
		}
		p := ProductFromDocument(d.id, d.doc)
		if _, err := tx.ExecContext(context.Background(), `
			INSERT INTO products(id, doc, seller_name, version, created_at)
			VALUES(?, ?, ?, ?, ?)`,
			d.id, string(raw), p.Seller.Name, p.Version, p.CreatedAt.Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}
	return tx.Commit()
}
