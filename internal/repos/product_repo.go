package repos

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"secondhand/internal/domain"
)

// ProductRepo stores product documents as JSON text in SQLite.
type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

type productRow struct {
	ID      string `db:"id"`
	Doc     string `db:"doc"`
	Version int64  `db:"version"`
}

func (r productRow) product() (domain.Product, error) {
	doc := map[string]any{}
	if err := json.Unmarshal([]byte(r.Doc), &doc); err != nil {
		return domain.Product{}, fmt.Errorf("decode product %s: %w", r.ID, err)
	}
	p := ProductFromDocument(r.ID, doc)
	p.Version = r.Version
	return p, nil
}

func (r *ProductRepo) list(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		p, err := row.product()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *ProductRepo) All(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, `SELECT id, doc, version FROM products ORDER BY created_at DESC`)
}

func (r *ProductRepo) BySeller(ctx context.Context, name string) ([]domain.Product, error) {
	return r.list(ctx, `SELECT id, doc, version FROM products WHERE seller_name = ? ORDER BY created_at DESC`, name)
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var row productRow
	err := r.db.GetContext(ctx, &row, `SELECT id, doc, version FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return row.product()
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (string, error) {
	p.ID = uuid.NewString()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.Version = 1
	return p.ID, r.insert(ctx, p)
}

func (r *ProductRepo) insert(ctx context.Context, p domain.Product) error {
	raw, err := json.Marshal(ProductToDocument(p))
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO products(id, doc, seller_name, version, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?)`,
		p.ID, string(raw), p.Seller.Name, p.Version, p.CreatedAt.Format(time.RFC3339Nano), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (r *ProductRepo) UpdateStatus(ctx context.Context, id string, status domain.ListingStatus, ifVersion int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET doc = json_set(doc, '$.status', ?, '$.version', version + 1),
		    version = version + 1,
		    updated_at = ?
		WHERE id = ? AND (? = -1 OR version = ?)`,
		string(status), time.Now().UTC().Format(time.RFC3339Nano), id, ifVersion, ifVersion)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM products WHERE id = ?`, id); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}

// Copy writes the same document under a fresh id.
func (r *ProductRepo) Copy(ctx context.Context, id string) (string, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return "", err
	}
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	p.Version = 1
	return p.ID, r.insert(ctx, p)
}
