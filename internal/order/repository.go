package order

import (
	"context"
	"database/sql"
	"time"
)

// Repository is append-only: orders are written once, inside the
// checkout transaction, and never touched again.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository { return &Repository{db: db} }

// Insert writes the order and its items within the caller's transaction.
func (r *Repository) Insert(ctx context.Context, tx *sql.Tx, o *Order) (int64, error) {
	if o.CreatedUnix == 0 {
		o.CreatedUnix = time.Now().Unix()
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders(buyer_id, status, total_cents, created_unix)
		VALUES(?,?,?,?)`,
		o.BuyerID, o.Status, o.Total.Cents, o.CreatedUnix)
	if err != nil {
		return 0, err
	}
	oid, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO order_items(order_id, book_id, title, qty, unit_cents, line_cents)
		VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i := range o.Items {
		it := &o.Items[i]
		if _, err := stmt.ExecContext(ctx,
			oid, it.BookID, it.Title, it.Qty, it.UnitPrice.Cents, it.LineTotal.Cents); err != nil {
			return 0, err
		}
		it.OrderID = oid
	}
	o.ID = oid
	return oid, nil
}

func (r *Repository) Get(ctx context.Context, orderID int64) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, buyer_id, status, total_cents, created_unix
		FROM orders WHERE id=?`, orderID)
	var o Order
	if err := row.Scan(&o.ID, &o.BuyerID, &o.Status, &o.Total.Cents, &o.CreatedUnix); err != nil {
		return nil, err
	}
	items, err := r.listItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

// ListByBuyer returns the buyer's orders, newest first.
func (r *Repository) ListByBuyer(ctx context.Context, buyerID int64) ([]*Order, error) {
	return r.list(ctx, `
		SELECT id, buyer_id, status, total_cents, created_unix
		FROM orders WHERE buyer_id=? ORDER BY created_unix DESC, id DESC`, buyerID)
}

// ListBySeller returns orders containing at least one line whose book
// belongs to that seller.
func (r *Repository) ListBySeller(ctx context.Context, sellerID int64) ([]*Order, error) {
	return r.list(ctx, `
		SELECT DISTINCT o.id, o.buyer_id, o.status, o.total_cents, o.created_unix
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		JOIN books b ON b.id = oi.book_id
		WHERE b.seller_id = ?
		ORDER BY o.created_unix DESC, o.id DESC`, sellerID)
}

func (r *Repository) list(ctx context.Context, q string, arg any) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.Status, &o.Total.Cents, &o.CreatedUnix); err != nil {
			return nil, err
		}
		out = append(out, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range out {
		items, err := r.listItems(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		o.Items = items
	}
	return out, nil
}

func (r *Repository) listItems(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, book_id, title, qty, unit_cents, line_cents
		FROM order_items WHERE order_id=? ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.BookID, &it.Title, &it.Qty,
			&it.UnitPrice.Cents, &it.LineTotal.Cents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
