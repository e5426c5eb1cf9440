package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository { return &Repository{db: db} }

const bookCols = `id,title,author,description,price_cents,category,image_url,seller_id,stock,created_unix`

func scanBook(row interface{ Scan(...any) error }) (*Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.Price.Cents,
		&b.Category, &b.ImageURL, &b.SellerID, &b.Stock, &b.CreatedUnix)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) Create(ctx context.Context, b *Book) (int64, error) {
	b.CreatedUnix = time.Now().Unix()
	if b.ImageURL == "" {
		b.ImageURL = "default-book.jpg"
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO books(title,author,description,price_cents,category,image_url,seller_id,stock,created_unix)
		VALUES(?,?,?,?,?,?,?,?,?)`,
		b.Title, b.Author, b.Description, b.Price.Cents, b.Category, b.ImageURL,
		b.SellerID, b.Stock, b.CreatedUnix)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	b.ID = id
	return id, nil
}

// Update rewrites the editable fields. seller_id nunca cambia.
func (r *Repository) Update(ctx context.Context, b *Book) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE books SET title=?, author=?, description=?, price_cents=?,
		category=?, image_url=?, stock=? WHERE id=?`,
		b.Title, b.Author, b.Description, b.Price.Cents, b.Category, b.ImageURL,
		b.Stock, b.ID)
	return err
}

func (r *Repository) Get(ctx context.Context, id int64) (*Book, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookCols+` FROM books WHERE id=?`, id)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound{BookID: id}
	}
	return b, err
}

// List returns every book, or those whose title/author contains q
// (case-insensitive substring, no ranking).
func (r *Repository) List(ctx context.Context, q string) ([]*Book, error) {
	var rows *sql.Rows
	var err error
	if strings.TrimSpace(q) == "" {
		rows, err = r.db.QueryContext(ctx, `SELECT `+bookCols+` FROM books ORDER BY id DESC`)
	} else {
		qp := "%" + strings.ToLower(q) + "%"
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+bookCols+` FROM books
			WHERE lower(title) LIKE ? OR lower(author) LIKE ?
			ORDER BY id DESC`, qp, qp)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *Repository) ListBySeller(ctx context.Context, sellerID int64) ([]*Book, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+bookCols+` FROM books WHERE seller_id=? ORDER BY id DESC`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var c int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM books`).Scan(&c)
	return c, err
}

func collect(rows *sql.Rows) ([]*Book, error) {
	var out []*Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// DecrementStock descuenta stock de forma condicional dentro de la
// transacción del caller: cero filas afectadas significa que el stock
// no alcanza, nunca se deja ir a negativo.
func (r *Repository) DecrementStock(ctx context.Context, tx *sql.Tx, bookID int64, qty int32) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE books SET stock = stock - ? WHERE id = ? AND stock >= ?`,
		qty, bookID, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var avail int32
		err := tx.QueryRowContext(ctx, `SELECT stock FROM books WHERE id=?`, bookID).Scan(&avail)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookNotFound{BookID: bookID}
		}
		if err != nil {
			return err
		}
		return ErrInsufficientStock{BookID: bookID, Need: qty, Avail: avail}
	}
	return nil
}
