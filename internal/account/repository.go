package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/ahinestrog/bookmarket/internal/catalog"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository { return &Repository{db: db} }

func (r *Repository) Create(ctx context.Context, a *Account) (int64, error) {
	now := time.Now().Unix()
	a.CreatedUnix, a.UpdatedUnix = now, now
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts(name,email,password_hash,role,wallet_cents,created_unix,updated_unix)
		VALUES(?,?,?,?,?,?,?)`,
		a.Name, a.Email, a.PasswordHash, a.Role, a.Wallet.Cents, a.CreatedUnix, a.UpdatedUnix)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return 0, ErrEmailTaken
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

const accountCols = `id,name,email,password_hash,role,wallet_cents,created_unix,updated_unix`

func (r *Repository) GetByID(ctx context.Context, id int64) (*Account, error) {
	return r.getOne(ctx, `SELECT `+accountCols+` FROM accounts WHERE id=?`, id)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return r.getOne(ctx, `SELECT `+accountCols+` FROM accounts WHERE email=?`, email)
}

func (r *Repository) getOne(ctx context.Context, q string, arg any) (*Account, error) {
	row := r.db.QueryRowContext(ctx, q, arg)
	var a Account
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role,
		&a.Wallet.Cents, &a.CreatedUnix, &a.UpdatedUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Deposit acredita fondos fuera del checkout (ruta de recarga).
func (r *Repository) Deposit(ctx context.Context, id int64, cents int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET wallet_cents = wallet_cents + ?, updated_unix = ? WHERE id = ?`,
		cents, time.Now().Unix(), id)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrAccountNotFound
	}
	var balance int64
	err = r.db.QueryRowContext(ctx, `SELECT wallet_cents FROM accounts WHERE id=?`, id).Scan(&balance)
	return balance, err
}

// CreditWallet runs inside the caller's transaction. cents must be >= 0.
func (r *Repository) CreditWallet(ctx context.Context, tx *sql.Tx, id int64, cents int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts SET wallet_cents = wallet_cents + ?, updated_unix = ? WHERE id = ?`,
		cents, time.Now().Unix(), id)
	return err
}

// DebitWallet descuenta de forma condicional: cero filas afectadas
// significa saldo insuficiente, la billetera nunca queda negativa.
func (r *Repository) DebitWallet(ctx context.Context, tx *sql.Tx, id int64, cents int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts SET wallet_cents = wallet_cents - ?, updated_unix = ?
		WHERE id = ? AND wallet_cents >= ?`,
		cents, time.Now().Unix(), id, cents)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// ---- cart ----

// AddCartItem inserta o acumula cantidad para el mismo libro.
func (r *Repository) AddCartItem(ctx context.Context, accountID, bookID int64, qty int32) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items(account_id, book_id, qty, added_unix)
		VALUES(?,?,?,?)
		ON CONFLICT(account_id, book_id) DO UPDATE SET qty = qty + excluded.qty`,
		accountID, bookID, qty, time.Now().Unix())
	return err
}

func (r *Repository) RemoveCartItem(ctx context.Context, accountID, bookID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE account_id=? AND book_id=?`, accountID, bookID)
	return err
}

func (r *Repository) CartLines(ctx context.Context, accountID int64) ([]CartLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.book_id, b.title, b.price_cents, c.qty
		FROM cart_items c JOIN books b ON b.id = c.book_id
		WHERE c.account_id = ?
		ORDER BY c.added_unix, c.book_id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CartLine
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.BookID, &l.Title, &l.UnitPrice.Cents, &l.Qty); err != nil {
			return nil, err
		}
		l.LineTotal = l.UnitPrice.Mul(l.Qty)
		out = append(out, l)
	}
	return out, rows.Err()
}

// ClearCart runs inside the caller's transaction (checkout commit path).
func (r *Repository) ClearCart(ctx context.Context, tx *sql.Tx, accountID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE account_id=?`, accountID)
	return err
}

// ---- wishlist ----

func (r *Repository) AddWishlistItem(ctx context.Context, accountID, bookID int64) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO wishlist_items(account_id, book_id, added_unix)
		VALUES(?,?,?)`, accountID, bookID, time.Now().Unix())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadyInWishlist
	}
	return nil
}

func (r *Repository) RemoveWishlistItem(ctx context.Context, accountID, bookID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE account_id=? AND book_id=?`, accountID, bookID)
	return err
}

func (r *Repository) Wishlist(ctx context.Context, accountID int64) ([]*catalog.Book, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id,b.title,b.author,b.description,b.price_cents,b.category,
		       b.image_url,b.seller_id,b.stock,b.created_unix
		FROM wishlist_items w JOIN books b ON b.id = w.book_id
		WHERE w.account_id = ?
		ORDER BY w.added_unix, b.id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*catalog.Book
	for rows.Next() {
		var b catalog.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.Price.Cents,
			&b.Category, &b.ImageURL, &b.SellerID, &b.Stock, &b.CreatedUnix); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}
