package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // driver 100% Go
)

// Open abre la base SQLite con busy timeout + WAL para concurrencia.
// Un solo writer: el pool queda limitado a una conexión.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func Migrate(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS accounts(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK(role IN ('buyer','seller')),
  wallet_cents INTEGER NOT NULL DEFAULT 0 CHECK(wallet_cents >= 0),
  created_unix INTEGER NOT NULL,
  updated_unix INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS books(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  author TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price_cents INTEGER NOT NULL CHECK(price_cents >= 0),
  category TEXT NOT NULL DEFAULT '',
  image_url TEXT NOT NULL DEFAULT 'default-book.jpg',
  seller_id INTEGER NOT NULL REFERENCES accounts(id),
  stock INTEGER NOT NULL DEFAULT 1 CHECK(stock >= 0),
  created_unix INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_books_seller ON books(seller_id);
CREATE TABLE IF NOT EXISTS cart_items(
  account_id INTEGER NOT NULL REFERENCES accounts(id),
  book_id INTEGER NOT NULL REFERENCES books(id),
  qty INTEGER NOT NULL CHECK(qty > 0),
  added_unix INTEGER NOT NULL,
  PRIMARY KEY(account_id, book_id)
);
CREATE TABLE IF NOT EXISTS wishlist_items(
  account_id INTEGER NOT NULL REFERENCES accounts(id),
  book_id INTEGER NOT NULL REFERENCES books(id),
  added_unix INTEGER NOT NULL,
  PRIMARY KEY(account_id, book_id)
);
CREATE TABLE IF NOT EXISTS orders(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  buyer_id INTEGER NOT NULL REFERENCES accounts(id),
  status TEXT NOT NULL,
  total_cents INTEGER NOT NULL,
  created_unix INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS order_items(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  book_id INTEGER NOT NULL,
  title TEXT NOT NULL,
  qty INTEGER NOT NULL,
  unit_cents INTEGER NOT NULL,
  line_cents INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders(buyer_id);
CREATE INDEX IF NOT EXISTS idx_items_order ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_items_book ON order_items(book_id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}
