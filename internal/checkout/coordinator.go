// Package checkout convierte el carrito del comprador en una orden
// persistida con semántica todo-o-nada: stock, billeteras, carrito y
// ledger cambian juntos o no cambian.
package checkout

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ahinestrog/bookmarket/internal/account"
	"github.com/ahinestrog/bookmarket/internal/catalog"
	"github.com/ahinestrog/bookmarket/internal/money"
	"github.com/ahinestrog/bookmarket/internal/order"
	"github.com/ahinestrog/bookmarket/internal/rabbit"
)

var ErrEmptyCart = errors.New("carrito vacío")

type Coordinator struct {
	db       *sql.DB
	books    *catalog.Repository
	accounts *account.Repository
	orders   *order.Repository
	events   *rabbit.Publisher
}

func New(db *sql.DB, books *catalog.Repository, accounts *account.Repository,
	orders *order.Repository, events *rabbit.Publisher) *Coordinator {
	return &Coordinator{db: db, books: books, accounts: accounts, orders: orders, events: events}
}

type stagedLine struct {
	bookID   int64
	title    string
	unit     money.Money
	qty      int32
	sellerID int64
}

// PlaceOrder opera sobre el carrito actual del comprador. Toda la
// validación y mutación corre dentro de una sola transacción SQLite:
// cualquier rechazo o falla de storage hace rollback completo, nunca
// queda estado parcial visible.
//
// Rechazos: ErrEmptyCart, catalog.ErrInsufficientStock (nombra el
// libro ofensor, primera línea en orden de carrito) y
// account.ErrInsufficientFunds. El chequeo de fondos se decide contra
// el saldo previo al checkout, después de validar todo el stock.
func (c *Coordinator) PlaceOrder(ctx context.Context, buyerID int64) (*order.Order, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	lines, err := loadCart(ctx, tx, buyerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	var buyerWallet int64
	if err := tx.QueryRowContext(ctx,
		`SELECT wallet_cents FROM accounts WHERE id=?`, buyerID).Scan(&buyerWallet); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrAccountNotFound
		}
		return nil, err
	}

	o := order.Order{
		BuyerID:     buyerID,
		Status:      order.StatusPlaced,
		CreatedUnix: time.Now().Unix(),
	}
	sellerCredit := map[int64]int64{}
	var sellerIDs []int64

	for _, l := range lines {
		// Decremento condicional: dentro de la tx no es observable y
		// se revierte entero ante cualquier rechazo posterior.
		if err := c.books.DecrementStock(ctx, tx, l.bookID, l.qty); err != nil {
			return nil, err
		}
		line := l.unit.Mul(l.qty)
		o.Items = append(o.Items, order.Item{
			BookID:    l.bookID,
			Title:     l.title,
			Qty:       l.qty,
			UnitPrice: l.unit,
			LineTotal: line,
		})
		o.Total = o.Total.Add(line)
		if _, seen := sellerCredit[l.sellerID]; !seen {
			sellerIDs = append(sellerIDs, l.sellerID)
		}
		sellerCredit[l.sellerID] += line.Cents
	}

	// Fondos contra el saldo previo, tras validar todo el stock. Cubre
	// el caso de un vendedor comprándose a sí mismo: el crédito de la
	// venta no financia la compra.
	if buyerWallet < o.Total.Cents {
		return nil, account.ErrInsufficientFunds
	}

	// Un crédito por vendedor, no por línea
	for _, sid := range sellerIDs {
		if err := c.accounts.CreditWallet(ctx, tx, sid, sellerCredit[sid]); err != nil {
			return nil, err
		}
	}
	if err := c.accounts.DebitWallet(ctx, tx, buyerID, o.Total.Cents); err != nil {
		return nil, err
	}
	if err := c.accounts.ClearCart(ctx, tx, buyerID); err != nil {
		return nil, err
	}
	if _, err := c.orders.Insert(ctx, tx, &o); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	c.publishPlaced(&o)
	return &o, nil
}

// loadCart lee las líneas con el snapshot actual de cada libro, en
// orden de carrito.
func loadCart(ctx context.Context, tx *sql.Tx, buyerID int64) ([]stagedLine, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT c.book_id, b.title, b.price_cents, c.qty, b.seller_id
		FROM cart_items c JOIN books b ON b.id = c.book_id
		WHERE c.account_id = ?
		ORDER BY c.added_unix, c.book_id`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []stagedLine
	for rows.Next() {
		var l stagedLine
		if err := rows.Scan(&l.bookID, &l.title, &l.unit.Cents, &l.qty, &l.sellerID); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// publishPlaced es best-effort: la orden ya está confirmada, un broker
// caído no la deshace.
func (c *Coordinator) publishPlaced(o *order.Order) {
	items := make([]rabbit.OrderItemEvt, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, rabbit.OrderItemEvt{
			BookID:    it.BookID,
			Title:     it.Title,
			Qty:       it.Qty,
			UnitCents: it.UnitPrice.Cents,
			LineCents: it.LineTotal.Cents,
		})
	}
	payload := rabbit.OrderPlacedPayload{
		OrderID:    o.ID,
		BuyerID:    o.BuyerID,
		Items:      items,
		TotalCents: o.Total.Cents,
	}
	if err := c.events.PublishJSON(context.Background(), rabbit.RKOrderPlaced, payload); err != nil {
		log.Warn().Err(err).Int64("order_id", o.ID).Msg("publish order.placed failed")
	}
}
