package order

import "github.com/ahinestrog/bookmarket/internal/money"

// Orders are immutable history: once placed there is no update or
// cancel path, so a single status value exists today.
const StatusPlaced = "placed"

type Order struct {
	ID          int64       `json:"id"`
	BuyerID     int64       `json:"buyerId"`
	Status      string      `json:"status"`
	Total       money.Money `json:"totalAmount"`
	CreatedUnix int64       `json:"createdAt"`
	Items       []Item      `json:"items"`
}

// Item captures the unit price at purchase time, decoupled from the
// book's current price.
type Item struct {
	ID        int64       `json:"-"`
	OrderID   int64       `json:"-"`
	BookID    int64       `json:"bookId"`
	Title     string      `json:"title"`
	Qty       int32       `json:"quantity"`
	UnitPrice money.Money `json:"unitPrice"`
	LineTotal money.Money `json:"lineTotal"`
}
