package catalog

import "github.com/ahinestrog/bookmarket/internal/money"

type Book struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Author      string      `json:"author"`
	Description string      `json:"description"`
	Price       money.Money `json:"price"`
	Category    string      `json:"category"`
	ImageURL    string      `json:"imageUrl"`
	SellerID    int64       `json:"sellerId"`
	Stock       int32       `json:"stock"`
	CreatedUnix int64       `json:"createdUnix"`
}

// ErrInsufficientStock names the offending book so the caller can point
// the user at the exact cart line.
type ErrInsufficientStock struct {
	BookID int64
	Need   int32
	Avail  int32
}

func (e ErrInsufficientStock) Error() string { return "stock insuficiente" }

type ErrBookNotFound struct{ BookID int64 }

func (e ErrBookNotFound) Error() string { return "book not found" }
