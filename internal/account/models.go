package account

import (
	"errors"

	"github.com/ahinestrog/bookmarket/internal/money"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

func ValidRole(r Role) bool { return r == RoleBuyer || r == RoleSeller }

type Account struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         Role        `json:"role"`
	Wallet       money.Money `json:"wallet"`
	CreatedUnix  int64       `json:"createdUnix"`
	UpdatedUnix  int64       `json:"updatedUnix"`
}

// CartLine is one cart entry joined with the book's current data.
type CartLine struct {
	BookID    int64       `json:"bookId"`
	Title     string      `json:"title"`
	UnitPrice money.Money `json:"unitPrice"`
	Qty       int32       `json:"quantity"`
	LineTotal money.Money `json:"lineTotal"`
}

var (
	ErrInsufficientFunds = errors.New("fondos insuficientes")
	ErrAccountNotFound   = errors.New("account not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrAlreadyInWishlist = errors.New("book already in wishlist")
)
