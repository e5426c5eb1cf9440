package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ahinestrog/bookmarket/internal/account"
	"github.com/ahinestrog/bookmarket/internal/catalog"
	"github.com/ahinestrog/bookmarket/internal/money"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())
	a, err := s.accounts.GetByID(r.Context(), ident.AccountID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "account not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not load account")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ---- cart ----

type addCartRequest struct {
	BookID   int64 `json:"bookId"`
	Quantity int32 `json:"quantity"`
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())
	lines, err := s.accounts.CartLines(r.Context(), ident.AccountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not load cart")
		return
	}
	if lines == nil {
		lines = []account.CartLine{}
	}
	var total money.Money
	for _, l := range lines {
		total = total.Add(l.LineTotal)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": lines, "total": total})
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())
	var req addCartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "quantity must be positive")
		return
	}
	b, err := s.books.Get(r.Context(), req.BookID)
	if err != nil {
		var nf catalog.ErrBookNotFound
		if errors.As(err, &nf) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "book not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not load book")
		return
	}
	// chequeo amable; el descuento real y definitivo ocurre en checkout
	if b.Stock < req.Quantity {
		writeError(w, http.StatusBadRequest, "NOT_ENOUGH_STOCK", "not enough stock")
		return
	}
	if err := s.accounts.AddCartItem(r.Context(), ident.AccountID, req.BookID, req.Quantity); err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not update cart")
		return
	}
	s.handleGetCart(w, r)
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())
	bookID, err := strconv.ParseInt(r.PathValue("bookId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid book id")
		return
	}
	if err := s.accounts.RemoveCartItem(r.Context(), ident.AccountID, bookID); err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not update cart")
		return
	}
	s.handleGetCart(w, r)
}

// ---- wishlist ----

type wishlistRequest struct {
	BookID int64 `json:"bookId"`
}

func (s *Server) handleGetWishlist(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())
	books, err := s.accounts.Wishlist(r.Context(), ident.AccountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not load wishlist")
		return
	}
	if books == nil {
		books = []*catalog.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

func (s *Server) handleAddToWishlist(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())
	var req wishlistRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := s.books.Get(r.Context(), req.BookID); err != nil {
		var nf catalog.ErrBookNotFound
		if errors.As(err, &nf) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "book not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not load book")
		return
	}
	if err := s.accounts.AddWishlistItem(r.Context(), ident.AccountID, req.BookID); err != nil {
		if errors.Is(err, account.ErrAlreadyInWishlist) {
			writeError(w, http.StatusBadRequest, "ALREADY_IN_WISHLIST", "book already in wishlist")
			return
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not update wishlist")
		return
	}
	s.handleGetWishlist(w, r)
}

func (s *Server) handleRemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())
	bookID, err := strconv.ParseInt(r.PathValue("bookId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid book id")
		return
	}
	if err := s.accounts.RemoveWishlistItem(r.Context(), ident.AccountID, bookID); err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not update wishlist")
		return
	}
	s.handleGetWishlist(w, r)
}

// ---- wallet ----

type walletAddRequest struct {
	Amount money.Money `json:"amount"`
}

func (s *Server) handleWalletAdd(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())
	var req walletAddRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Amount.Cents <= 0 {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "amount must be positive")
		return
	}
	balance, err := s.accounts.Deposit(r.Context(), ident.AccountID, req.Amount.Cents)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "account not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not add funds")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"wallet": money.FromCents(balance)})
}
