package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ahinestrog/bookmarket/internal/account"
	"github.com/ahinestrog/bookmarket/internal/catalog"
	"github.com/ahinestrog/bookmarket/internal/checkout"
	"github.com/ahinestrog/bookmarket/internal/order"
)

const idempotencyHeader = "Idempotency-Key"

// idemReply es la primera respuesta registrada para una clave de
// idempotencia; los reintentos del mismo caller la reciben tal cual.
type idemReply struct {
	status int
	body   any
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())

	idemKey := r.Header.Get(idempotencyHeader)
	cacheKey := ""
	if idemKey != "" {
		cacheKey = fmt.Sprintf("%d:%s", ident.AccountID, idemKey)
		if prev, ok := s.idem.Get(cacheKey); ok {
			w.Header().Set("Idempotency-Replayed", "true")
			writeJSON(w, prev.status, prev.body)
			return
		}
	}

	status, body := s.placeOrder(r, ident.AccountID)
	if cacheKey != "" {
		s.idem.Add(cacheKey, idemReply{status: status, body: body})
	}
	writeJSON(w, status, body)
}

// placeOrder invoca al coordinador y traduce el resultado a códigos
// legibles por máquina; 500 implica que el rollback ya ocurrió.
func (s *Server) placeOrder(r *http.Request, buyerID int64) (int, any) {
	o, err := s.checkout.PlaceOrder(r.Context(), buyerID)
	if err == nil {
		return http.StatusCreated, o
	}

	var stock catalog.ErrInsufficientStock
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusBadRequest, errorBody{Error: apiError{
			Code: "EMPTY_CART", Message: "cart is empty"}}
	case errors.As(err, &stock):
		return http.StatusBadRequest, errorBody{Error: apiError{
			Code:    fmt.Sprintf("INSUFFICIENT_STOCK:%d", stock.BookID),
			Message: fmt.Sprintf("not enough stock for book %d (need %d, have %d)", stock.BookID, stock.Need, stock.Avail)}}
	case errors.Is(err, account.ErrInsufficientFunds):
		return http.StatusBadRequest, errorBody{Error: apiError{
			Code: "INSUFFICIENT_FUNDS", Message: "wallet balance too low"}}
	case errors.Is(err, account.ErrAccountNotFound):
		return http.StatusUnauthorized, errorBody{Error: apiError{
			Code: "UNAUTHORIZED", Message: "account no longer exists"}}
	default:
		log.Error().Err(err).Int64("buyer_id", buyerID).Msg("checkout storage failure")
		return http.StatusInternalServerError, errorBody{Error: apiError{
			Code: "SERVER_ERROR", Message: "order could not be placed"}}
	}
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())
	orders, err := s.orders.ListByBuyer(r.Context(), ident.AccountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not list orders")
		return
	}
	if orders == nil {
		orders = []*order.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleSellerOrders(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())
	orders, err := s.orders.ListBySeller(r.Context(), ident.AccountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not list orders")
		return
	}
	if orders == nil {
		orders = []*order.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}
