package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/ahinestrog/bookmarket/internal/catalog"
	"github.com/ahinestrog/bookmarket/internal/money"
	"github.com/ahinestrog/bookmarket/internal/rabbit"
)

type bookRequest struct {
	Title       string      `json:"title"`
	Author      string      `json:"author"`
	Description string      `json:"description"`
	Price       money.Money `json:"price"`
	Category    string      `json:"category"`
	ImageURL    string      `json:"imageUrl"`
	Stock       int32       `json:"stock"`
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.books.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not list books")
		return
	}
	if books == nil {
		books = []*catalog.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid book id")
		return
	}
	b, err := s.books.Get(r.Context(), id)
	if err != nil {
		var nf catalog.ErrBookNotFound
		if errors.As(err, &nf) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "book not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not load book")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())
	var req bookRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" || req.Author == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "title and author are required")
		return
	}
	if req.Price.IsNegative() || req.Stock < 0 {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "price and stock must be non-negative")
		return
	}
	b := &catalog.Book{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		SellerID:    ident.AccountID,
		Stock:       req.Stock,
	}
	if _, err := s.books.Create(r.Context(), b); err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not create book")
		return
	}
	if err := s.events.PublishJSON(context.Background(), rabbit.RKBookCreated, rabbit.BookCreatedPayload{
		BookID: b.ID, Title: b.Title, SellerID: b.SellerID,
	}); err != nil {
		log.Warn().Err(err).Msg("publish book.created failed")
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid book id")
		return
	}
	b, err := s.books.Get(r.Context(), id)
	if err != nil {
		var nf catalog.ErrBookNotFound
		if errors.As(err, &nf) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "book not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not load book")
		return
	}
	if b.SellerID != ident.AccountID {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "not the owner of this book")
		return
	}
	var req bookRequest
	if !decodeBody(w, r, &req) {
		return
	}
	// campos vacíos conservan el valor actual, como en el catálogo viejo
	if req.Title != "" {
		b.Title = req.Title
	}
	if req.Author != "" {
		b.Author = req.Author
	}
	if req.Description != "" {
		b.Description = req.Description
	}
	if req.Category != "" {
		b.Category = req.Category
	}
	if req.ImageURL != "" {
		b.ImageURL = req.ImageURL
	}
	if req.Price.Cents > 0 {
		b.Price = req.Price
	}
	if req.Stock > 0 {
		b.Stock = req.Stock
	}
	if err := s.books.Update(r.Context(), b); err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not update book")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleSellerInventory(w http.ResponseWriter, r *http.Request) {
	ident, _ := identityFrom(r.Context())
	books, err := s.books.ListBySeller(r.Context(), ident.AccountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not list inventory")
		return
	}
	if books == nil {
		books = []*catalog.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}
