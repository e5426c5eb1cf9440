// Package httpapi expone la API REST del marketplace: mapeo fino de
// verbos HTTP a los stores y al coordinador de checkout.
package httpapi

import (
	"context"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/cors"

	"github.com/ahinestrog/bookmarket/internal/account"
	"github.com/ahinestrog/bookmarket/internal/catalog"
	"github.com/ahinestrog/bookmarket/internal/checkout"
	"github.com/ahinestrog/bookmarket/internal/config"
	"github.com/ahinestrog/bookmarket/internal/order"
	"github.com/ahinestrog/bookmarket/internal/rabbit"
)

const idempotencyCacheSize = 1024

type Server struct {
	cfg      config.Config
	books    *catalog.Repository
	accounts *account.Repository
	orders   *order.Repository
	checkout *checkout.Coordinator
	events   *rabbit.Publisher
	idem     *lru.Cache[string, idemReply]

	httpServer *http.Server
}

func New(cfg config.Config, books *catalog.Repository, accounts *account.Repository,
	orders *order.Repository, co *checkout.Coordinator, events *rabbit.Publisher) *Server {
	idem, _ := lru.New[string, idemReply](idempotencyCacheSize)
	s := &Server{
		cfg:      cfg,
		books:    books,
		accounts: accounts,
		orders:   orders,
		checkout: co,
		events:   events,
		idem:     idem,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLog(cors.AllowAll().Handler(s.routes())),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// auth
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	// books: lecturas públicas, escrituras de vendedor
	mux.HandleFunc("GET /api/books", s.handleListBooks)
	mux.HandleFunc("GET /api/books/{id}", s.handleGetBook)
	mux.HandleFunc("POST /api/books", s.sellerOnly(s.handleCreateBook))
	mux.HandleFunc("PUT /api/books/{id}", s.sellerOnly(s.handleUpdateBook))
	mux.HandleFunc("GET /api/books/seller/inventory", s.sellerOnly(s.handleSellerInventory))

	// account
	mux.HandleFunc("GET /api/users/me", s.authed(s.handleMe))
	mux.HandleFunc("GET /api/users/cart", s.authed(s.handleGetCart))
	mux.HandleFunc("POST /api/users/cart", s.authed(s.handleAddToCart))
	mux.HandleFunc("DELETE /api/users/cart/{bookId}", s.authed(s.handleRemoveFromCart))
	mux.HandleFunc("GET /api/users/wishlist", s.authed(s.handleGetWishlist))
	mux.HandleFunc("POST /api/users/wishlist", s.authed(s.handleAddToWishlist))
	mux.HandleFunc("DELETE /api/users/wishlist/{bookId}", s.authed(s.handleRemoveFromWishlist))
	mux.HandleFunc("POST /api/users/wallet/add", s.authed(s.handleWalletAdd))

	// orders
	mux.HandleFunc("POST /api/orders", s.authed(s.handlePlaceOrder))
	mux.HandleFunc("GET /api/orders", s.authed(s.handleListOrders))
	mux.HandleFunc("GET /api/orders/seller", s.sellerOnly(s.handleSellerOrders))

	return mux
}

// Handler exposes the full middleware-wrapped handler (tests dial it
// directly through httptest).
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
