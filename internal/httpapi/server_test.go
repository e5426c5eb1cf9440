package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahinestrog/bookmarket/internal/account"
	"github.com/ahinestrog/bookmarket/internal/catalog"
	"github.com/ahinestrog/bookmarket/internal/checkout"
	"github.com/ahinestrog/bookmarket/internal/config"
	"github.com/ahinestrog/bookmarket/internal/order"
	"github.com/ahinestrog/bookmarket/internal/storage"
)

type testAPI struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, storage.Migrate(context.Background(), db))

	cfg := config.Config{
		HTTPAddr:  ":0",
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	}
	books := catalog.NewRepository(db)
	accounts := account.NewRepository(db)
	orders := order.NewRepository(db)
	co := checkout.New(db, books, accounts, orders, nil)

	s := New(cfg, books, accounts, orders, co, nil)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &testAPI{t: t, srv: srv}
}

// do envía JSON y decodifica la respuesta en un mapa genérico.
func (a *testAPI) do(method, path, token string, body any, headers ...string) (int, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.srv.URL+path, &buf)
	require.NoError(a.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var out map[string]any
	dec := json.NewDecoder(resp.Body)
	if dec.More() {
		_ = dec.Decode(&out)
	}
	return resp.StatusCode, out
}

// doList es para endpoints que devuelven un arreglo JSON.
func (a *testAPI) doList(method, path, token string) (int, []any) {
	a.t.Helper()
	req, err := http.NewRequest(method, a.srv.URL+path, nil)
	require.NoError(a.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var out []any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (a *testAPI) register(name, email string, role account.Role) string {
	a.t.Helper()
	status, body := a.do("POST", "/api/auth/register", "", map[string]any{
		"name": name, "email": email, "password": "secret123", "role": role,
	})
	require.Equal(a.t, http.StatusCreated, status, "register %s", email)
	token, _ := body["token"].(string)
	require.NotEmpty(a.t, token)
	return token
}

func errCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	c, _ := e["code"].(string)
	return c
}

func TestRegisterAndLogin(t *testing.T) {
	api := newTestAPI(t)

	token := api.register("Ana", "ana@test.dev", account.RoleBuyer)
	status, me := api.do("GET", "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ana@test.dev", me["email"])
	assert.Equal(t, "buyer", me["role"])
	assert.Equal(t, "0.00", me["wallet"])

	// email duplicado
	status, body := api.do("POST", "/api/auth/register", "", map[string]any{
		"name": "Ana2", "email": "ana@test.dev", "password": "x2y3z4",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "EMAIL_TAKEN", errCode(body))

	status, _ = api.do("POST", "/api/auth/login", "", map[string]any{
		"email": "ana@test.dev", "password": "secret123",
	})
	assert.Equal(t, http.StatusOK, status)

	status, body = api.do("POST", "/api/auth/login", "", map[string]any{
		"email": "ana@test.dev", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", errCode(body))
}

func TestBooksRoundTrip(t *testing.T) {
	api := newTestAPI(t)
	seller := api.register("Libreria", "lib@test.dev", account.RoleSeller)
	buyer := api.register("Ana", "ana@test.dev", account.RoleBuyer)

	// solo vendedores crean libros
	status, _ := api.do("POST", "/api/books", buyer, map[string]any{
		"title": "x", "author": "y"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = api.do("POST", "/api/books", "", map[string]any{
		"title": "x", "author": "y"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, book := api.do("POST", "/api/books", seller, map[string]any{
		"title": "Ficciones", "author": "Borges", "price": "8.90", "stock": 3,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "8.90", book["price"])
	bookID := int64(book["id"].(float64))

	status, got := api.do("GET", fmt.Sprintf("/api/books/%d", bookID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ficciones", got["title"])

	status, _ = api.do("GET", "/api/books/999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	// filtro por substring
	status, list := api.doList("GET", "/api/books?q=borg", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, list, 1)

	status, list = api.doList("GET", "/api/books?q=zzz", "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, list)

	// actualización por el dueño
	status, updated := api.do("PUT", fmt.Sprintf("/api/books/%d", bookID), seller, map[string]any{
		"price": "9.50",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "9.50", updated["price"])
	assert.Equal(t, "Ficciones", updated["title"])

	// otro vendedor no puede editar
	other := api.register("Otra", "otra@test.dev", account.RoleSeller)
	status, _ = api.do("PUT", fmt.Sprintf("/api/books/%d", bookID), other, map[string]any{
		"price": "1.00",
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, inv := api.doList("GET", "/api/books/seller/inventory", seller)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, inv, 1)
}

func TestCartAndWishlist(t *testing.T) {
	api := newTestAPI(t)
	seller := api.register("Libreria", "lib@test.dev", account.RoleSeller)
	buyer := api.register("Ana", "ana@test.dev", account.RoleBuyer)

	_, book := api.do("POST", "/api/books", seller, map[string]any{
		"title": "t", "author": "a", "price": "10.00", "stock": 2,
	})
	bookID := int64(book["id"].(float64))

	status, cart := api.do("POST", "/api/users/cart", buyer, map[string]any{
		"bookId": bookID, "quantity": 2,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "20.00", cart["total"])

	// pedir más que el stock se rechaza ya en el carrito
	status, body := api.do("POST", "/api/users/cart", buyer, map[string]any{
		"bookId": bookID, "quantity": 5,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "NOT_ENOUGH_STOCK", errCode(body))

	status, cart = api.do("DELETE", fmt.Sprintf("/api/users/cart/%d", bookID), buyer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0.00", cart["total"])

	status, _ = api.do("POST", "/api/users/wishlist", buyer, map[string]any{"bookId": bookID})
	require.Equal(t, http.StatusOK, status)
	status, body = api.do("POST", "/api/users/wishlist", buyer, map[string]any{"bookId": bookID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ALREADY_IN_WISHLIST", errCode(body))

	status, wl := api.doList("GET", "/api/users/wishlist", buyer)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, wl, 1)

	status, _ = api.do("DELETE", fmt.Sprintf("/api/users/wishlist/%d", bookID), buyer, nil)
	require.Equal(t, http.StatusOK, status)
	status, wl = api.doList("GET", "/api/users/wishlist", buyer)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, wl)
}

func TestCheckoutFlow(t *testing.T) {
	api := newTestAPI(t)
	seller := api.register("Libreria", "lib@test.dev", account.RoleSeller)
	buyer := api.register("Ana", "ana@test.dev", account.RoleBuyer)

	_, book := api.do("POST", "/api/books", seller, map[string]any{
		"title": "t", "author": "a", "price": "10.00", "stock": 5,
	})
	bookID := int64(book["id"].(float64))

	// carrito vacío
	status, body := api.do("POST", "/api/orders", buyer, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "EMPTY_CART", errCode(body))

	api.do("POST", "/api/users/cart", buyer, map[string]any{"bookId": bookID, "quantity": 3})

	// sin fondos
	status, body = api.do("POST", "/api/orders", buyer, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INSUFFICIENT_FUNDS", errCode(body))

	status, wallet := api.do("POST", "/api/users/wallet/add", buyer, map[string]any{"amount": "50.00"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "50.00", wallet["wallet"])

	status, placed := api.do("POST", "/api/orders", buyer, nil)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "30.00", placed["totalAmount"])
	assert.Equal(t, "placed", placed["status"])
	items, _ := placed["items"].([]any)
	require.Len(t, items, 1)
	first, _ := items[0].(map[string]any)
	assert.Equal(t, "10.00", first["unitPrice"])
	assert.Equal(t, float64(3), first["quantity"])

	// efectos visibles
	_, me := api.do("GET", "/api/users/me", buyer, nil)
	assert.Equal(t, "20.00", me["wallet"])
	_, sellerMe := api.do("GET", "/api/users/me", seller, nil)
	assert.Equal(t, "30.00", sellerMe["wallet"])
	_, gotBook := api.do("GET", fmt.Sprintf("/api/books/%d", bookID), "", nil)
	assert.Equal(t, float64(2), gotBook["stock"])
	_, cart := api.do("GET", "/api/users/cart", buyer, nil)
	assert.Equal(t, "0.00", cart["total"])

	status, orders := api.doList("GET", "/api/orders", buyer)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, orders, 1)

	status, sellerOrders := api.doList("GET", "/api/orders/seller", seller)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, sellerOrders, 1)

	// la vista de vendedor exige rol vendedor
	status, _ = api.doList("GET", "/api/orders/seller", buyer)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestCheckoutInsufficientStockCode(t *testing.T) {
	api := newTestAPI(t)
	seller := api.register("Libreria", "lib@test.dev", account.RoleSeller)
	buyer := api.register("Ana", "ana@test.dev", account.RoleBuyer)

	_, book := api.do("POST", "/api/books", seller, map[string]any{
		"title": "t", "author": "a", "price": "10.00", "stock": 2,
	})
	bookID := int64(book["id"].(float64))

	api.do("POST", "/api/users/wallet/add", buyer, map[string]any{"amount": "100.00"})
	api.do("POST", "/api/users/cart", buyer, map[string]any{"bookId": bookID, "quantity": 2})
	// el stock baja por fuera del carrito: otro comprador se lo lleva
	rival := api.register("Rival", "rival@test.dev", account.RoleBuyer)
	api.do("POST", "/api/users/wallet/add", rival, map[string]any{"amount": "100.00"})
	api.do("POST", "/api/users/cart", rival, map[string]any{"bookId": bookID, "quantity": 1})
	status, _ := api.do("POST", "/api/orders", rival, nil)
	require.Equal(t, http.StatusCreated, status)

	status, body := api.do("POST", "/api/orders", buyer, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, fmt.Sprintf("INSUFFICIENT_STOCK:%d", bookID), errCode(body))

	// el libro conserva lo que quedaba
	_, gotBook := api.do("GET", fmt.Sprintf("/api/books/%d", bookID), "", nil)
	assert.Equal(t, float64(1), gotBook["stock"])
}

func TestCheckoutIdempotencyReplay(t *testing.T) {
	api := newTestAPI(t)
	seller := api.register("Libreria", "lib@test.dev", account.RoleSeller)
	buyer := api.register("Ana", "ana@test.dev", account.RoleBuyer)

	_, book := api.do("POST", "/api/books", seller, map[string]any{
		"title": "t", "author": "a", "price": "10.00", "stock": 5,
	})
	bookID := int64(book["id"].(float64))
	api.do("POST", "/api/users/wallet/add", buyer, map[string]any{"amount": "100.00"})
	api.do("POST", "/api/users/cart", buyer, map[string]any{"bookId": bookID, "quantity": 1})

	status, first := api.do("POST", "/api/orders", buyer, nil, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, status)

	// el reintento con la misma clave devuelve la primera respuesta,
	// no una segunda orden
	status, replay := api.do("POST", "/api/orders", buyer, nil, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, first["id"], replay["id"])

	status, orders := api.doList("GET", "/api/orders", buyer)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, orders, 1)

	_, me := api.do("GET", "/api/users/me", buyer, nil)
	assert.Equal(t, "90.00", me["wallet"])
}
