// Siembra datos de desarrollo: un vendedor con catálogo y un comprador
// con fondos. Pensado para correr una vez sobre una base vacía.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/crypto/bcrypt"

	"github.com/ahinestrog/bookmarket/internal/account"
	"github.com/ahinestrog/bookmarket/internal/catalog"
	"github.com/ahinestrog/bookmarket/internal/config"
	"github.com/ahinestrog/bookmarket/internal/money"
	"github.com/ahinestrog/bookmarket/internal/storage"
)

var seedBooks = []struct {
	title, author, category string
	price                   string
	stock                   int32
}{
	{"Cien años de soledad", "Gabriel García Márquez", "fiction", "12.50", 10},
	{"El amor en los tiempos del cólera", "Gabriel García Márquez", "fiction", "10.00", 5},
	{"La ciudad y los perros", "Mario Vargas Llosa", "fiction", "9.75", 8},
	{"Rayuela", "Julio Cortázar", "fiction", "11.20", 3},
	{"Ficciones", "Jorge Luis Borges", "fiction", "8.90", 12},
	{"Pedro Páramo", "Juan Rulfo", "fiction", "7.50", 6},
}

func main() {
	cfg := config.Load()
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open db:", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := storage.Migrate(ctx, db); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}

	books := catalog.NewRepository(db)
	accounts := account.NewRepository(db)

	if n, err := books.Count(ctx); err == nil && n > 0 {
		fmt.Printf("catalog already has %s books, nothing to do\n", humanize.Comma(n))
		return
	}

	seller := mustAccount(ctx, accounts, "Librería Central", "seller@bookmarket.dev", account.RoleSeller, 0)
	buyer := mustAccount(ctx, accounts, "Ana Lectora", "buyer@bookmarket.dev", account.RoleBuyer, 50_00)

	for _, sb := range seedBooks {
		price, err := money.Parse(sb.price)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad seed price:", err)
			os.Exit(1)
		}
		b := &catalog.Book{
			Title:    sb.title,
			Author:   sb.author,
			Category: sb.category,
			Price:    price,
			SellerID: seller.ID,
			Stock:    sb.stock,
		}
		if _, err := books.Create(ctx, b); err != nil {
			fmt.Fprintln(os.Stderr, "seed book:", err)
			os.Exit(1)
		}
	}

	n, _ := books.Count(ctx)
	fmt.Printf("seeded %s books, seller #%d, buyer #%d (wallet %s)\n",
		humanize.Comma(n), seller.ID, buyer.ID, buyer.Wallet)
}

func mustAccount(ctx context.Context, repo *account.Repository, name, email string, role account.Role, walletCents int64) *account.Account {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash:", err)
		os.Exit(1)
	}
	a := &account.Account{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Wallet:       money.FromCents(walletCents),
	}
	if _, err := repo.Create(ctx, a); err != nil {
		fmt.Fprintln(os.Stderr, "seed account:", err)
		os.Exit(1)
	}
	return a
}
