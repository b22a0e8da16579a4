package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RubenBranco/ADS2018/internal/clock"
	"github.com/RubenBranco/ADS2018/internal/db"
	"github.com/RubenBranco/ADS2018/internal/model"
	"github.com/RubenBranco/ADS2018/internal/service"
)

func main() {
	fs := flag.NewFlagSet("saleclient", flag.ContinueOnError)

	var dbPath string
	fs.StringVar(&dbPath, "db", "store.sqlite3", "")
	fs.StringVar(&dbPath, "d", "store.sqlite3", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: saleclient [flags]

A line-mode demo of the sale use cases.

Flags:
  -d, -db <path>   SQLite database path (default: store.sqlite3)
  -h, -help        show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(dbPath); err != nil {
		slog.Error("sale demo failed", "error", err)
		os.Exit(1)
	}
}

func run(dbPath string) error {
	database, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		return err
	}
	if err := db.SeedCatalog(database); err != nil {
		return err
	}

	ctx := context.Background()
	sales := service.NewSaleService(database, clock.NewSystem())

	fmt.Println("\n-- Add sale and print it ----------------------------")

	sale, err := sales.Create(ctx, time.Time{})
	if err != nil {
		return err
	}

	if err := sales.AddItem(ctx, sale, 101, decimal.NewFromInt(10)); err != nil {
		return err
	}
	if err := sales.AddItem(ctx, sale, 102, decimal.NewFromInt(25)); err != nil {
		return err
	}

	if err := sales.Close(ctx, sale); err != nil {
		return err
	}

	sale, err = sales.Get(ctx, sale.ID)
	if err != nil {
		return err
	}
	fmt.Println(sale)

	fmt.Println("\n-- Get all sales with a total higher than 4000 ------")

	limit := decimal.NewFromInt(4000)
	expensive, err := sales.Filter(ctx, func(t *model.Transaction) bool {
		return t.Total().GreaterThan(limit)
	})
	if err != nil {
		return err
	}
	for _, t := range expensive {
		fmt.Println(t)
	}

	fmt.Println("\n-- Delete the sale and print all sales --------------")

	if err := sales.Delete(ctx, sale); err != nil {
		return err
	}
	for t, err := range sales.All(ctx) {
		if err != nil {
			return err
		}
		fmt.Println(t)
	}

	return nil
}
