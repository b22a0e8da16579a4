package main

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RubenBranco/ADS2018/internal/clock"
	"github.com/RubenBranco/ADS2018/internal/db"
	"github.com/RubenBranco/ADS2018/internal/service"
	"github.com/RubenBranco/ADS2018/internal/store"
)

func main() {
	fs := flag.NewFlagSet("rentalclient", flag.ContinueOnError)

	var dbPath string
	fs.StringVar(&dbPath, "db", "store.sqlite3", "")
	fs.StringVar(&dbPath, "d", "store.sqlite3", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: rentalclient [flags]

An interactive line-mode demo of the rental and return use cases.

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
		slog.Error("rental demo failed", "error", err)
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
	rentals := service.NewRentalService(database, clock.NewSystem())
	in := bufio.NewScanner(os.Stdin)

	fmt.Println("\n-- Add rental and print it ----------------------------")
	fmt.Println("\n-- How many days do you want to rent the items for?")

	days, err := readInt(in)
	if err != nil {
		return err
	}

	due := time.Now().AddDate(0, 0, days)
	rental, err := rentals.Create(ctx, due)
	if err != nil {
		return err
	}

	one := decimal.NewFromInt(1)
	if err := rentals.AddItem(ctx, rental, 103, one); err != nil {
		return err
	}
	if err := rentals.AddItem(ctx, rental, 104, one); err != nil {
		return err
	}

	if err := rentals.Close(ctx, rental); err != nil {
		return err
	}

	rental, err = rentals.Get(ctx, rental.ID)
	if err != nil {
		return err
	}
	fmt.Println(rental)

	fmt.Println("\n-- Print all rentals ----------------------------------")
	printAll(ctx, rentals)

	fmt.Println("\n-- Return products ------------------------------------")
	fmt.Println("\n-- Rental before returning and its products")
	fmt.Println(rental)
	printStocks(ctx, database, rental.ID, rentals)

	fmt.Println("\n-- What day are you returning your products? (YYYY-MM-DD)")

	returnedOn, err := readDate(in)
	if err != nil {
		return err
	}

	if err := rentals.ReturnItem(ctx, 103, one); err != nil {
		return err
	}
	if err := rentals.ReturnItem(ctx, 104, one); err != nil {
		return err
	}
	if err := rentals.MarkReturned(ctx, rental); err != nil {
		return err
	}

	fmt.Printf("Penalty fee: %s\n", rental.Penalty(returnedOn))

	fmt.Println("\n-- Rental after returning items and its products")
	rental, err = rentals.Get(ctx, rental.ID)
	if err != nil {
		return err
	}
	fmt.Println(rental)
	printStocks(ctx, database, rental.ID, rentals)

	if err := rentals.Delete(ctx, rental); err != nil {
		return err
	}

	fmt.Println("\n-- Print all rentals after delete ---------------------")
	printAll(ctx, rentals)

	return nil
}

func printAll(ctx context.Context, rentals *service.Service) {
	for t, err := range rentals.All(ctx) {
		if err != nil {
			slog.Error("listing rentals", "error", err)
			return
		}
		fmt.Println(t)
	}
}

// printStocks shows the current stock of every product on the rental.
func printStocks(ctx context.Context, database *sql.DB, rentalID int64, rentals *service.Service) {
	rental, err := rentals.Get(ctx, rentalID)
	if err != nil {
		slog.Error("loading rental", "id", rentalID, "error", err)
		return
	}
	for _, li := range rental.Lines {
		p, err := store.GetProductByID(ctx, database, li.ProductID)
		if err != nil {
			slog.Error("loading product", "id", li.ProductID, "error", err)
			continue
		}
		fmt.Println(p)
	}
}

func readInt(in *bufio.Scanner) (int, error) {
	for in.Scan() {
		n, err := strconv.Atoi(in.Text())
		if err == nil {
			return n, nil
		}
		fmt.Println("Please enter a number.")
	}
	return 0, fmt.Errorf("reading input: %w", in.Err())
}

func readDate(in *bufio.Scanner) (time.Time, error) {
	for in.Scan() {
		d, err := time.Parse("2006-01-02", in.Text())
		if err == nil {
			return d, nil
		}
		fmt.Println("Please enter a date as YYYY-MM-DD.")
	}
	return time.Time{}, fmt.Errorf("reading input: %w", in.Err())
}
