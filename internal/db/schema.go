package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Prices and quantities are stored as
// TEXT and handled as decimals in Go; sale quantities may be fractional.
const schema = `
CREATE TABLE IF NOT EXISTS product (
    id          INTEGER PRIMARY KEY,
    item_code   INTEGER NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    price       TEXT NOT NULL,
    qty         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sale (
    id     INTEGER PRIMARY KEY,
    date   DATETIME NOT NULL,
    total  TEXT NOT NULL DEFAULT '0',
    status TEXT NOT NULL DEFAULT 'O' CHECK (status IN ('O', 'C'))
);

CREATE TABLE IF NOT EXISTS rental (
    id            INTEGER PRIMARY KEY,
    date          DATETIME NOT NULL,
    return_date   DATETIME NOT NULL,
    total         TEXT NOT NULL DEFAULT '0',
    status        TEXT NOT NULL DEFAULT 'O' CHECK (status IN ('O', 'C')),
    return_status INTEGER NOT NULL DEFAULT 0 CHECK (return_status IN (0, 1))
);

CREATE TABLE IF NOT EXISTS saleproduct (
    id         INTEGER PRIMARY KEY,
    sale_id    INTEGER NOT NULL REFERENCES sale(id),
    product_id INTEGER NOT NULL REFERENCES product(id),
    qty        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rentalproduct (
    id         INTEGER PRIMARY KEY,
    rental_id  INTEGER NOT NULL REFERENCES rental(id),
    product_id INTEGER NOT NULL REFERENCES product(id),
    qty        TEXT NOT NULL
);
`

// EnsureSchema creates all tables if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// seed is the demo catalog, inserted only when the product table is empty.
var seed = []struct {
	code        int64
	description string
	price       string
	qty         string
}{
	{101, "Pack of nails", "100", "500"},
	{102, "Hammer", "140", "100"},
	{103, "Circular saw", "1000", "25"},
	{104, "Drill press", "2100", "10"},
	{105, "Lathe", "10000", "3"},
}

// SeedCatalog populates the demo catalog on first run.
func SeedCatalog(db *sql.DB) error {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM product`).Scan(&n); err != nil {
		return fmt.Errorf("checking catalog: %w", err)
	}
	if n > 0 {
		return nil
	}

	for _, p := range seed {
		_, err := db.Exec(
			`INSERT INTO product (item_code, description, price, qty) VALUES (?, ?, ?, ?)`,
			p.code, p.description, p.price, p.qty,
		)
		if err != nil {
			return fmt.Errorf("seeding product %d: %w", p.code, err)
		}
	}
	return nil
}
