package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RubenBranco/ADS2018/internal/model"
)

// TransactionStore persists sale or rental headers and their line items. It
// owns the entity cache for its kind, so loaded transactions keep identity
// across reads until a write-through invalidates them.
type TransactionStore struct {
	db    *sql.DB
	kind  model.TransactionKind
	cache *Cache[model.Transaction]

	table     string
	lineTable string
	parentCol string
}

func NewSaleStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{
		db:        db,
		kind:      model.KindSale,
		cache:     NewCache[model.Transaction](),
		table:     "sale",
		lineTable: "saleproduct",
		parentCol: "sale_id",
	}
}

func NewRentalStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{
		db:        db,
		kind:      model.KindRental,
		cache:     NewCache[model.Transaction](),
		table:     "rental",
		lineTable: "rentalproduct",
		parentCol: "rental_id",
	}
}

func (s *TransactionStore) Kind() model.TransactionKind {
	return s.kind
}

// Create inserts a new open header with a zero total and returns its id.
// due is only used for rentals.
func (s *TransactionStore) Create(ctx context.Context, date, due time.Time) (int64, error) {
	var result sql.Result
	var err error
	if s.kind == model.KindRental {
		result, err = s.db.ExecContext(ctx,
			`INSERT INTO rental (date, return_date, total, status, return_status) VALUES (?, ?, '0', ?, ?)`,
			date, due, model.StatusOpen, model.ReturnWaiting,
		)
	} else {
		result, err = s.db.ExecContext(ctx,
			`INSERT INTO sale (date, total, status) VALUES (?, '0', ?)`,
			date, model.StatusOpen,
		)
	}
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", s.kind, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting %s id: %w", s.kind, err)
	}
	return id, nil
}

// GetByID returns the transaction with the given id, reusing the cached
// instance when present.
func (s *TransactionStore) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	if t, ok := s.cache.Get(id); ok {
		return t, nil
	}

	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Put(id, t)
	return t, nil
}

// All returns a lazy, restartable sequence over every transaction of this
// kind. Ids already cached yield their cached instance; the rest are loaded
// and cached.
func (s *TransactionStore) All(ctx context.Context) iter.Seq2[*model.Transaction, error] {
	return func(yield func(*model.Transaction, error) bool) {
		ids, err := s.listIDs(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, id := range ids {
			t, err := s.GetByID(ctx, id)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(t, nil) {
				return
			}
		}
	}
}

// UpdateHeader persists the total and status of a transaction, then drops it
// from the cache so the next read reflects the committed state.
func (s *TransactionStore) UpdateHeader(ctx context.Context, id int64, total decimal.Decimal, status model.TransactionStatus) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET total = ?, status = ? WHERE id = ?`, s.table),
		total, status, id,
	)
	if err != nil {
		return fmt.Errorf("updating %s %d: %w", s.kind, id, err)
	}

	s.cache.Invalidate(id)
	return nil
}

// UpdateReturnStatus persists a rental's return status and invalidates it.
func (s *TransactionStore) UpdateReturnStatus(ctx context.Context, id int64, rs model.ReturnStatus) error {
	if s.kind != model.KindRental {
		return fmt.Errorf("updating return status of %s %d: not a rental", s.kind, id)
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE rental SET return_status = ? WHERE id = ?`, rs, id,
	)
	if err != nil {
		return fmt.Errorf("updating return status of rental %d: %w", id, err)
	}

	s.cache.Invalidate(id)
	return nil
}

// InsertLine records a line item for a transaction and returns its id.
func (s *TransactionStore) InsertLine(ctx context.Context, txID, productID int64, qty decimal.Decimal) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s, product_id, qty) VALUES (?, ?, ?)`, s.lineTable, s.parentCol),
		txID, productID, qty,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting product %d into %s %d: %w", productID, s.kind, txID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting line id: %w", err)
	}
	return id, nil
}

// Delete removes a transaction and its line items, children first to satisfy
// the foreign keys, and evicts it from the cache. Product stocks are not
// changed.
func (s *TransactionStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, s.lineTable, s.parentCol), id,
	)
	if err != nil {
		return fmt.Errorf("deleting lines of %s %d: %w", s.kind, id, err)
	}

	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.table), id,
	)
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", s.kind, id, err)
	}

	s.cache.Invalidate(id)
	return nil
}

func (s *TransactionStore) listIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s ORDER BY id`, s.table),
	)
	if err != nil {
		return nil, fmt.Errorf("listing %ss: %w", s.kind, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning %s id: %w", s.kind, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *TransactionStore) load(ctx context.Context, id int64) (*model.Transaction, error) {
	t := &model.Transaction{ID: id, Kind: s.kind}

	var err error
	if s.kind == model.KindRental {
		err = s.db.QueryRowContext(ctx,
			`SELECT date, return_date, status, return_status FROM rental WHERE id = ?`, id,
		).Scan(&t.Date, &t.DueDate, &t.Status, &t.ReturnStatus)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT date, status FROM sale WHERE id = ?`, id,
		).Scan(&t.Date, &t.Status)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %d: %w", s.kind, id, model.ErrTransactionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s %d: %w", s.kind, id, err)
	}

	if err := s.loadLines(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TransactionStore) loadLines(ctx context.Context, t *model.Transaction) error {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, product_id, qty FROM %s WHERE %s = ? ORDER BY id`, s.lineTable, s.parentCol),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("getting lines of %s %d: %w", s.kind, t.ID, err)
	}
	defer rows.Close()

	type rawLine struct {
		id        int64
		productID int64
		qty       decimal.Decimal
	}
	var raw []rawLine
	for rows.Next() {
		var rl rawLine
		if err := rows.Scan(&rl.id, &rl.productID, &rl.qty); err != nil {
			return fmt.Errorf("scanning line of %s %d: %w", s.kind, t.ID, err)
		}
		raw = append(raw, rl)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading lines of %s %d: %w", s.kind, t.ID, err)
	}

	// Products are resolved after the row scan so the line query and the
	// product lookups don't hold two connections at once.
	for _, rl := range raw {
		p, err := GetProductByID(ctx, s.db, rl.productID)
		if err != nil {
			return fmt.Errorf("resolving product of line %d: %w", rl.id, err)
		}
		t.Lines = append(t.Lines, model.LineItem{
			ID:        rl.id,
			ProductID: p.ID,
			Code:      p.Code,
			Qty:       rl.qty,
			UnitPrice: p.Price,
			Kind:      s.kind,
		})
	}
	return nil
}
