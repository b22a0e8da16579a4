// Package service enforces the transaction lifecycle and the
// stock-consistent line-item protocol. All transaction mutations go through
// a Service; the store layer never applies business rules on its own.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RubenBranco/ADS2018/internal/clock"
	"github.com/RubenBranco/ADS2018/internal/model"
	"github.com/RubenBranco/ADS2018/internal/store"
)

var maxRentalLineQty = decimal.NewFromInt(1)

// Service handles sales or rentals, depending on the store it wraps.
type Service struct {
	db    *sql.DB
	txns  *store.TransactionStore
	clock clock.Clock
}

func NewSaleService(db *sql.DB, clk clock.Clock) *Service {
	return &Service{db: db, txns: store.NewSaleStore(db), clock: clk}
}

func NewRentalService(db *sql.DB, clk clock.Clock) *Service {
	return &Service{db: db, txns: store.NewRentalStore(db), clock: clk}
}

// Create starts a new open transaction with no line items. due is the date
// the rented items must be returned by; it is ignored for sales.
func (s *Service) Create(ctx context.Context, due time.Time) (*model.Transaction, error) {
	id, err := s.txns.Create(ctx, s.clock.Now(), due)
	if err != nil {
		return nil, err
	}
	return s.txns.GetByID(ctx, id)
}

// Get returns a transaction by id.
func (s *Service) Get(ctx context.Context, id int64) (*model.Transaction, error) {
	return s.txns.GetByID(ctx, id)
}

// All returns a lazy sequence over every transaction.
func (s *Service) All(ctx context.Context) iter.Seq2[*model.Transaction, error] {
	return s.txns.All(ctx)
}

// Filter collects the transactions satisfying pred.
func (s *Service) Filter(ctx context.Context, pred func(*model.Transaction) bool) ([]*model.Transaction, error) {
	var result []*model.Transaction
	for t, err := range s.txns.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("filtering %ss: %w", s.txns.Kind(), err)
		}
		if pred(t) {
			result = append(result, t)
		}
	}
	return result, nil
}

// AddItem adds qty units of the product with the given code to an open
// transaction. Stock is decremented before the line item is appended or
// persisted; a crash in between leaves stock consumed with no line recorded.
// That window is a known property of the protocol and is not compensated.
func (s *Service) AddItem(ctx context.Context, t *model.Transaction, code int64, qty decimal.Decimal) error {
	if !t.Open() {
		return fmt.Errorf("%s %d: %w", t.Kind, t.ID, model.ErrTransactionClosed)
	}
	if qty.IsNegative() {
		return fmt.Errorf("adding %s units of product %d to %s %d: %w",
			qty, code, t.Kind, t.ID, model.ErrInvalidQuantity)
	}
	if t.Kind == model.KindRental && qty.GreaterThan(maxRentalLineQty) {
		// One unit of an item code per call; renting several instances of
		// the same item takes separate calls.
		return fmt.Errorf("renting %s units of product %d in one line: %w",
			qty, code, model.ErrInvalidQuantity)
	}

	product, err := store.GetProductByCode(ctx, s.db, code)
	if err != nil {
		return err
	}

	if product.Stock.LessThan(qty) {
		return fmt.Errorf("stock of product %d is %s, need %s: %w",
			code, product.Stock, qty, model.ErrInsufficientStock)
	}

	if err := store.AdjustStock(ctx, s.db, product.ID, qty.Neg()); err != nil {
		return err
	}

	t.AddLine(product, qty)

	if _, err := s.txns.InsertLine(ctx, t.ID, product.ID, qty); err != nil {
		return fmt.Errorf("recording line for %s %d: %w", t.Kind, t.ID, err)
	}
	return nil
}

// Close closes an open transaction, persisting its recomputed total and
// status. Closing an already-closed transaction is a no-op.
func (s *Service) Close(ctx context.Context, t *model.Transaction) error {
	if !t.Open() {
		return nil
	}

	t.Status = model.StatusClosed
	if err := s.txns.UpdateHeader(ctx, t.ID, t.Total(), t.Status); err != nil {
		return fmt.Errorf("closing %s %d: %w", t.Kind, t.ID, err)
	}
	return nil
}

// Delete removes a transaction and all its line items. The stock the
// transaction consumed is not restored.
func (s *Service) Delete(ctx context.Context, t *model.Transaction) error {
	return s.txns.Delete(ctx, t.ID)
}

// ReturnItem puts qty units of the product with the given code back in
// stock. It does not check that the units correspond to an outstanding
// rental line; callers are trusted to return what they rented.
func (s *Service) ReturnItem(ctx context.Context, code int64, qty decimal.Decimal) error {
	if s.txns.Kind() != model.KindRental {
		return fmt.Errorf("returning product %d: only rentals take returns", code)
	}

	product, err := store.GetProductByCode(ctx, s.db, code)
	if err != nil {
		return err
	}
	return store.AdjustStock(ctx, s.db, product.ID, qty)
}

// MarkReturned flags a rental's items as returned. The return axis is
// independent of open/closed; closing is not required first.
func (s *Service) MarkReturned(ctx context.Context, t *model.Transaction) error {
	t.ReturnStatus = model.ReturnReturned
	return s.txns.UpdateReturnStatus(ctx, t.ID, t.ReturnStatus)
}

// UnmarkReturned flags a rental's items as not returned.
func (s *Service) UnmarkReturned(ctx context.Context, t *model.Transaction) error {
	t.ReturnStatus = model.ReturnWaiting
	return s.txns.UpdateReturnStatus(ctx, t.ID, t.ReturnStatus)
}

// Penalty evaluates a rental's overdue fee as of now.
func (s *Service) Penalty(t *model.Transaction) decimal.Decimal {
	return t.Penalty(s.clock.Now())
}
