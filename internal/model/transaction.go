package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind tags a transaction as a sale or a rental. The kind carries
// the per-kind business rules (subtotal formula, per-line quantity limit)
// instead of having two near-identical types.
type TransactionKind int

const (
	KindSale TransactionKind = iota
	KindRental
)

func (k TransactionKind) String() string {
	if k == KindRental {
		return "rental"
	}
	return "sale"
}

// Rentals charge a fraction of the retail price per rented unit; the rest of
// the value only comes due as a penalty when the hard return limit is missed.
var rentalRate = decimal.RequireFromString("0.20")

// Subtotal computes the amount charged for qty units at the given unit price.
func (k TransactionKind) Subtotal(price, qty decimal.Decimal) decimal.Decimal {
	if k == KindRental {
		return qty.Mul(price).Mul(rentalRate)
	}
	return qty.Mul(price)
}

// Transaction statuses, as persisted.
type TransactionStatus string

const (
	StatusOpen   TransactionStatus = "O"
	StatusClosed TransactionStatus = "C"
)

// Rental return statuses, as persisted. Independent of open/closed: a rental
// can be closed and still waiting for its items.
type ReturnStatus int

const (
	ReturnWaiting  ReturnStatus = 0
	ReturnReturned ReturnStatus = 1
)

// Transaction is a sale or rental header together with its line items.
// DueDate and ReturnStatus are only meaningful for rentals.
type Transaction struct {
	ID           int64
	Kind         TransactionKind
	Date         time.Time
	Status       TransactionStatus
	DueDate      time.Time
	ReturnStatus ReturnStatus
	Lines        []LineItem
}

// LineItem is one product-and-quantity entry within a transaction. It holds a
// weak reference to the product (ProductID); UnitPrice is captured when the
// line is resolved through the product store.
type LineItem struct {
	ID        int64
	ProductID int64
	Code      int64
	Qty       decimal.Decimal
	UnitPrice decimal.Decimal
	Kind      TransactionKind
}

// Subtotal is the amount charged for this line.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Kind.Subtotal(li.UnitPrice, li.Qty)
}

func (t *Transaction) Open() bool {
	return t.Status == StatusOpen
}

func (t *Transaction) Returned() bool {
	return t.ReturnStatus == ReturnReturned
}

// AddLine appends a line item for the given product. Lines are append-only;
// they are only removed by deleting the whole transaction.
func (t *Transaction) AddLine(p *Product, qty decimal.Decimal) {
	t.Lines = append(t.Lines, LineItem{
		ProductID: p.ID,
		Code:      p.Code,
		Qty:       qty,
		UnitPrice: p.Price,
		Kind:      t.Kind,
	})
}

// Total is always recomputed from the line items; the persisted total column
// is only written at close time.
func (t *Transaction) Total() decimal.Decimal {
	total := decimal.Zero
	for _, li := range t.Lines {
		total = total.Add(li.Subtotal())
	}
	return total
}

var penaltyHalf = decimal.RequireFromString("0.5")

// Penalty computes the overdue fee for a rental at the given instant. Up to
// and including the due date there is none. Within seven days past it, each
// line costs half its subtotal. Beyond that hard limit, each line costs its
// full retail value minus what the subtotal already charged. Evaluated at
// query time, never persisted.
func (t *Transaction) Penalty(now time.Time) decimal.Decimal {
	total := decimal.Zero
	if t.Kind != KindRental || !now.After(t.DueDate) {
		return total
	}

	hardLimit := t.DueDate.AddDate(0, 0, 7)
	for _, li := range t.Lines {
		if now.After(hardLimit) {
			total = total.Add(li.UnitPrice.Mul(li.Qty).Sub(li.Subtotal()))
		} else {
			total = total.Add(li.Subtotal().Mul(penaltyHalf))
		}
	}
	return total
}

func (t *Transaction) String() string {
	var sb strings.Builder
	state := "closed"
	if t.Open() {
		state = "open"
	}
	fmt.Fprintf(&sb, "%s %d @ %s; %s", t.Kind, t.ID, t.Date.Format("2006-01-02"), state)
	if t.Kind == KindRental {
		returned := "unreturned"
		if t.Returned() {
			returned = "returned"
		}
		fmt.Fprintf(&sb, "; %s", returned)
	}
	fmt.Fprintf(&sb, "; total of %s with products:", t.Total())
	for _, li := range t.Lines {
		fmt.Fprintf(&sb, " [code %d, %s units]", li.Code, li.Qty)
	}
	if t.Kind == KindRental {
		fmt.Fprintf(&sb, " due %s", t.DueDate.Format("2006-01-02"))
	}
	return sb.String()
}
