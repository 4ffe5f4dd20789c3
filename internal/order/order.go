// Package order holds the table order domain: the item state machine,
// fire wave planning and the payment ledger. It has no I/O; callers load an
// Order, apply operations, then persist what Changes reports.
package order

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/enum"
)

// Errors returned by order operations.
var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrOverPayment       = errors.New("quantity exceeds unpaid quantity")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNotFound          = errors.New("not found")
	ErrNothingToSend     = errors.New("nothing to send")
	ErrReplayConflict    = errors.New("replay conflict")
)

// Order is the open tab of one table.
type Order struct {
	ID       uuid.UUID
	TableID  uuid.UUID
	ServerID uuid.UUID
	Covers   int32
	Status   string
	OpenedAt time.Time
	ClosedAt *time.Time
	Revision int64

	Items       []Item
	Supplements []Supplement
	Payments    []Payment

	changes changeSet
}

// Item is one priced line of an order. UnitPrice is the catalog price
// captured when the line was added and never changes afterwards.
type Item struct {
	ID                  uuid.UUID
	OrderID             uuid.UUID
	MenuItemID          uuid.NullUUID
	Name                string
	Routing             string
	UnitPrice           decimal.Decimal
	Quantity            int32
	Status              string
	Notes               string
	Complimentary       bool
	ComplimentaryReason string
	CreatedBy           uuid.UUID
	CreatedAt           time.Time
	FiredAt             *time.Time
	PrintFailedAt       *time.Time
}

// Supplement is a free-form priced extra attached to an order. Supplements
// are never printed.
type Supplement struct {
	ID                  uuid.UUID
	OrderID             uuid.UUID
	Name                string
	Amount              decimal.Decimal
	Notes               string
	Complimentary       bool
	ComplimentaryReason string
	CreatedBy           uuid.UUID
	CreatedAt           time.Time
	SentAt              *time.Time
}

// Payment is an immutable ledger entry.
type Payment struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	Amount     decimal.Decimal
	Method     string
	Tip        decimal.Decimal
	SplitMode  string
	SplitParts int32
	RecordedBy uuid.UUID
	CreatedAt  time.Time
	Items      []PaymentItem
}

// PaymentItem attributes part of a payment to a quantity of one line.
type PaymentItem struct {
	OrderItemID uuid.UUID
	Quantity    int32
	Amount      decimal.Decimal
}

// New returns an empty open order for a table.
func New(tableID, serverID uuid.UUID, now time.Time) *Order {
	return &Order{
		ID:       uuid.New(),
		TableID:  tableID,
		ServerID: serverID,
		Status:   enum.OrderStatusOpen,
		OpenedAt: now,
	}
}

// IsOpen reports whether the order still accepts mutations.
func (o *Order) IsOpen() bool {
	return o.Status == enum.OrderStatusOpen
}

// IsEmpty reports whether the order has no lines, supplements or payments.
func (o *Order) IsEmpty() bool {
	return len(o.Items) == 0 && len(o.Supplements) == 0 && len(o.Payments) == 0
}

// Item returns a copy of the line with the given id.
func (o *Order) Item(id uuid.UUID) (Item, bool) {
	if i := o.itemIndex(id); i >= 0 {
		return o.Items[i], true
	}
	return Item{}, false
}

func (o *Order) itemIndex(id uuid.UUID) int {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return i
		}
	}
	return -1
}

func (o *Order) supplementIndex(id uuid.UUID) int {
	for i := range o.Supplements {
		if o.Supplements[i].ID == id {
			return i
		}
	}
	return -1
}

func (o *Order) requireOpen() error {
	if !o.IsOpen() {
		return ErrInvalidTransition
	}
	return nil
}

// SetCovers records the number of guests at the table.
func (o *Order) SetCovers(covers int32) error {
	if err := o.requireOpen(); err != nil {
		return err
	}
	if covers < 0 {
		return ErrInvalidQuantity
	}
	o.Covers = covers
	o.changes.orderDirty = true
	return nil
}

// MoveTo reassigns the order to another table.
func (o *Order) MoveTo(tableID uuid.UUID) error {
	if err := o.requireOpen(); err != nil {
		return err
	}
	if tableID == o.TableID {
		return ErrInvalidTransition
	}
	o.TableID = tableID
	o.changes.orderDirty = true
	return nil
}
