package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/enum"
)

// SplitRequest selects how the amount due for one payment is computed.
type SplitRequest struct {
	Mode           string
	Parts          int32               // equal
	ItemQuantities map[uuid.UUID]int32 // items
	Amount         decimal.Decimal     // custom
}

// Due is the outcome of a split computation.
type Due struct {
	Amount    decimal.Decimal
	Items     []PaymentItem
	Remaining decimal.Decimal
}

// PaymentInput is the input to RecordPayment.
type PaymentInput struct {
	Amount         decimal.Decimal
	Method         string
	Tip            decimal.Decimal
	Mode           string
	Parts          int32
	ItemQuantities map[uuid.UUID]int32
	RecordedBy     uuid.UUID
}

// Settlement is the ledger state after a payment.
type Settlement struct {
	Payment   Payment
	PaidTotal decimal.Decimal
	Remaining decimal.Decimal
	Closed    bool
}

// LineTotal is price times quantity, or zero for a complimentary line.
func LineTotal(it Item) decimal.Decimal {
	if it.Complimentary {
		return decimal.Zero
	}
	return it.UnitPrice.Mul(decimal.NewFromInt32(it.Quantity))
}

// Total sums payable lines and payable supplements.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(LineTotal(it))
	}
	for _, s := range o.Supplements {
		if !s.Complimentary {
			total = total.Add(s.Amount)
		}
	}
	return total.Round(2)
}

// ComplimentaryTotal sums what the order would have cost without offers and
// counts offered units. Each complimentary supplement counts as one.
func (o *Order) ComplimentaryTotal() (decimal.Decimal, int) {
	total := decimal.Zero
	count := 0
	for _, it := range o.Items {
		if it.Complimentary {
			total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt32(it.Quantity)))
			count += int(it.Quantity)
		}
	}
	for _, s := range o.Supplements {
		if s.Complimentary {
			total = total.Add(s.Amount)
			count++
		}
	}
	return total.Round(2), count
}

// PaidTotal sums payment amounts. Tips are excluded.
func (o *Order) PaidTotal() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range o.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid.Round(2)
}

// Remaining is Total minus PaidTotal. It can be negative.
func (o *Order) Remaining() decimal.Decimal {
	return o.Total().Sub(o.PaidTotal())
}

// RemainingDue is Remaining floored at zero.
func (o *Order) RemainingDue() decimal.Decimal {
	r := o.Remaining()
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// IsSettled reports whether nothing is left to pay.
func (o *Order) IsSettled() bool {
	return !o.Remaining().IsPositive()
}

// PaidQuantities projects paid quantity per line from the ledger.
func (o *Order) PaidQuantities() map[uuid.UUID]int32 {
	paid := make(map[uuid.UUID]int32)
	for _, p := range o.Payments {
		for _, pi := range p.Items {
			paid[pi.OrderItemID] += pi.Quantity
		}
	}
	return paid
}

// PaidQuantity is the number of units of a line covered by payments.
func (o *Order) PaidQuantity(id uuid.UUID) int32 {
	var n int32
	for _, p := range o.Payments {
		for _, pi := range p.Items {
			if pi.OrderItemID == id {
				n += pi.Quantity
			}
		}
	}
	return n
}

// AmountDue computes what the next payment should be under a split mode.
func (o *Order) AmountDue(req SplitRequest) (Due, error) {
	if err := o.requireOpen(); err != nil {
		return Due{}, err
	}
	remaining := o.RemainingDue()
	due := Due{Remaining: remaining}

	switch req.Mode {
	case enum.SplitModeFull:
		due.Amount = remaining

	case enum.SplitModeEqual:
		// Parts is the number of payers still to pay; the caller counts down.
		if req.Parts < 1 {
			return Due{}, ErrInvalidQuantity
		}
		due.Amount = EqualShare(remaining, req.Parts)

	case enum.SplitModeItems:
		items, sum, err := o.priceItems(req.ItemQuantities)
		if err != nil {
			return Due{}, err
		}
		due.Amount = sum
		due.Items = items

	case enum.SplitModeCustom:
		if !req.Amount.IsPositive() {
			return Due{}, ErrInvalidAmount
		}
		due.Amount = req.Amount.Round(2)

	default:
		return Due{}, ErrInvalidAmount
	}
	return due, nil
}

// EqualShare splits remaining across payers, rounding down to the cent. A
// single payer pays whatever is left, so shares quoted with payers counting
// down from N to 1 always sum to the balance they started from.
func EqualShare(remaining decimal.Decimal, payers int32) decimal.Decimal {
	if payers <= 1 {
		return remaining.Round(2)
	}
	return remaining.Div(decimal.NewFromInt32(payers)).Truncate(2)
}

// priceItems validates requested quantities against unpaid quantities and
// prices them. Complimentary lines are priced at zero.
func (o *Order) priceItems(quantities map[uuid.UUID]int32) ([]PaymentItem, decimal.Decimal, error) {
	if len(quantities) == 0 {
		return nil, decimal.Zero, ErrInvalidQuantity
	}
	paid := o.PaidQuantities()
	for id, q := range quantities {
		i := o.itemIndex(id)
		if i < 0 {
			return nil, decimal.Zero, ErrNotFound
		}
		if q <= 0 {
			return nil, decimal.Zero, ErrInvalidQuantity
		}
		if q > o.Items[i].Quantity-paid[id] {
			return nil, decimal.Zero, ErrOverPayment
		}
	}

	sum := decimal.Zero
	var items []PaymentItem
	// Walk lines in order so the result is deterministic.
	for _, it := range o.Items {
		q, ok := quantities[it.ID]
		if !ok {
			continue
		}
		amount := decimal.Zero
		if !it.Complimentary {
			amount = it.UnitPrice.Mul(decimal.NewFromInt32(q)).Round(2)
		}
		items = append(items, PaymentItem{OrderItemID: it.ID, Quantity: q, Amount: amount})
		sum = sum.Add(amount)
	}
	return items, sum, nil
}

// RecordPayment appends a payment to the ledger. The amount is not checked
// against the balance; a payment that covers it closes the order and any
// excess leaves Remaining negative.
func (o *Order) RecordPayment(in PaymentInput, now time.Time) (Settlement, error) {
	if err := o.requireOpen(); err != nil {
		return Settlement{}, err
	}
	if !in.Amount.IsPositive() || in.Tip.IsNegative() {
		return Settlement{}, ErrInvalidAmount
	}
	if !isValidMethod(in.Method) {
		return Settlement{}, ErrInvalidAmount
	}
	if in.Tip.IsPositive() && in.Method != enum.PaymentMethodCash {
		return Settlement{}, ErrInvalidAmount
	}
	mode := in.Mode
	if mode == "" {
		mode = enum.SplitModeCustom
	}
	if !isValidSplitMode(mode) {
		return Settlement{}, ErrInvalidAmount
	}

	amount := in.Amount.Round(2)

	var items []PaymentItem
	if len(in.ItemQuantities) > 0 {
		priced, _, err := o.priceItems(in.ItemQuantities)
		if err != nil {
			return Settlement{}, err
		}
		items = priced
	}

	p := Payment{
		ID:         uuid.New(),
		OrderID:    o.ID,
		Amount:     amount,
		Method:     in.Method,
		Tip:        in.Tip.Round(2),
		SplitMode:  mode,
		RecordedBy: in.RecordedBy,
		CreatedAt:  now,
		Items:      items,
	}
	if mode == enum.SplitModeEqual {
		p.SplitParts = in.Parts
	}
	o.Payments = append(o.Payments, p)
	o.changes.payments = append(o.changes.payments, p.ID)

	st := Settlement{Payment: p, PaidTotal: o.PaidTotal(), Remaining: o.RemainingDue()}
	if o.IsSettled() {
		o.close(now)
		st.Closed = true
	}
	return st, nil
}

// CloseSettled closes an order whose balance is already covered, such as
// one where every line was offered.
func (o *Order) CloseSettled(now time.Time) error {
	if err := o.requireOpen(); err != nil {
		return err
	}
	if len(o.Items) == 0 && len(o.Supplements) == 0 {
		return ErrInvalidTransition
	}
	if !o.IsSettled() {
		return ErrInvalidTransition
	}
	o.close(now)
	return nil
}

func (o *Order) close(now time.Time) {
	o.Status = enum.OrderStatusClosed
	closedAt := now
	o.ClosedAt = &closedAt
	o.changes.orderDirty = true
}

func isValidMethod(m string) bool {
	switch m {
	case enum.PaymentMethodCash, enum.PaymentMethodCard, enum.PaymentMethodOther:
		return true
	}
	return false
}

func isValidSplitMode(m string) bool {
	switch m {
	case enum.SplitModeFull, enum.SplitModeEqual, enum.SplitModeItems, enum.SplitModeCustom:
		return true
	}
	return false
}
