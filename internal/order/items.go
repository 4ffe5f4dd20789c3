package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/enum"
)

// NewLine is the input to Add. Name, Routing and UnitPrice come from the
// catalog at the time of the call.
type NewLine struct {
	MenuItemID uuid.UUID
	Name       string
	Routing    string
	UnitPrice  decimal.Decimal
	Quantity   int32
	Notes      string
	Status     string // empty means pending
	CreatedBy  uuid.UUID
}

// NewSupplement is the input to AddSupplement.
type NewSupplement struct {
	Name                string
	Amount              decimal.Decimal
	Notes               string
	Complimentary       bool
	ComplimentaryReason string
	CreatedBy           uuid.UUID
}

// Add inserts a line, or merges the quantity into an existing pending line
// of the same menu item when neither carries notes.
func (o *Order) Add(line NewLine, now time.Time) (Item, error) {
	if err := o.requireOpen(); err != nil {
		return Item{}, err
	}
	if line.Quantity < 1 {
		return Item{}, ErrInvalidQuantity
	}
	status := line.Status
	if status == "" {
		status = enum.ItemStatusPending
	}
	if !isStaged(status) {
		return Item{}, ErrInvalidTransition
	}
	notes := strings.TrimSpace(line.Notes)

	if status == enum.ItemStatusPending && notes == "" {
		for i := range o.Items {
			it := &o.Items[i]
			if it.MenuItemID.Valid && it.MenuItemID.UUID == line.MenuItemID &&
				it.Status == enum.ItemStatusPending && it.Notes == "" && !it.Complimentary {
				it.Quantity += line.Quantity
				o.changes.markItem(it.ID, changeUpdate)
				return *it, nil
			}
		}
	}

	it := Item{
		ID:         uuid.New(),
		OrderID:    o.ID,
		MenuItemID: uuid.NullUUID{UUID: line.MenuItemID, Valid: true},
		Name:       line.Name,
		Routing:    line.Routing,
		UnitPrice:  line.UnitPrice,
		Quantity:   line.Quantity,
		Status:     status,
		Notes:      notes,
		CreatedBy:  line.CreatedBy,
		CreatedAt:  now,
	}
	o.Items = append(o.Items, it)
	o.changes.markItem(it.ID, changeInsert)
	return it, nil
}

// AdjustQuantity changes a line's quantity by delta. A line never drops below
// its paid quantity, and reaching zero deletes it. The returned bool reports
// whether the line was deleted.
func (o *Order) AdjustQuantity(id uuid.UUID, delta int32) (Item, bool, error) {
	if err := o.requireOpen(); err != nil {
		return Item{}, false, err
	}
	i := o.itemIndex(id)
	if i < 0 {
		return Item{}, false, ErrNotFound
	}
	if delta == 0 {
		return Item{}, false, ErrInvalidQuantity
	}
	it := &o.Items[i]
	if delta > 0 && isSent(it.Status) {
		return Item{}, false, ErrInvalidTransition
	}

	next := it.Quantity + delta
	if next < 0 || next < o.PaidQuantity(id) {
		return Item{}, false, ErrInvalidQuantity
	}
	if next == 0 {
		removed := *it
		o.Items = append(o.Items[:i], o.Items[i+1:]...)
		o.changes.markItem(id, changeDelete)
		return removed, true, nil
	}
	it.Quantity = next
	o.changes.markItem(id, changeUpdate)
	return *it, false, nil
}

// Advance rotates a staged line pending -> to_follow_1 -> to_follow_2 -> pending.
func (o *Order) Advance(id uuid.UUID) (Item, error) {
	if err := o.requireOpen(); err != nil {
		return Item{}, err
	}
	i := o.itemIndex(id)
	if i < 0 {
		return Item{}, ErrNotFound
	}
	it := &o.Items[i]
	switch it.Status {
	case enum.ItemStatusPending:
		it.Status = enum.ItemStatusToFollow1
	case enum.ItemStatusToFollow1:
		it.Status = enum.ItemStatusToFollow2
	case enum.ItemStatusToFollow2:
		it.Status = enum.ItemStatusPending
	default:
		return Item{}, ErrInvalidTransition
	}
	o.changes.markItem(id, changeUpdate)
	return *it, nil
}

// Complete marks a fired line as served.
func (o *Order) Complete(id uuid.UUID) (Item, error) {
	if err := o.requireOpen(); err != nil {
		return Item{}, err
	}
	i := o.itemIndex(id)
	if i < 0 {
		return Item{}, ErrNotFound
	}
	it := &o.Items[i]
	if it.Status != enum.ItemStatusFired {
		return Item{}, ErrInvalidTransition
	}
	it.Status = enum.ItemStatusCompleted
	o.changes.markItem(id, changeUpdate)
	return *it, nil
}

// SetNotes replaces the notes of a line that has not been sent yet.
func (o *Order) SetNotes(id uuid.UUID, notes string) (Item, error) {
	if err := o.requireOpen(); err != nil {
		return Item{}, err
	}
	i := o.itemIndex(id)
	if i < 0 {
		return Item{}, ErrNotFound
	}
	it := &o.Items[i]
	if isSent(it.Status) {
		return Item{}, ErrInvalidTransition
	}
	it.Notes = strings.TrimSpace(notes)
	o.changes.markItem(id, changeUpdate)
	return *it, nil
}

// SplitComplimentary offers quantity units of a line. Offering the whole
// line flags it in place; offering part of it splits off a complimentary
// line that copies price, status, notes and routing. The returned item is
// the complimentary one.
func (o *Order) SplitComplimentary(id uuid.UUID, quantity int32, reason string, now time.Time) (Item, error) {
	if err := o.requireOpen(); err != nil {
		return Item{}, err
	}
	i := o.itemIndex(id)
	if i < 0 {
		return Item{}, ErrNotFound
	}
	it := &o.Items[i]
	if it.Complimentary {
		return Item{}, ErrInvalidTransition
	}
	if quantity <= 0 || quantity > it.Quantity-o.PaidQuantity(id) {
		return Item{}, ErrInvalidQuantity
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = enum.DefaultComplimentaryReason
	}

	if quantity == it.Quantity {
		it.Complimentary = true
		it.ComplimentaryReason = reason
		o.changes.markItem(id, changeUpdate)
		return *it, nil
	}

	it.Quantity -= quantity
	o.changes.markItem(id, changeUpdate)

	offered := *it
	offered.ID = uuid.New()
	offered.Quantity = quantity
	offered.Complimentary = true
	offered.ComplimentaryReason = reason
	offered.CreatedAt = now
	offered.PrintFailedAt = nil

	o.Items = append(o.Items, Item{})
	copy(o.Items[i+2:], o.Items[i+1:])
	o.Items[i+1] = offered
	o.changes.markItem(offered.ID, changeInsert)
	return offered, nil
}

// MergeComplimentary undoes an offer. With identical ids the flag is
// cleared in place; otherwise the complimentary line's quantity is folded
// back into the original line and the complimentary line is deleted. The
// returned item is the surviving line.
func (o *Order) MergeComplimentary(originalID, complimentaryID uuid.UUID) (Item, error) {
	if err := o.requireOpen(); err != nil {
		return Item{}, err
	}

	if originalID == complimentaryID {
		i := o.itemIndex(originalID)
		if i < 0 {
			return Item{}, ErrNotFound
		}
		it := &o.Items[i]
		if !it.Complimentary {
			return Item{}, ErrInvalidTransition
		}
		it.Complimentary = false
		it.ComplimentaryReason = ""
		o.changes.markItem(it.ID, changeUpdate)
		return *it, nil
	}

	oi := o.itemIndex(originalID)
	ci := o.itemIndex(complimentaryID)
	if oi < 0 || ci < 0 {
		return Item{}, ErrNotFound
	}
	orig, comp := o.Items[oi], o.Items[ci]
	if orig.Complimentary || !comp.Complimentary {
		return Item{}, ErrInvalidTransition
	}
	if !orig.MenuItemID.Valid || !comp.MenuItemID.Valid || orig.MenuItemID.UUID != comp.MenuItemID.UUID {
		return Item{}, ErrInvalidTransition
	}
	if o.PaidQuantity(comp.ID) > 0 {
		return Item{}, ErrInvalidTransition
	}

	o.Items[oi].Quantity += comp.Quantity
	o.changes.markItem(orig.ID, changeUpdate)
	o.Items = append(o.Items[:ci], o.Items[ci+1:]...)
	o.changes.markItem(comp.ID, changeDelete)

	merged, _ := o.Item(originalID)
	return merged, nil
}

// AddSupplement stages a supplement. It is flushed with the next pending wave.
func (o *Order) AddSupplement(in NewSupplement, now time.Time) (Supplement, error) {
	if err := o.requireOpen(); err != nil {
		return Supplement{}, err
	}
	if in.Amount.IsNegative() {
		return Supplement{}, ErrInvalidAmount
	}
	s := Supplement{
		ID:            uuid.New(),
		OrderID:       o.ID,
		Name:          strings.TrimSpace(in.Name),
		Amount:        in.Amount.Round(2),
		Notes:         strings.TrimSpace(in.Notes),
		Complimentary: in.Complimentary,
		CreatedBy:     in.CreatedBy,
		CreatedAt:     now,
	}
	if s.Complimentary {
		s.ComplimentaryReason = strings.TrimSpace(in.ComplimentaryReason)
		if s.ComplimentaryReason == "" {
			s.ComplimentaryReason = enum.DefaultComplimentaryReason
		}
	}
	o.Supplements = append(o.Supplements, s)
	o.changes.markSupplement(s.ID, changeInsert)
	return s, nil
}

// --- Helpers ---

func isStaged(status string) bool {
	switch status {
	case enum.ItemStatusPending, enum.ItemStatusToFollow1, enum.ItemStatusToFollow2:
		return true
	}
	return false
}

func isSent(status string) bool {
	return status == enum.ItemStatusFired || status == enum.ItemStatusCompleted
}
