package order

import "github.com/google/uuid"

type changeKind int

const (
	changeInsert changeKind = iota + 1
	changeUpdate
	changeDelete
)

type changeSet struct {
	orderDirty  bool
	items       map[uuid.UUID]changeKind
	itemOrder   []uuid.UUID
	supplements map[uuid.UUID]changeKind
	supOrder    []uuid.UUID
	payments    []uuid.UUID
}

// Changes lists what a sequence of operations did to an order, collapsed so
// that each row is written at most once.
type Changes struct {
	OrderUpdated        bool
	InsertedItems       []Item
	UpdatedItems        []Item
	DeletedItems        []uuid.UUID
	InsertedSupplements []Supplement
	UpdatedSupplements  []Supplement
	InsertedPayments    []Payment
}

// Empty reports whether there is nothing to persist.
func (c Changes) Empty() bool {
	return !c.OrderUpdated &&
		len(c.InsertedItems) == 0 && len(c.UpdatedItems) == 0 && len(c.DeletedItems) == 0 &&
		len(c.InsertedSupplements) == 0 && len(c.UpdatedSupplements) == 0 &&
		len(c.InsertedPayments) == 0
}

func mergeKind(prev, next changeKind, seen bool) (changeKind, bool) {
	if !seen {
		return next, true
	}
	switch {
	case prev == changeInsert && next == changeUpdate:
		return changeInsert, true
	case prev == changeInsert && next == changeDelete:
		return 0, false
	default:
		return next, true
	}
}

func (c *changeSet) markItem(id uuid.UUID, kind changeKind) {
	if c.items == nil {
		c.items = make(map[uuid.UUID]changeKind)
	}
	prev, seen := c.items[id]
	k, keep := mergeKind(prev, kind, seen)
	if !keep {
		delete(c.items, id)
		return
	}
	if !seen {
		c.itemOrder = append(c.itemOrder, id)
	}
	c.items[id] = k
}

func (c *changeSet) markSupplement(id uuid.UUID, kind changeKind) {
	if c.supplements == nil {
		c.supplements = make(map[uuid.UUID]changeKind)
	}
	prev, seen := c.supplements[id]
	k, keep := mergeKind(prev, kind, seen)
	if !keep {
		delete(c.supplements, id)
		return
	}
	if !seen {
		c.supOrder = append(c.supOrder, id)
	}
	c.supplements[id] = k
}

// Changes returns the pending writes accumulated since the order was loaded
// or since the last ResetChanges.
func (o *Order) Changes() Changes {
	out := Changes{OrderUpdated: o.changes.orderDirty}
	for _, id := range o.changes.itemOrder {
		kind, ok := o.changes.items[id]
		if !ok {
			continue
		}
		switch kind {
		case changeDelete:
			out.DeletedItems = append(out.DeletedItems, id)
		case changeInsert:
			if it, found := o.Item(id); found {
				out.InsertedItems = append(out.InsertedItems, it)
			}
		case changeUpdate:
			if it, found := o.Item(id); found {
				out.UpdatedItems = append(out.UpdatedItems, it)
			}
		}
	}
	for _, id := range o.changes.supOrder {
		kind, ok := o.changes.supplements[id]
		if !ok {
			continue
		}
		i := o.supplementIndex(id)
		if i < 0 {
			continue
		}
		switch kind {
		case changeInsert:
			out.InsertedSupplements = append(out.InsertedSupplements, o.Supplements[i])
		case changeUpdate:
			out.UpdatedSupplements = append(out.UpdatedSupplements, o.Supplements[i])
		}
	}
	for _, id := range o.changes.payments {
		for _, p := range o.Payments {
			if p.ID == id {
				out.InsertedPayments = append(out.InsertedPayments, p)
			}
		}
	}
	return out
}

// ResetChanges forgets accumulated writes, typically after they were persisted.
func (o *Order) ResetChanges() {
	o.changes = changeSet{}
}
