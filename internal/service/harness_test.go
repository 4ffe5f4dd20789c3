package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/catalog"
	"github.com/tableside-pos/api/internal/dispatch"
	"github.com/tableside-pos/api/internal/ws"
)

// --- Mock implementations ---

type recordingBus struct {
	mu     sync.Mutex
	events []ws.Event
}

func (b *recordingBus) Broadcast(e ws.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) all() []ws.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ws.Event(nil), b.events...)
}

type mockPrinter struct {
	mu      sync.Mutex
	printFn func(ctx context.Context, t dispatch.Ticket) error
	printed []dispatch.Ticket
}

func (p *mockPrinter) Print(ctx context.Context, t dispatch.Ticket) error {
	p.mu.Lock()
	p.printed = append(p.printed, t)
	fn := p.printFn
	p.mu.Unlock()
	if fn != nil {
		return fn(ctx, t)
	}
	return nil
}

type staticMenu map[uuid.UUID]catalog.MenuItem

func (m staticMenu) GetMenuItem(ctx context.Context, id uuid.UUID) (catalog.MenuItem, error) {
	it, ok := m[id]
	if !ok {
		return catalog.MenuItem{}, catalog.ErrNotFound
	}
	return it, nil
}

// harness wires the services over an in-memory database.
type harness struct {
	db       *memDB
	bus      *recordingBus
	printer  *mockPrinter
	menu     staticMenu
	coord    *Coordinator
	orders   *OrderService
	payments *PaymentService
	replay   *ReplayService
	staff    uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		db:      newMemDB(),
		bus:     &recordingBus{},
		printer: &mockPrinter{},
		menu:    staticMenu{},
		staff:   uuid.New(),
	}
	h.coord = NewCoordinator(h.db, newMemStore, h.bus)
	h.orders = NewOrderService(h.coord, h.menu, h.printer)
	h.payments = NewPaymentService(h.coord)
	h.replay = NewReplayService(h.coord, h.orders, h.payments)
	return h
}

func (h *harness) menuItem(name, price, routing string) uuid.UUID {
	id := h.db.addMenuItem(name, price, routing)
	h.menu[id] = catalog.MenuItem{ID: id, Name: name, Price: decimal.RequireFromString(price), Routing: routing}
	return id
}

// openWith opens an order on a fresh table with one line.
func (h *harness) openWith(t *testing.T, menuItemID uuid.UUID, qty int32) (tableID, orderID, itemID uuid.UUID) {
	t.Helper()
	tableID = h.db.addTable("T1")
	res, err := h.orders.AddToTable(context.Background(), tableID, AddItemRequest{MenuItemID: menuItemID, Quantity: qty, By: h.staff})
	if err != nil {
		t.Fatalf("open order: %v", err)
	}
	if res.ItemID == nil {
		t.Fatal("expected item id")
	}
	return tableID, res.Order.ID, *res.ItemID
}

func findItem(t *testing.T, snap OrderSnapshot, id uuid.UUID) ItemView {
	t.Helper()
	for _, it := range snap.Items {
		if it.ID == id {
			return it
		}
	}
	t.Fatalf("item %s not in order", id)
	return ItemView{}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
