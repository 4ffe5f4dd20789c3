package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
)

// --- In-memory database ---
//
// memDB holds one committed state. A transaction works on a private copy
// and swaps it in on commit, so a rolled back transaction leaves no trace.
// Transactions are serialized by a single mutex.

type memState struct {
	seq          int
	orders       map[uuid.UUID]database.Order
	items        map[uuid.UUID]database.OrderItem
	itemSeq      map[uuid.UUID]int
	supplements  []database.Supplement
	payments     []database.Payment
	paymentItems []database.PaymentItem
	tables       map[uuid.UUID]database.Table
	menu         map[uuid.UUID]database.MenuItem
	sales        []database.DailySale
	applied      map[uuid.UUID]database.AppliedMutation
}

func newMemState() *memState {
	return &memState{
		orders:  make(map[uuid.UUID]database.Order),
		items:   make(map[uuid.UUID]database.OrderItem),
		itemSeq: make(map[uuid.UUID]int),
		tables:  make(map[uuid.UUID]database.Table),
		menu:    make(map[uuid.UUID]database.MenuItem),
		applied: make(map[uuid.UUID]database.AppliedMutation),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	c.seq = s.seq
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.itemSeq {
		c.itemSeq[k] = v
	}
	for k, v := range s.tables {
		c.tables[k] = v
	}
	for k, v := range s.menu {
		c.menu[k] = v
	}
	for k, v := range s.applied {
		c.applied[k] = v
	}
	c.supplements = append(c.supplements, s.supplements...)
	c.payments = append(c.payments, s.payments...)
	c.paymentItems = append(c.paymentItems, s.paymentItems...)
	c.sales = append(c.sales, s.sales...)
	return c
}

type memDB struct {
	mu        sync.Mutex
	state     *memState
	commits   int
	commitErr error
}

func newMemDB() *memDB {
	return &memDB{state: newMemState()}
}

func (db *memDB) Begin(ctx context.Context) (pgx.Tx, error) {
	db.mu.Lock()
	return &memTx{db: db, state: db.state.clone()}, nil
}

func (db *memDB) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	return db.Begin(ctx)
}

// snapshot returns the committed state for assertions.
func (db *memDB) snapshot() *memState {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.clone()
}

func (db *memDB) addTable(label string) uuid.UUID {
	id := uuid.New()
	db.state.tables[id] = database.Table{ID: id, Label: label, Status: enum.TableStatusAvailable}
	return id
}

func (db *memDB) addMenuItem(name, price, routing string) uuid.UUID {
	id := uuid.New()
	db.state.menu[id] = database.MenuItem{ID: id, Name: name, Price: numeric(price), Routing: routing, IsActive: true}
	return id
}

func numeric(s string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(s)
	return n
}

func newMemStore(db database.DBTX) Store {
	return &memStore{s: db.(*memTx).state}
}

// memTx implements pgx.Tx. Only Commit and Rollback do anything.
type memTx struct {
	db    *memDB
	state *memState
	done  bool
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	defer t.db.mu.Unlock()
	if t.db.commitErr != nil {
		return t.db.commitErr
	}
	t.db.state = t.state
	t.db.commits++
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.db.mu.Unlock()
	return nil
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) {
	panic("nested transactions are not used")
}

func (t *memTx) Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *memTx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return nil, nil
}

func (t *memTx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return nil
}

func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (t *memTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *memTx) Conn() *pgx.Conn {
	return nil
}

// --- Store ---

type memStore struct {
	s *memState
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func (m *memStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	for _, o := range m.s.orders {
		if o.TableID == arg.TableID && o.Status == enum.OrderStatusOpen {
			return database.Order{}, uniqueViolation("orders_one_open_per_table")
		}
	}
	o := database.Order{
		ID:       arg.ID,
		TableID:  arg.TableID,
		ServerID: arg.ServerID,
		Covers:   arg.Covers,
		Status:   enum.OrderStatusOpen,
		OpenedAt: arg.OpenedAt,
	}
	m.s.orders[o.ID] = o
	return o, nil
}

func (m *memStore) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	delete(m.s.orders, id)
	for itemID, it := range m.s.items {
		if it.OrderID == id {
			delete(m.s.items, itemID)
		}
	}
	return nil
}

func (m *memStore) GetOpenOrderByTable(ctx context.Context, tableID uuid.UUID) (database.Order, error) {
	for _, o := range m.s.orders {
		if o.TableID == tableID && o.Status == enum.OrderStatusOpen {
			return o, nil
		}
	}
	return database.Order{}, pgx.ErrNoRows
}

func (m *memStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	o, ok := m.s.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *memStore) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error) {
	return m.GetOrder(ctx, id)
}

func (m *memStore) UpdateOrder(ctx context.Context, arg database.UpdateOrderParams) (database.Order, error) {
	o, ok := m.s.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.TableID = arg.TableID
	o.Covers = arg.Covers
	o.Status = arg.Status
	o.Revision = arg.Revision
	o.ClosedAt = arg.ClosedAt
	m.s.orders[o.ID] = o
	return o, nil
}

func (m *memStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	if arg.Quantity <= 0 {
		return database.OrderItem{}, errors.New("order_items_quantity_check")
	}
	it := database.OrderItem{
		ID:                  arg.ID,
		OrderID:             arg.OrderID,
		MenuItemID:          arg.MenuItemID,
		UnitPrice:           arg.UnitPrice,
		Quantity:            arg.Quantity,
		Status:              arg.Status,
		Notes:               arg.Notes,
		IsComplimentary:     arg.IsComplimentary,
		ComplimentaryReason: arg.ComplimentaryReason,
		CreatedBy:           arg.CreatedBy,
		CreatedAt:           arg.CreatedAt,
		FiredAt:             arg.FiredAt,
	}
	m.s.items[it.ID] = it
	m.s.seq++
	m.s.itemSeq[it.ID] = m.s.seq
	return it, nil
}

func (m *memStore) DeleteOrderItem(ctx context.Context, id uuid.UUID) error {
	delete(m.s.items, id)
	return nil
}

func (m *memStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsByOrderRow, error) {
	var rows []database.ListOrderItemsByOrderRow
	for _, it := range m.s.items {
		if it.OrderID != orderID {
			continue
		}
		row := database.ListOrderItemsByOrderRow{
			ID:                  it.ID,
			OrderID:             it.OrderID,
			MenuItemID:          it.MenuItemID,
			UnitPrice:           it.UnitPrice,
			Quantity:            it.Quantity,
			Status:              it.Status,
			Notes:               it.Notes,
			IsComplimentary:     it.IsComplimentary,
			ComplimentaryReason: it.ComplimentaryReason,
			CreatedBy:           it.CreatedBy,
			CreatedAt:           it.CreatedAt,
			FiredAt:             it.FiredAt,
			PrintFailedAt:       it.PrintFailedAt,
		}
		if it.MenuItemID.Valid {
			if mi, ok := m.s.menu[it.MenuItemID.Bytes]; ok {
				row.MenuItemName = pgtype.Text{String: mi.Name, Valid: true}
				row.Routing = pgtype.Text{String: mi.Routing, Valid: true}
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return m.s.itemSeq[rows[i].ID] < m.s.itemSeq[rows[j].ID]
	})
	return rows, nil
}

func (m *memStore) UpdateOrderItem(ctx context.Context, arg database.UpdateOrderItemParams) (database.OrderItem, error) {
	it, ok := m.s.items[arg.ID]
	if !ok {
		return database.OrderItem{}, pgx.ErrNoRows
	}
	it.Quantity = arg.Quantity
	it.Status = arg.Status
	it.Notes = arg.Notes
	it.IsComplimentary = arg.IsComplimentary
	it.ComplimentaryReason = arg.ComplimentaryReason
	it.FiredAt = arg.FiredAt
	it.PrintFailedAt = arg.PrintFailedAt
	m.s.items[it.ID] = it
	return it, nil
}

func (m *memStore) CreateSupplement(ctx context.Context, arg database.CreateSupplementParams) (database.Supplement, error) {
	s := database.Supplement{
		ID:                  arg.ID,
		OrderID:             arg.OrderID,
		Name:                arg.Name,
		Amount:              arg.Amount,
		Notes:               arg.Notes,
		IsComplimentary:     arg.IsComplimentary,
		ComplimentaryReason: arg.ComplimentaryReason,
		CreatedBy:           arg.CreatedBy,
		CreatedAt:           arg.CreatedAt,
		SentAt:              arg.SentAt,
	}
	m.s.supplements = append(m.s.supplements, s)
	return s, nil
}

func (m *memStore) ListSupplementsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Supplement, error) {
	var out []database.Supplement
	for _, s := range m.s.supplements {
		if s.OrderID == orderID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) UpdateSupplement(ctx context.Context, arg database.UpdateSupplementParams) (database.Supplement, error) {
	for i := range m.s.supplements {
		if m.s.supplements[i].ID == arg.ID {
			m.s.supplements[i].IsComplimentary = arg.IsComplimentary
			m.s.supplements[i].ComplimentaryReason = arg.ComplimentaryReason
			m.s.supplements[i].SentAt = arg.SentAt
			return m.s.supplements[i], nil
		}
	}
	return database.Supplement{}, pgx.ErrNoRows
}

func (m *memStore) CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error) {
	p := database.Payment{
		ID:         arg.ID,
		OrderID:    arg.OrderID,
		Amount:     arg.Amount,
		Method:     arg.Method,
		Tip:        arg.Tip,
		SplitMode:  arg.SplitMode,
		SplitParts: arg.SplitParts,
		RecordedBy: arg.RecordedBy,
		CreatedAt:  arg.CreatedAt,
	}
	m.s.payments = append(m.s.payments, p)
	return p, nil
}

func (m *memStore) CreatePaymentItem(ctx context.Context, arg database.CreatePaymentItemParams) (database.PaymentItem, error) {
	pi := database.PaymentItem{
		PaymentID:   arg.PaymentID,
		OrderItemID: arg.OrderItemID,
		Quantity:    arg.Quantity,
		Amount:      arg.Amount,
	}
	m.s.paymentItems = append(m.s.paymentItems, pi)
	return pi, nil
}

func (m *memStore) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error) {
	var out []database.Payment
	for _, p := range m.s.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) ListPaymentItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.PaymentItem, error) {
	paymentOrder := make(map[uuid.UUID]uuid.UUID)
	for _, p := range m.s.payments {
		paymentOrder[p.ID] = p.OrderID
	}
	var out []database.PaymentItem
	for _, pi := range m.s.paymentItems {
		if paymentOrder[pi.PaymentID] == orderID {
			out = append(out, pi)
		}
	}
	return out, nil
}

func (m *memStore) CreateDailySale(ctx context.Context, arg database.CreateDailySaleParams) (database.DailySale, error) {
	for _, s := range m.s.sales {
		if s.OrderID == arg.OrderID {
			return database.DailySale{}, uniqueViolation("daily_sales_order_id_key")
		}
	}
	s := database.DailySale{
		ID:                  uuid.New(),
		OrderID:             arg.OrderID,
		TableID:             arg.TableID,
		ServerID:            arg.ServerID,
		SaleDate:            arg.SaleDate,
		TotalAmount:         arg.TotalAmount,
		ComplimentaryAmount: arg.ComplimentaryAmount,
		ComplimentaryCount:  arg.ComplimentaryCount,
		PaymentMethod:       arg.PaymentMethod,
	}
	m.s.sales = append(m.s.sales, s)
	return s, nil
}

func (m *memStore) GetTable(ctx context.Context, id uuid.UUID) (database.Table, error) {
	t, ok := m.s.tables[id]
	if !ok {
		return database.Table{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *memStore) GetTableForUpdate(ctx context.Context, id uuid.UUID) (database.Table, error) {
	return m.GetTable(ctx, id)
}

func (m *memStore) UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) error {
	t, ok := m.s.tables[arg.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	t.Status = arg.Status
	t.OpenedBy = arg.OpenedBy
	m.s.tables[t.ID] = t
	return nil
}

func (m *memStore) CreateAppliedMutation(ctx context.Context, arg database.CreateAppliedMutationParams) (database.AppliedMutation, error) {
	if _, exists := m.s.applied[arg.LocalID]; exists {
		return database.AppliedMutation{}, uniqueViolation("applied_mutations_pkey")
	}
	am := database.AppliedMutation{
		LocalID:      arg.LocalID,
		Kind:         arg.Kind,
		OrderID:      arg.OrderID,
		ItemID:       arg.ItemID,
		ClientItemID: arg.ClientItemID,
		Outcome:      arg.Outcome,
		Detail:       arg.Detail,
		AppliedAt:    pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	m.s.applied[am.LocalID] = am
	return am, nil
}

func (m *memStore) GetAppliedMutation(ctx context.Context, localID uuid.UUID) (database.AppliedMutation, error) {
	am, ok := m.s.applied[localID]
	if !ok {
		return database.AppliedMutation{}, pgx.ErrNoRows
	}
	return am, nil
}

func (m *memStore) ResolveClientItem(ctx context.Context, clientItemID pgtype.UUID) (pgtype.UUID, error) {
	for _, am := range m.s.applied {
		if am.ClientItemID == clientItemID && am.Outcome == enum.MutationOutcomeApplied && am.ItemID.Valid {
			return am.ItemID, nil
		}
	}
	return pgtype.UUID{}, pgx.ErrNoRows
}
