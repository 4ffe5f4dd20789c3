package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/order"
	"github.com/tableside-pos/api/internal/ws"
)

// errTableTaken means another terminal opened an order on the table first.
var errTableTaken = errors.New("table already has an open order")

// Coordinator serializes writes per order and publishes committed revisions.
// One instance is shared by every service so that they lock the same keys.
type Coordinator struct {
	pool     TxBeginner
	newStore NewStore
	bus      Broadcaster
	locks    *keyedMutex
	publish  *keyedMutex
	now      func() time.Time
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(pool TxBeginner, newStore NewStore, bus Broadcaster) *Coordinator {
	return &Coordinator{
		pool:     pool,
		newStore: newStore,
		bus:      bus,
		locks:    newKeyedMutex(),
		publish:  newKeyedMutex(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// txn is what a mutation sees while the order is locked.
type txn struct {
	store Store
	order *order.Order
	now   time.Time

	// itemID is the line the mutation touched, recorded for replay.
	itemID uuid.UUID
	// event overrides the broadcast type.
	event string
	// deleted drops the order row instead of persisting changes.
	deleted bool
}

type mutateFunc func(ctx context.Context, t *txn) error

// mutate runs fn against a locked, freshly loaded order and commits what it
// changed. The returned order reflects the committed state.
func (c *Coordinator) mutate(ctx context.Context, orderID uuid.UUID, fn mutateFunc) (*order.Order, error) {
	unlock := c.locks.Lock(orderID)
	locked := true
	defer func() {
		if locked {
			unlock()
		}
	}()

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	st := c.newStore(tx)
	row, err := st.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if isNoRows(err) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}
	o, err := loadOrder(ctx, st, row)
	if err != nil {
		return nil, err
	}

	t := &txn{store: st, order: o, now: c.now()}
	wasOpen := o.IsOpen()
	if err := fn(ctx, t); err != nil {
		return nil, err
	}

	ev, err := c.commit(ctx, tx, t, wasOpen)
	if err != nil {
		return nil, err
	}

	// Hand over to the publish lock so events leave in commit order.
	release := c.publish.Lock(orderID)
	unlock()
	locked = false
	if ev != nil {
		c.bus.Broadcast(*ev)
	}
	release()
	return o, nil
}

// open creates an order on a free table and runs fn against it in the same
// transaction. It returns errTableTaken when the table already has one.
func (c *Coordinator) open(ctx context.Context, tableID, serverID uuid.UUID, covers int32, fn mutateFunc) (*order.Order, error) {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	st := c.newStore(tx)
	if _, err := st.GetTableForUpdate(ctx, tableID); err != nil {
		if isNoRows(err) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("lock table: %w", err)
	}
	if _, err := st.GetOpenOrderByTable(ctx, tableID); err == nil {
		return nil, errTableTaken
	} else if !isNoRows(err) {
		return nil, fmt.Errorf("get open order: %w", err)
	}

	now := c.now()
	o := order.New(tableID, serverID, now)
	if covers > 0 {
		o.Covers = covers
	}
	_, err = st.CreateOrder(ctx, database.CreateOrderParams{
		ID:       o.ID,
		TableID:  o.TableID,
		ServerID: o.ServerID,
		Covers:   o.Covers,
		OpenedAt: database.Timestamptz(&o.OpenedAt),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if err := occupyTable(ctx, st, tableID, serverID); err != nil {
		return nil, err
	}

	t := &txn{store: st, order: o, now: now}
	if err := fn(ctx, t); err != nil {
		return nil, err
	}
	ev, err := c.commit(ctx, tx, t, true)
	if err != nil {
		return nil, err
	}

	release := c.publish.Lock(o.ID)
	if ev != nil {
		c.bus.Broadcast(*ev)
	}
	release()
	log.WithFields(log.Fields{"order_id": o.ID, "table_id": tableID}).Info("order opened")
	return o, nil
}

func (c *Coordinator) commit(ctx context.Context, tx pgx.Tx, t *txn, wasOpen bool) (*ws.Event, error) {
	o := t.order
	var ev *ws.Event

	switch {
	case t.deleted:
		if err := t.store.DeleteOrder(ctx, o.ID); err != nil {
			return nil, fmt.Errorf("delete order: %w", err)
		}
		if err := freeTable(ctx, t.store, o.TableID); err != nil {
			return nil, err
		}
		ev = &ws.Event{Type: ws.EventOrderDeleted, OrderID: o.ID, Revision: o.Revision + 1}

	case !o.Changes().Empty():
		if err := persist(ctx, t.store, o, wasOpen); err != nil {
			return nil, err
		}
		ev = orderEvent(o, t.event, wasOpen)
	}

	if err := recordReplay(ctx, t.store, o.ID, t.itemID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	if wasOpen && !o.IsOpen() {
		log.WithFields(log.Fields{"order_id": o.ID, "table_id": o.TableID}).Info("order closed")
	}
	return ev, nil
}

func orderEvent(o *order.Order, eventType string, wasOpen bool) *ws.Event {
	switch {
	case wasOpen && !o.IsOpen():
		eventType = ws.EventOrderClosed
	case eventType == "":
		eventType = ws.EventOrderUpdated
	}
	payload, err := json.Marshal(Snapshot(o))
	if err != nil {
		log.WithError(err).WithField("order_id", o.ID).Warn("encode order event")
		payload = nil
	}
	return &ws.Event{Type: eventType, OrderID: o.ID, Revision: o.Revision, Payload: payload}
}

// --- Reads ---

// read runs fn in a read-only repeatable-read transaction so that the order,
// its lines and its ledger come from one committed snapshot.
func (c *Coordinator) read(ctx context.Context, fn func(ctx context.Context, st Store) error) error {
	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, c.newStore(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Load returns the committed state of an order.
func (c *Coordinator) Load(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	var o *order.Order
	err := c.read(ctx, func(ctx context.Context, st Store) error {
		row, err := st.GetOrder(ctx, orderID)
		if err != nil {
			if isNoRows(err) {
				return order.ErrNotFound
			}
			return fmt.Errorf("get order: %w", err)
		}
		o, err = loadOrder(ctx, st, row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// LoadByTable returns the open order of a table, or ErrNotFound.
func (c *Coordinator) LoadByTable(ctx context.Context, tableID uuid.UUID) (*order.Order, error) {
	var o *order.Order
	err := c.read(ctx, func(ctx context.Context, st Store) error {
		row, err := st.GetOpenOrderByTable(ctx, tableID)
		if err != nil {
			if isNoRows(err) {
				return order.ErrNotFound
			}
			return fmt.Errorf("get open order: %w", err)
		}
		o, err = loadOrder(ctx, st, row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// tableLabel reads a table's label for tickets. A missing table prints
// without one.
func tableLabel(ctx context.Context, st Store, tableID uuid.UUID) (string, error) {
	table, err := st.GetTable(ctx, tableID)
	if err != nil {
		return "", fmt.Errorf("get table: %w", err)
	}
	return table.Label, nil
}

// --- Replay bookkeeping ---

type replayKey struct{}

// withReplay marks ctx as carrying an offline mutation. Every commit made
// under it records the mutation's local id in the same transaction.
func withReplay(ctx context.Context, m order.Mutation) context.Context {
	return context.WithValue(ctx, replayKey{}, m)
}

// detach returns a context for work that follows a commit: it survives the
// caller hanging up and no longer records a replayed mutation.
func detach(ctx context.Context) context.Context {
	return context.WithValue(context.WithoutCancel(ctx), replayKey{}, nil)
}

func replayFrom(ctx context.Context) (order.Mutation, bool) {
	m, ok := ctx.Value(replayKey{}).(order.Mutation)
	return m, ok
}

func recordReplay(ctx context.Context, st Store, orderID, itemID uuid.UUID) error {
	m, ok := replayFrom(ctx)
	if !ok {
		return nil
	}
	params := database.CreateAppliedMutationParams{
		LocalID: m.LocalID,
		Kind:    m.Kind,
		OrderID: database.UUID(orderID),
		ItemID:  database.UUID(itemID),
		Outcome: enum.MutationOutcomeApplied,
	}
	if m.Kind == enum.MutationAddItem {
		params.ClientItemID = database.UUID(m.ClientItemID)
	}
	if _, err := st.CreateAppliedMutation(ctx, params); err != nil {
		return fmt.Errorf("record applied mutation: %w", err)
	}
	return nil
}
