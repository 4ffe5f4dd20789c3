// Package service runs order operations against the database. Every write
// goes through one pipeline: take the per-order lock, load the order in a
// transaction with its row locked, apply the domain operation, persist the
// resulting changes, bump the revision and commit. Broadcasts and print jobs
// happen after the lock is released.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/ws"
)

// maxOpenOrderRetries bounds retries when two terminals open the same table.
const maxOpenOrderRetries = 3

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// OrderStore reads and writes orders, lines and supplements.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	GetOpenOrderByTable(ctx context.Context, tableID uuid.UUID) (database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrder(ctx context.Context, arg database.UpdateOrderParams) (database.Order, error)

	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	DeleteOrderItem(ctx context.Context, id uuid.UUID) error
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsByOrderRow, error)
	UpdateOrderItem(ctx context.Context, arg database.UpdateOrderItemParams) (database.OrderItem, error)

	CreateSupplement(ctx context.Context, arg database.CreateSupplementParams) (database.Supplement, error)
	ListSupplementsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Supplement, error)
	UpdateSupplement(ctx context.Context, arg database.UpdateSupplementParams) (database.Supplement, error)
}

// LedgerStore appends payments and settlement records.
// Satisfied by *database.Queries.
type LedgerStore interface {
	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	CreatePaymentItem(ctx context.Context, arg database.CreatePaymentItemParams) (database.PaymentItem, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
	ListPaymentItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.PaymentItem, error)
	CreateDailySale(ctx context.Context, arg database.CreateDailySaleParams) (database.DailySale, error)
}

// TableStore flips table occupancy.
// Satisfied by *database.Queries.
type TableStore interface {
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	GetTableForUpdate(ctx context.Context, id uuid.UUID) (database.Table, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) error
}

// MutationStore records replayed offline mutations.
// Satisfied by *database.Queries.
type MutationStore interface {
	CreateAppliedMutation(ctx context.Context, arg database.CreateAppliedMutationParams) (database.AppliedMutation, error)
	GetAppliedMutation(ctx context.Context, localID uuid.UUID) (database.AppliedMutation, error)
	ResolveClientItem(ctx context.Context, clientItemID pgtype.UUID) (pgtype.UUID, error)
}

// Store is everything a transaction needs.
type Store interface {
	OrderStore
	LedgerStore
	TableStore
	MutationStore
}

// NewStore creates a Store from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewStore func(db database.DBTX) Store

// Broadcaster fans committed order changes out to subscribed terminals.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(event ws.Event)
}

// --- Error helpers ---

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
