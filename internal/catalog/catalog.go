// Package catalog resolves menu items for the order engine. The menu itself
// is managed elsewhere; this package only reads it.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
)

// ErrNotFound is returned for unknown or inactive menu items.
var ErrNotFound = errors.New("menu item not found")

// MenuItem is the subset of the menu the order engine needs.
type MenuItem struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	Routing  string          `json:"routing"`
	Category string          `json:"category"`
}

// Provider looks up menu items.
type Provider interface {
	GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error)
}

// MenuStore defines the DB methods needed by PostgresProvider.
// Satisfied by *database.Queries.
type MenuStore interface {
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
}

// PostgresProvider reads menu items straight from the menu_items table.
type PostgresProvider struct {
	store MenuStore
}

// NewPostgresProvider creates a new PostgresProvider.
func NewPostgresProvider(store MenuStore) *PostgresProvider {
	return &PostgresProvider{store: store}
}

func (p *PostgresProvider) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row, err := p.store.GetMenuItem(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MenuItem{}, ErrNotFound
		}
		return MenuItem{}, fmt.Errorf("get menu item: %w", err)
	}
	routing := row.Routing
	if routing != enum.DestinationBar {
		routing = enum.DestinationKitchen
	}
	return MenuItem{
		ID:       row.ID,
		Name:     row.Name,
		Price:    database.NumericToDecimal(row.Price),
		TaxRate:  database.NumericToDecimal(row.TaxRate),
		Routing:  routing,
		Category: row.Category.String,
	}, nil
}
