package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/auth"
	"github.com/tableside-pos/api/internal/config"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
)

type seedItem struct {
	name     string
	price    string
	routing  string
	category string
}

var defaultMenu = []seedItem{
	{"Burrata", "11.00", enum.DestinationKitchen, "starters"},
	{"Carbonara", "15.00", enum.DestinationKitchen, "mains"},
	{"Risotto ai funghi", "18.00", enum.DestinationKitchen, "mains"},
	{"Tiramisu", "7.50", enum.DestinationKitchen, "desserts"},
	{"Negroni", "9.00", enum.DestinationBar, "drinks"},
	{"Chianti (glass)", "7.50", enum.DestinationBar, "drinks"},
	{"Espresso", "2.00", enum.DestinationBar, "drinks"},
}

func main() {
	// CLI flags
	tables := flag.Int("tables", 0, "Number of tables to create (T1..Tn)")
	withMenu := flag.Bool("menu", true, "Seed a sample menu when the menu is empty")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Fall back to environment variables, then defaults
	if *tables == 0 {
		fmt.Sscanf(os.Getenv("SEED_TABLES"), "%d", tables)
	}
	if *tables == 0 {
		*tables = 12
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Info("Connected to database")

	// Seed in a transaction (tables and menu or neither)
	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)
	q := database.New(pool).WithTx(tx)

	if err := seedTables(ctx, q, *tables); err != nil {
		log.Fatalf("Failed to seed tables: %v", err)
	}
	if *withMenu {
		if err := seedMenu(ctx, tx, q); err != nil {
			log.Fatalf("Failed to seed menu: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}
	log.Info("Seed completed successfully")

	printTokens(cfg.JWTSecret)
}

// seedTables creates T1..Tn. Existing labels are kept.
func seedTables(ctx context.Context, q *database.Queries, n int) error {
	for i := 1; i <= n; i++ {
		t, err := q.CreateTable(ctx, fmt.Sprintf("T%d", i))
		if err != nil {
			return fmt.Errorf("create table T%d: %w", i, err)
		}
		log.WithFields(log.Fields{"table": t.Label, "id": t.ID}).Debug("table ready")
	}
	log.Infof("Seeded %d tables", n)
	return nil
}

// seedMenu inserts the sample menu only when no active item exists.
func seedMenu(ctx context.Context, tx pgx.Tx, q *database.Queries) error {
	var count int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM menu_items WHERE is_active = true`).Scan(&count); err != nil {
		return fmt.Errorf("count menu items: %w", err)
	}
	if count > 0 {
		log.Infof("Menu already has %d items, skipping", count)
		return nil
	}

	for _, it := range defaultMenu {
		m, err := q.CreateMenuItem(ctx, database.CreateMenuItemParams{
			Name:     it.name,
			Price:    database.DecimalToNumeric(decimal.RequireFromString(it.price)),
			TaxRate:  database.DecimalToNumeric(decimal.NewFromInt(10)),
			Routing:  it.routing,
			Category: database.Text(it.category),
		})
		if err != nil {
			return fmt.Errorf("create menu item %s: %w", it.name, err)
		}
		log.WithFields(log.Fields{"name": m.Name, "id": m.ID}).Debug("menu item created")
	}
	log.Infof("Seeded %d menu items", len(defaultMenu))
	return nil
}

// printTokens prints development tokens for a manager, a server and a sync
// agent. Login is handled outside this service.
func printTokens(secret string) {
	manager, err := auth.GenerateToken(secret, uuid.New(), enum.UserRoleManager)
	if err != nil {
		log.Fatalf("Failed to mint manager token: %v", err)
	}
	server, err := auth.GenerateToken(secret, uuid.New(), enum.UserRoleServer)
	if err != nil {
		log.Fatalf("Failed to mint server token: %v", err)
	}
	device, err := auth.GenerateDeviceToken(secret, uuid.New(), enum.UserRoleServer)
	if err != nil {
		log.Fatalf("Failed to mint device token: %v", err)
	}

	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("MANAGER_TOKEN=%s\n", manager)
	fmt.Printf("SERVER_TOKEN=%s\n", server)
	fmt.Printf("API_TOKEN=%s  # for syncd\n", device)
}
