package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/catalog"
	"github.com/tableside-pos/api/internal/config"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/dispatch"
	"github.com/tableside-pos/api/internal/handler"
	mw "github.com/tableside-pos/api/internal/middleware"
	"github.com/tableside-pos/api/internal/service"
	"github.com/tableside-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// menu serves both as the catalog for order lines and as the cache the menu
// handlers invalidate.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, menu *catalog.Cache, printer dispatch.Printer) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	coord := service.NewCoordinator(pool, func(db database.DBTX) service.Store {
		return database.New(db)
	}, hub)
	orderService := service.NewOrderService(coord, menu, printer)
	paymentService := service.NewPaymentService(coord)
	replayService := service.NewReplayService(coord, orderService, paymentService)

	orderHandler := handler.NewOrderHandler(orderService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	mutationHandler := handler.NewMutationHandler(replayService)
	tableHandler := handler.NewTableHandler(queries)
	menuHandler := handler.NewMenuHandler(queries, menu)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Route("/menu", menuHandler.RegisterRoutes)

		r.Route("/tables", func(r chi.Router) {
			tableHandler.RegisterRoutes(r)
			r.Route("/{tid}/order", orderHandler.RegisterTableRoutes)
		})

		r.Route("/orders", func(r chi.Router) {
			orderHandler.RegisterRoutes(r)
			paymentHandler.RegisterRoutes(r)
			mutationHandler.RegisterRoutes(r)
		})
	})

	log.Debug("router initialized")
	return r
}
