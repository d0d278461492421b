package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/littlelemon/api/internal/authz"
	"github.com/littlelemon/api/internal/config"
	"github.com/littlelemon/api/internal/database"
	"github.com/littlelemon/api/internal/handler"
	mw "github.com/littlelemon/api/internal/middleware"
	"github.com/littlelemon/api/internal/service"
	"github.com/littlelemon/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Catalog reads are public; everything else requires authentication,
// with staff and manager gates layered where needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, notifier handler.OrderNotifier) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, func(ctx context.Context, userID int64) (authz.Identity, error) {
			return mw.ResolveIdentity(ctx, queries, userID)
		}, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret, queries))

		// Catalog reads: any authenticated user, no role needed.
		// Category deletion is blocked for everyone, so its handler sits
		// here rather than behind the staff gate.
		categoryHandler := handler.NewCategoryHandler(queries)
		categoryHandler.RegisterReadRoutes(r)

		menuItemHandler := handler.NewMenuItemHandler(queries)
		menuItemHandler.RegisterReadRoutes(r)

		// Cart
		cartService := service.NewCartService(pool, func(db database.DBTX) service.CartStore {
			return database.New(db)
		})
		cartHandler := handler.NewCartHandler(queries, cartService)
		cartHandler.RegisterRoutes(r)

		// Orders
		orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
			return database.New(db)
		})
		orderHandler := handler.NewOrderHandler(queries, orderService, notifier)
		orderHandler.RegisterRoutes(r)

		// Staff-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireStaff)

			userHandler := handler.NewUserHandler(queries)
			userHandler.RegisterRoutes(r)

			categoryHandler.RegisterStaffRoutes(r)
			menuItemHandler.RegisterStaffRoutes(r)
		})

		// Manager-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireManager)

			groupHandler := handler.NewGroupHandler(queries)
			groupHandler.RegisterRoutes(r)
		})
	})

	return r
}
