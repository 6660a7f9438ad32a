package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/safar/go-storefront/internal/checkout"
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/store"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Catalog interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	ListProducts(ctx context.Context, categorySlug string) ([]models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	CreateProduct(ctx context.Context, params store.CreateProductParams) (*models.Product, error)
	SetStockOptimistic(ctx context.Context, productID int64, newStock, version int) error
}

type Orders interface {
	PlaceOrder(ctx context.Context, req checkout.PlaceOrderRequest) (int64, error)
	Order(ctx context.Context, viewerID, orderID int64) (*models.Order, error)
	Orders(ctx context.Context, userID int64) ([]models.Order, error)
	OrdersPage(ctx context.Context, userID int64, cursor string, limit int) (*store.CursorPage, error)
	AddLineItem(ctx context.Context, viewerID, orderID, productID int64, quantity int) (*models.OrderItem, error)
	MarkShipped(ctx context.Context, orderID int64) (*models.Order, error)
	ShipNext(ctx context.Context) (*models.Order, error)
	Restock(ctx context.Context, productID int64, quantity int) (int, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Config struct {
	TokenSecret    string
	AdminUserIDs   []int64
	LoginURL       string
	RequestTimeout time.Duration
}

type Server struct {
	catalog Catalog
	orders  Orders
	db      Pinger
	cfg     Config
	logger  *zap.Logger
	tracer  trace.Tracer
}

func NewServer(catalog Catalog, orders Orders, db Pinger, cfg Config, logger *zap.Logger, tp trace.TracerProvider) *Server {
	if cfg.LoginURL == "" {
		cfg.LoginURL = "/login"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	return &Server{
		catalog: catalog,
		orders:  orders,
		db:      db,
		cfg:     cfg,
		logger:  logger,
		tracer:  tp.Tracer("github.com/safar/go-storefront/internal/httpapi"),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Use(s.tracing, s.requestLogger, middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	r.Use(s.identity)

	r.Get("/healthz", s.healthz)

	r.Get("/categories", s.listCategories)
	r.Get("/products", s.listProducts)
	r.Get("/products/{slug}", s.getProduct)

	r.Post("/checkout", s.checkout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)
		r.Get("/orders", s.listOrders)
		r.Get("/orders/{id}", s.getOrder)
		r.Post("/orders/{id}/items", s.addLineItem)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireUser, s.requireAdmin)
		r.Post("/categories", s.createCategory)
		r.Post("/products", s.createProduct)
		r.Post("/products/{id}/restock", s.restock)
		r.Put("/products/{id}/stock", s.setStock)
		r.Post("/orders/{id}/ship", s.shipOrder)
		r.Post("/fulfilment/next", s.shipNext)
	})

	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
