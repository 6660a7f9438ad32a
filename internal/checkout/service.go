package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/events"
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const producerName = "storefront-api"

type Store interface {
	PlaceOrder(ctx context.Context, req store.PlaceOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrdersForUser(ctx context.Context, userID int64) ([]models.Order, error)
	ListOrdersCursor(ctx context.Context, userID int64, cursor string, limit int) (*store.CursorPage, error)
	AddLineItem(ctx context.Context, orderID, productID int64, quantity int) (*models.OrderItem, error)
	MarkShipped(ctx context.Context, orderID int64) (order *models.Order, transitioned bool, err error)
	ShipNextPending(ctx context.Context) (*models.Order, error)
	Restock(ctx context.Context, productID int64, quantity int) (int, error)
}

// IdempotencyStore remembers which order a checkout key produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, owner, key string) (int64, bool, error)
	Remember(ctx context.Context, owner, key string, orderID int64) error
}

type Policy struct {
	RequireLogin bool
}

type Service struct {
	store       Store
	publisher   events.Publisher
	idempotency IdempotencyStore
	policy      Policy
	logger      *zap.Logger
	tracer      trace.Tracer
}

type Option func(*Service)

// WithIdempotency enables Idempotency-Key handling.
func WithIdempotency(s IdempotencyStore) Option {
	return func(svc *Service) { svc.idempotency = s }
}

func WithPublisher(p events.Publisher) Option {
	return func(svc *Service) { svc.publisher = p }
}

func NewService(st Store, policy Policy, logger *zap.Logger, tp trace.TracerProvider, opts ...Option) *Service {
	svc := &Service{
		store:     st,
		publisher: events.Nop{},
		policy:    policy,
		logger:    logger,
		tracer:    tp.Tracer("github.com/safar/go-storefront/internal/checkout"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type Line struct {
	ProductID int64
	Quantity  int
}

type PlaceOrderRequest struct {
	UserID         *int64
	ContactEmail   string
	Lines          []Line
	IdempotencyKey string
}

// PlaceOrder validates the cart, applies the login policy and places the
// order atomically. It returns the new order id, or the id of the order an
// earlier request with the same idempotency key produced.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (orderID int64, err error) {
	ctx, span := s.tracer.Start(ctx, "checkout.PlaceOrder",
		trace.WithAttributes(attribute.Int("cart.lines", len(req.Lines))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int64("order.id", orderID))
		}
		span.End()
	}()

	if err := validateLines(req.Lines); err != nil {
		return 0, err
	}

	addr, err := mail.ParseAddress(strings.TrimSpace(req.ContactEmail))
	if err != nil {
		return 0, fmt.Errorf("%w: contact email %q is not a valid address", ErrInvalidRequest, req.ContactEmail)
	}
	email := addr.Address

	if s.policy.RequireLogin && req.UserID == nil {
		return 0, ErrUnauthorized
	}

	owner := idempotencyOwner(req.UserID, email)
	key := strings.TrimSpace(req.IdempotencyKey)
	if len(key) > 255 {
		return 0, fmt.Errorf("%w: idempotency key longer than 255 characters", ErrInvalidRequest)
	}
	useKey := key != "" && s.idempotency != nil

	if useKey {
		existing, found, err := s.idempotency.Lookup(ctx, owner, key)
		if err != nil {
			return 0, s.storageFailure("lookup idempotency key", err)
		}
		if found {
			s.logger.Info("checkout replayed",
				zap.Int64("order_id", existing),
				zap.String("idempotency_key", key),
			)
			span.SetAttributes(attribute.Bool("checkout.replayed", true))
			return existing, nil
		}
	}

	lines := make([]store.OrderLine, len(req.Lines))
	for i, line := range req.Lines {
		lines[i] = store.OrderLine{ProductID: line.ProductID, Quantity: line.Quantity}
	}

	order, err := s.store.PlaceOrder(ctx, store.PlaceOrderRequest{
		UserID:       req.UserID,
		ContactEmail: email,
		Lines:        lines,
	})
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return 0, ErrUnauthorized
		}
		return 0, s.classify("place order", err)
	}

	s.logger.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.Total.StringFixed(2)),
	)

	if useKey {
		if err := s.idempotency.Remember(ctx, owner, key, order.ID); err != nil {
			s.logger.Warn("remember idempotency key", zap.Int64("order_id", order.ID), zap.Error(err))
		}
	}

	s.publish(ctx, events.EventOrderPlaced, order.ID, orderPlacedPayload(order))

	return order.ID, nil
}

func validateLines(lines []Line) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: cart is empty", ErrInvalidRequest)
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: quantity for product %d must be positive", ErrInvalidRequest, line.ProductID)
		}
	}
	return nil
}

func idempotencyOwner(userID *int64, email string) string {
	if userID != nil {
		return "user:" + strconv.FormatInt(*userID, 10)
	}
	return "guest:" + strings.ToLower(email)
}

// Order returns the order when viewerID owns it. Orders of other users, and
// orders whose owner was deleted, are reported as not found.
func (s *Service) Order(ctx context.Context, viewerID, orderID int64) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, s.classify("get order", err)
	}
	if order.UserID == nil || *order.UserID != viewerID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) Orders(ctx context.Context, userID int64) ([]models.Order, error) {
	orders, err := s.store.ListOrdersForUser(ctx, userID)
	if err != nil {
		return nil, s.classify("list orders", err)
	}
	return orders, nil
}

func (s *Service) OrdersPage(ctx context.Context, userID int64, cursor string, limit int) (*store.CursorPage, error) {
	if _, err := store.DecodeCursor(cursor); err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", ErrInvalidRequest)
	}

	page, err := s.store.ListOrdersCursor(ctx, userID, cursor, limit)
	if err != nil {
		return nil, s.classify("list orders page", err)
	}
	return page, nil
}

// AddLineItem appends a product to one of the viewer's unshipped orders.
func (s *Service) AddLineItem(ctx context.Context, viewerID, orderID, productID int64, quantity int) (*models.OrderItem, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.AddLineItem", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("product.id", productID),
	))
	defer span.End()

	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidRequest)
	}

	order, err := s.Order(ctx, viewerID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Shipped {
		return nil, fmt.Errorf("%w: id %d", ErrOrderShipped, orderID)
	}

	item, err := s.store.AddLineItem(ctx, orderID, productID, quantity)
	if err != nil {
		span.RecordError(err)
		return nil, s.classify("add line item", err)
	}
	return item, nil
}

// MarkShipped flags an order as shipped. Only the call that changed the
// order publishes, however many race on it.
func (s *Service) MarkShipped(ctx context.Context, orderID int64) (*models.Order, error) {
	order, transitioned, err := s.store.MarkShipped(ctx, orderID)
	if err != nil {
		return nil, s.classify("mark shipped", err)
	}

	if transitioned {
		s.publish(ctx, events.EventOrderShipped, order.ID, events.OrderShippedPayload{OrderID: order.ID})
	}
	return order, nil
}

// ShipNext claims the oldest pending order for a fulfilment worker.
func (s *Service) ShipNext(ctx context.Context) (*models.Order, error) {
	order, err := s.store.ShipNextPending(ctx)
	if err != nil {
		return nil, s.classify("ship next pending", err)
	}

	s.publish(ctx, events.EventOrderShipped, order.ID, events.OrderShippedPayload{OrderID: order.ID})
	return order, nil
}

func (s *Service) Restock(ctx context.Context, productID int64, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("%w: restock quantity must be positive", ErrInvalidRequest)
	}

	available, err := s.store.Restock(ctx, productID, quantity)
	if err != nil {
		return 0, s.classify("restock", err)
	}

	s.publish(ctx, events.EventInventoryRestocked, productID, events.InventoryRestockedPayload{
		ProductID:         productID,
		Added:             quantity,
		AvailableQuantity: available,
	})
	return available, nil
}

func (s *Service) classify(op string, err error) error {
	if isDomainError(err) || errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, database.ErrInvalidQuantity) || errors.Is(err, database.ErrEmptyOrder) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return s.storageFailure(op, err)
}

func (s *Service) storageFailure(op string, err error) error {
	s.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}

func (s *Service) publish(ctx context.Context, eventType string, correlationID int64, payload any) {
	env, err := events.New(eventType, producerName, correlationID, payload)
	if err == nil {
		err = s.publisher.Publish(ctx, env)
	}
	if err != nil {
		s.logger.Warn("publish event",
			zap.String("event_type", eventType),
			zap.Int64("correlation_id", correlationID),
			zap.Error(err),
		)
	}
}

func orderPlacedPayload(order *models.Order) events.OrderPlacedPayload {
	lines := make([]events.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		var productID int64
		if item.ProductID != nil {
			productID = *item.ProductID
		}
		lines = append(lines, events.OrderLine{
			ProductID:           productID,
			Quantity:            item.Quantity,
			UnitPriceAtPurchase: item.UnitPriceAtPurchase,
		})
	}

	return events.OrderPlacedPayload{
		OrderID:      order.ID,
		UserID:       order.UserID,
		ContactEmail: order.ContactEmail,
		Items:        lines,
		Total:        order.Total,
	}
}
