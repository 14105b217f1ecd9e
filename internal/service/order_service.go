package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrProductUnavailable = errors.New("product is unavailable")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrPriceMissing       = errors.New("product has no price")
)

// OrderService defines the interface for order business logic
type OrderService interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*domain.Order, error)
	GetOrder(ctx context.Context, userID uuid.UUID, role string, orderID uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	publisher events.Publisher
	logger    *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// Checkout converts the user's cart into a pending order. Every line is
// validated against the current product row, unit prices are snapshotted,
// and the order insert, stock decrements and cart cleanup commit as one
// transaction. A stock level that changes between validation and commit
// rolls the whole order back.
func (s *orderService) Checkout(ctx context.Context, userID uuid.UUID) (*domain.Order, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	order := &domain.Order{
		ID:          uuid.New(),
		UserID:      userID,
		TotalAmount: decimal.Zero,
		Status:      domain.OrderStatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	for _, item := range items {
		product := item.Product
		if !product.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, product.Name)
		}
		if !product.Price.Valid {
			return nil, fmt.Errorf("%w: %s", ErrPriceMissing, product.Name)
		}
		if product.Stock < item.Quantity {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, product.Name)
		}

		unitPrice := product.Price.Decimal
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))

		order.Items = append(order.Items, &domain.OrderItem{
			ID:         uuid.New(),
			OrderID:    order.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  unitPrice,
			TotalPrice: lineTotal,
			CreatedAt:  order.CreatedAt,
			Product:    product,
		})
		order.TotalAmount = order.TotalAmount.Add(lineTotal)
	}

	if err := s.orderRepo.Place(ctx, order); err != nil {
		var conflict *repository.StockConflictError
		if errors.As(err, &conflict) {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, conflict.ProductName)
		}
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	placed, err := s.orderRepo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load placed order: %w", err)
	}

	// The order is committed at this point; a publish failure must not
	// undo the checkout
	if err := s.publisher.OrderCreated(ctx, placed); err != nil {
		s.logger.Error("failed to publish order created event",
			zap.String("order_id", placed.ID.String()),
			zap.Error(err))
	}

	return placed, nil
}

// GetOrder retrieves an order. Buyers only see their own orders; admins
// see any order.
func (s *orderService) GetOrder(ctx context.Context, userID uuid.UUID, role string, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order.UserID != userID && role != domain.RoleAdmin {
		// Foreign orders stay indistinguishable from missing ones
		return nil, repository.ErrOrderNotFound
	}

	return order, nil
}

// ListOrders returns a page of the user's orders, newest first
func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error) {
	page, pageSize = NormalizePage(page, pageSize)

	orders, total, err := s.orderRepo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}
