package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/model"
	"storefront/internal/promo"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type orderService struct {
	orderRepo repository.OrderRepository
	products  ProductLookup
	validator promo.Validator
	logger    zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	products ProductLookup,
	validator promo.Validator,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		products:  products,
		validator: validator,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

func (s *orderService) PlaceOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	var promoCode *string
	if req.PromoCode != nil {
		if code := strings.TrimSpace(*req.PromoCode); code != "" {
			if err := s.validator.Validate(ctx, code); err != nil {
				s.logger.Warn().Str("promo_code", code).Err(err).Msg("invalid promo code")
				return nil, err
			}
			promoCode = &code
		}
	}

	now := time.Now().UTC()
	order := &model.Order{
		ID:        uuid.New(),
		SessionID: req.SessionID,
		PromoCode: promoCode,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, line := range req.Items {
		product, err := s.products.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, model.ErrProductNotFound) {
				s.logger.Warn().Int64("product_id", line.ProductID).Msg("ordered product no longer exists")
				return nil, model.ErrProductNotFound
			}
			return nil, fmt.Errorf("failed to look up product %d: %w", line.ProductID, err)
		}
		if product.Stock < line.Quantity {
			s.logger.Warn().
				Int64("product_id", line.ProductID).
				Int("stock", product.Stock).
				Int("quantity", line.Quantity).
				Msg("insufficient stock")
			return nil, model.ErrInsufficientStock
		}

		order.Items = append(order.Items, model.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    line.Quantity,
		})
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
		return nil, fmt.Errorf("failed to store order items: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("session_id", order.SessionID.String()).
		Int("item_count", order.ItemCount()).
		Float64("total", order.Total()).
		Msg("order placed")

	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, viewer model.Viewer) (*model.OrderList, error) {
	var sessionID *uuid.UUID
	if !viewer.Admin {
		sessionID = &viewer.SessionID
	}

	orders, err := s.orderRepo.List(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &model.OrderList{Orders: orders, IsAdmin: viewer.Admin}, nil
}

func (s *orderService) GetByID(ctx context.Context, viewer model.Viewer, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, nil
	}

	if !viewer.Admin && order.SessionID != viewer.SessionID {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("session_id", viewer.SessionID.String()).
			Msg("order requested by another session")
		return nil, nil
	}

	return order, nil
}

func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return fmt.Errorf("order request is nil")
	}
	if len(req.Items) == 0 {
		return model.ErrEmptyCart
	}

	for i, item := range req.Items {
		if item.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Int64("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
	}

	return nil
}
