package handlers

import (
	"context"
	"time"

	"printshop/internal/models"
	"printshop/internal/services"

	"github.com/google/uuid"
)

// ----- Orders -----

type OrderService interface {
	FinalizeOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error)
	PreviewCost(ctx context.Context, req *models.CostPreviewRequest) (*models.CostPreview, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetUserOrders(ctx context.Context, userID uuid.UUID, filter services.OrderFilter) ([]*models.Order, error)
	ListOrders(ctx context.Context, status *models.OrderStatus, limit, offset int) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus models.OrderStatus) (models.OrderStatus, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
	UpdateAmount(ctx context.Context, orderID uuid.UUID, amount float64) (*models.Order, error)
	UpdateDiscountApplied(ctx context.Context, orderID uuid.UUID, discountApplied float64) (*models.Order, error)
}

// ----- Discounts -----

type DiscountService interface {
	CreateDiscountCode(ctx context.Context, req *models.CreateDiscountCodeRequest) (*models.DiscountCode, error)
	DeleteDiscountCode(ctx context.Context, codeID uuid.UUID) (*models.DiscountCode, error)
	ListDiscountCodes(ctx context.Context, limit, offset int) ([]*models.DiscountCode, error)
	ResolveDiscount(ctx context.Context, code string) (*models.DiscountCode, error)
}

// ----- Users & auth -----

type AuthService interface {
	Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	AdminLogin(password string) (string, error)
}

type UserService interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type TokenValidator interface {
	ValidateToken(token string) (*services.TokenClaims, error)
}

// ----- Events & cache -----

type EventProducer interface {
	PublishOrderCreated(order *models.Order) error
	PublishOrderStatusChanged(orderID uuid.UUID, oldStatus, newStatus models.OrderStatus) error
	PublishOrderDeleted(orderID uuid.UUID) error
	PublishDiscountCreated(code *models.DiscountCode) error
	PublishDiscountDeleted(codeID uuid.UUID, code string) error
	PublishUserDeleted(userID uuid.UUID) error
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// ----- Health -----

type DBHealth interface {
	Health() error
}

type RedisHealth interface {
	Health(ctx context.Context) error
}
