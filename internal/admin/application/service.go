package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/punjabheritage/storefront/internal/admin/domain"
	catalogdomain "github.com/punjabheritage/storefront/internal/catalog/domain"
	orderdomain "github.com/punjabheritage/storefront/internal/order/domain"
	pkglogger "github.com/punjabheritage/storefront/pkg/logger"
	"github.com/punjabheritage/storefront/pkg/middleware"
	"github.com/shopspring/decimal"
)

// AdminService handles back-office accounts and login.
type AdminService struct {
	repo      domain.AdminRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAdminService(repo domain.AdminRepository, jwtSecret string, tokenTTL time.Duration) *AdminService {
	return &AdminService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

type LoginCommand struct {
	Username string
	Password string
}

type AuthToken struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Login checks the credentials and issues a signed token. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *AdminService) Login(ctx context.Context, cmd LoginCommand) (*AuthToken, error) {
	admin, err := s.repo.GetByUsername(ctx, cmd.Username)
	if errors.Is(err, domain.ErrAdminNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !admin.CheckPassword(cmd.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := middleware.IssueToken(strconv.FormatUint(uint64(admin.ID), 10), admin.Role, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	pkglogger.Info(ctx, "admin logged in", "username", admin.Username)
	return &AuthToken{
		Token:     token,
		Type:      "Bearer",
		ExpiresAt: time.Now().Add(s.tokenTTL).Unix(),
	}, nil
}

type CreateAdminCommand struct {
	Username string
	Password string
	Role     string
}

func (s *AdminService) CreateAdmin(ctx context.Context, cmd CreateAdminCommand) (*domain.Admin, error) {
	if cmd.Username == "" || len(cmd.Password) < 8 {
		return nil, fmt.Errorf("%w: username and a password of 8+ characters required", domain.ErrInvalidCredentials)
	}
	admin := domain.NewAdmin(cmd.Username, cmd.Password, cmd.Role)
	if err := s.repo.Save(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// OrderLister is satisfied by the order application service.
type OrderLister interface {
	List(ctx context.Context) ([]orderdomain.Order, error)
}

// ProductCounter is satisfied by the catalog's database repository.
type ProductCounter interface {
	Count(ctx context.Context) (int64, error)
}

// FallbackReader is satisfied by the catalog's fallback store.
type FallbackReader interface {
	GetProducts(ctx context.Context) ([]catalogdomain.Product, error)
}

// AnalyticsService assembles the back-office summary across services.
type AnalyticsService struct {
	orders   OrderLister
	products ProductCounter
	fallback FallbackReader
}

func NewAnalyticsService(orders OrderLister, products ProductCounter, fallback FallbackReader) *AnalyticsService {
	return &AnalyticsService{orders: orders, products: products, fallback: fallback}
}

type AnalyticsSummary struct {
	TotalOrders        int                        `json:"totalOrders"`
	OrdersByStatus     map[orderdomain.Status]int `json:"ordersByStatus"`
	Revenue            float64                    `json:"revenue"`
	CollectedRevenue   float64                    `json:"collectedRevenue"`
	ProductsInDatabase int64                      `json:"productsInDatabase"`
	ProductsInFallback int                        `json:"productsInFallback"`
}

// Summary aggregates order counts by status, revenue totals and the
// product counts of both catalog stores. Store outages zero the affected
// figures instead of failing the report.
func (s *AnalyticsService) Summary(ctx context.Context) (*AnalyticsSummary, error) {
	summary := &AnalyticsSummary{
		OrdersByStatus: make(map[orderdomain.Status]int),
	}

	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders for analytics: %w", err)
	}
	summary.TotalOrders = len(orders)

	revenue := decimal.Zero
	collected := decimal.Zero
	for _, o := range orders {
		summary.OrdersByStatus[o.Status]++
		if o.Status == orderdomain.StatusCancelled {
			continue
		}
		total := decimal.NewFromFloat(o.Total)
		revenue = revenue.Add(total)
		if o.PaymentStatus == orderdomain.PaymentPaid {
			collected = collected.Add(total)
		}
	}
	summary.Revenue = revenue.Round(2).InexactFloat64()
	summary.CollectedRevenue = collected.Round(2).InexactFloat64()

	if n, err := s.products.Count(ctx); err != nil {
		pkglogger.Warn(ctx, "database product count unavailable for analytics", "error", err)
	} else {
		summary.ProductsInDatabase = n
	}
	if products, err := s.fallback.GetProducts(ctx); err != nil {
		pkglogger.Warn(ctx, "fallback product count unavailable for analytics", "error", err)
	} else {
		summary.ProductsInFallback = len(products)
	}
	return summary, nil
}
