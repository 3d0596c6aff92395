// Package payment holds the payment gateway boundary. The real provider
// is an external collaborator; the mock gateway stands in for it in every
// non-production environment.
package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/punjabheritage/storefront/internal/order/domain"
	pkglogger "github.com/punjabheritage/storefront/pkg/logger"
)

type mockGateway struct{}

// NewMockGateway approves every charge and mints a fake transaction
// reference.
func NewMockGateway() domain.PaymentGateway {
	return &mockGateway{}
}

func (g *mockGateway) Charge(ctx context.Context, orderNumber string, amount float64, method domain.PaymentMethod) (string, error) {
	ref := "txn_" + uuid.NewString()
	pkglogger.Info(ctx, "mock payment approved", "order", orderNumber, "amount", amount, "method", string(method), "ref", ref)
	return ref, nil
}
