package application

import (
	"context"
	"fmt"
	"time"

	"github.com/punjabheritage/storefront/internal/notification/domain"
	pkglogger "github.com/punjabheritage/storefront/pkg/logger"
)

// OrderCreatedMessage is the bus payload this service consumes. It mirrors
// the order service's published shape without importing it.
type OrderCreatedMessage struct {
	Event         string    `json:"event"`
	Number        string    `json:"orderNumber"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	Total         float64   `json:"total"`
	PaymentMethod string    `json:"paymentMethod"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Service turns order events into customer notifications. Delivery is
// best effort: a failed send is recorded and logged, never bubbled back
// into the order flow.
type Service struct {
	repo       domain.NotificationRepository
	email      domain.Sender
	webhook    domain.Sender
	webhookURL string
	now        func() time.Time
}

func NewService(repo domain.NotificationRepository, email, webhook domain.Sender, webhookURL string) *Service {
	return &Service{
		repo:       repo,
		email:      email,
		webhook:    webhook,
		webhookURL: webhookURL,
		now:        time.Now,
	}
}

// HandleOrderCreated sends the confirmation email to the customer and, when
// a webhook is configured, pings the back-office channel.
func (s *Service) HandleOrderCreated(ctx context.Context, msg OrderCreatedMessage) {
	subject, content := confirmationMessage(msg)

	s.deliver(ctx, &domain.Notification{
		OrderNumber: msg.Number,
		Channel:     domain.ChannelEmail,
		Recipient:   msg.CustomerEmail,
		Subject:     subject,
		Content:     content,
		Status:      domain.StatusPending,
	}, s.email)

	if s.webhook != nil && s.webhookURL != "" {
		s.deliver(ctx, &domain.Notification{
			OrderNumber: msg.Number,
			Channel:     domain.ChannelWebhook,
			Recipient:   s.webhookURL,
			Subject:     "New order " + msg.Number,
			Content:     fmt.Sprintf("%s placed an order for ₹%.2f (%s)", msg.CustomerName, msg.Total, msg.PaymentMethod),
			Status:      domain.StatusPending,
		}, s.webhook)
	}
}

func (s *Service) deliver(ctx context.Context, n *domain.Notification, via domain.Sender) {
	if via == nil || n.Recipient == "" {
		return
	}

	if err := via.Send(ctx, n.Recipient, n.Subject, n.Content); err != nil {
		pkglogger.Warn(ctx, "notification delivery failed", "order", n.OrderNumber, "channel", string(n.Channel), "error", err)
		n.MarkFailed(err)
	} else {
		n.MarkSent(s.now().UTC())
	}

	if s.repo == nil {
		return
	}
	if err := s.repo.Save(ctx, n); err != nil {
		pkglogger.Warn(ctx, "failed to record notification", "order", n.OrderNumber, "error", err)
	}
}

// History lists every delivery attempt for an order.
func (s *Service) History(ctx context.Context, orderNumber string) ([]domain.Notification, error) {
	return s.repo.FindByOrder(ctx, orderNumber)
}

func confirmationMessage(msg OrderCreatedMessage) (string, string) {
	subject := fmt.Sprintf("Order %s confirmed | ਆਰਡਰ ਪੱਕਾ ਹੋ ਗਿਆ", msg.Number)
	content := fmt.Sprintf(
		"Sat Sri Akal %s,\n\n"+
			"Thank you for shopping with Punjab Heritage.\n"+
			"Order number: %s\n"+
			"Total: ₹%.2f\n"+
			"Payment: %s\n\n"+
			"We will write again when your order ships.",
		msg.CustomerName, msg.Number, msg.Total, msg.PaymentMethod,
	)
	return subject, content
}
