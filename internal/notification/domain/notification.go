// Package domain models one customer notification and the boundary to
// the delivery transports.
package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Channel string

const (
	ChannelEmail   Channel = "EMAIL"
	ChannelWebhook Channel = "WEBHOOK"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

// Notification is the delivery record. Every attempt is persisted so a
// failed confirmation can be found and replayed by support staff.
type Notification struct {
	gorm.Model
	OrderNumber  string     `gorm:"column:order_number;type:varchar(64);index;not null" json:"orderNumber"`
	Channel      Channel    `gorm:"column:channel;type:varchar(20);not null" json:"channel"`
	Recipient    string     `gorm:"column:recipient;type:varchar(255);not null" json:"recipient"`
	Subject      string     `gorm:"column:subject;type:varchar(255)" json:"subject"`
	Content      string     `gorm:"column:content;type:text" json:"content"`
	Status       Status     `gorm:"column:status;type:varchar(20);index;not null;default:'PENDING'" json:"status"`
	ErrorMessage string     `gorm:"column:error_message;type:text" json:"errorMessage,omitempty"`
	SentAt       *time.Time `gorm:"column:sent_at" json:"sentAt,omitempty"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) MarkSent(at time.Time) {
	n.Status = StatusSent
	n.SentAt = &at
	n.ErrorMessage = ""
}

func (n *Notification) MarkFailed(err error) {
	n.Status = StatusFailed
	n.ErrorMessage = err.Error()
}

// Sender delivers one message over one transport.
type Sender interface {
	Send(ctx context.Context, target, subject, content string) error
}

type NotificationRepository interface {
	Save(ctx context.Context, n *Notification) error
	FindByOrder(ctx context.Context, orderNumber string) ([]Notification, error)
}
