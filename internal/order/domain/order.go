package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrEmptyOrder     = errors.New("order has no items")
	ErrInvalidOrder   = errors.New("order is missing required fields")
	ErrOrderNotFound  = errors.New("order not found")
	ErrInvalidStatus  = errors.New("invalid order status")
	ErrPaymentFailed  = errors.New("payment failed")
	ErrNoStorage      = errors.New("failed to save order to any storage")
	ErrInvalidPayment = errors.New("invalid payment method")
)

type PaymentMethod string

const (
	PaymentRazorpay     PaymentMethod = "razorpay"
	PaymentCOD          PaymentMethod = "cod"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentRazorpay, PaymentCOD, PaymentBankTransfer:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type Customer struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
	Phone string `bson:"phone" json:"phone"`
}

type Address struct {
	Line1      string `bson:"line1" json:"line1"`
	Line2      string `bson:"line2,omitempty" json:"line2,omitempty"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state" json:"state"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
}

// LineItem is a frozen copy of the purchased product. Orders never re-read
// the catalog: later price or name changes do not touch stored orders.
type LineItem struct {
	ProductID   string  `bson:"productId" json:"productId"`
	Name        string  `bson:"name" json:"name"`
	PunjabiName string  `bson:"punjabiName,omitempty" json:"punjabiName,omitempty"`
	Price       float64 `bson:"price" json:"price"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	Size        string  `bson:"size,omitempty" json:"size,omitempty"`
	Color       string  `bson:"color,omitempty" json:"color,omitempty"`
	Image       string  `bson:"image,omitempty" json:"image,omitempty"`
}

type Order struct {
	ObjectID primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	// ID mirrors the ObjectID hex, or a time-based surrogate when the
	// order only reached the fallback store.
	ID     string `bson:"id" json:"id"`
	Number string `bson:"orderNumber" json:"orderNumber"`
	UserID string `bson:"userId,omitempty" json:"userId,omitempty"`

	Customer        Customer   `bson:"customer" json:"customer"`
	ShippingAddress Address    `bson:"shippingAddress" json:"shippingAddress"`
	Items           []LineItem `bson:"items" json:"items"`

	Subtotal float64 `bson:"subtotal" json:"subtotal"`
	Shipping float64 `bson:"shipping" json:"shipping"`
	Tax      float64 `bson:"tax" json:"tax"`
	Total    float64 `bson:"total" json:"total"`

	PaymentMethod PaymentMethod `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	PaymentRef    string        `bson:"paymentRef,omitempty" json:"paymentRef,omitempty"`
	Status        Status        `bson:"status" json:"status"`

	TrackingNumber string `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	Notes          string `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Free shipping threshold and flat rate, in rupees.
const (
	freeShippingOver = 2000
	flatShippingRate = 99
	gstRatePercent   = 5
)

// NewOrder freezes the draft into an immutable snapshot: totals are
// computed once with decimal arithmetic and stored, the order number is
// minted from the clock plus the given suffix.
func NewOrder(userID string, customer Customer, addr Address, items []LineItem, method PaymentMethod, now time.Time, suffix string) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	if customer.Name == "" || customer.Email == "" {
		return nil, fmt.Errorf("%w: customer name and email", ErrInvalidOrder)
	}
	if addr.Line1 == "" || addr.City == "" || addr.PostalCode == "" {
		return nil, fmt.Errorf("%w: shipping address", ErrInvalidOrder)
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPayment, method)
	}
	for _, it := range items {
		if it.ProductID == "" || it.Quantity <= 0 || it.Price < 0 {
			return nil, fmt.Errorf("%w: line item %q", ErrInvalidOrder, it.ProductID)
		}
	}

	// Freeze the caller's lines: the snapshot must not alias a slice the
	// caller keeps mutating.
	items = append([]LineItem(nil), items...)

	subtotal := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(line)
	}

	shipping := decimal.NewFromInt(flatShippingRate)
	if subtotal.GreaterThanOrEqual(decimal.NewFromInt(freeShippingOver)) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(decimal.NewFromInt(gstRatePercent)).Div(decimal.NewFromInt(100)).Round(2)
	total := subtotal.Add(shipping).Add(tax).Round(2)

	ts := now.UTC()
	return &Order{
		Number:          Number(ts, suffix),
		UserID:          userID,
		Customer:        customer,
		ShippingAddress: addr,
		Items:           items,
		Subtotal:        subtotal.Round(2).InexactFloat64(),
		Shipping:        shipping.InexactFloat64(),
		Tax:             tax.InexactFloat64(),
		Total:           total.InexactFloat64(),
		PaymentMethod:   method,
		PaymentStatus:   PaymentPending,
		Status:          StatusPending,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}, nil
}

// Number mints an order number: PH-<millis>-<suffix>.
func Number(now time.Time, suffix string) string {
	return "PH-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + strings.ToUpper(suffix)
}

// SurrogateID is the fallback-only order id, minted from the clock like
// the catalog's.
func SurrogateID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}
