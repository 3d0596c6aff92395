package domain

import (
	"errors"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNoStorage is returned when a write failed on the database and the
	// fallback store alike. It is the only hard failure in the catalog.
	ErrNoStorage = errors.New("failed to save product to any storage")
	// ErrProductNotFound is returned when an id matches neither store.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidProduct is returned for records failing validation.
	ErrInvalidProduct = errors.New("invalid product")
)

// Product categories sold by the storefront.
const (
	CategoryMen      = "men"
	CategoryWomen    = "women"
	CategoryKids     = "kids"
	CategoryPhulkari = "phulkari"
)

// Product is a catalog record. Its canonical identity is the Mongo ObjectID
// once a database insert succeeds; ID mirrors that as a hex string so the
// record stays addressable in the fallback store. When only the fallback
// store holds the record, ID carries a time-based surrogate instead.
type Product struct {
	ObjectID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ID                 string             `bson:"id" json:"id"`
	Name               string             `bson:"name" json:"name"`
	PunjabiName        string             `bson:"punjabiName" json:"punjabiName"`
	Description        string             `bson:"description" json:"description"`
	PunjabiDescription string             `bson:"punjabiDescription" json:"punjabiDescription"`
	Price              float64            `bson:"price" json:"price"`
	OriginalPrice      float64            `bson:"originalPrice" json:"originalPrice"`
	Category           string             `bson:"category" json:"category"`
	Subcategory        string             `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	Images             []string           `bson:"images" json:"images"`
	Colors             []string           `bson:"colors" json:"colors"`
	Sizes              []string           `bson:"sizes" json:"sizes"`
	Stock              int                `bson:"stock" json:"stock"`
	Rating             float64            `bson:"rating" json:"rating"`
	Reviews            int                `bson:"reviews" json:"reviews"`
	Badge              string             `bson:"badge,omitempty" json:"badge,omitempty"`
	BadgeEn            string             `bson:"badgeEn,omitempty" json:"badgeEn,omitempty"`
	IsActive           bool               `bson:"isActive" json:"isActive"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewProduct fills defaults the way admin product creation expects: the
// Punjabi description falls back to the English one and new products start
// with a seed rating.
func NewProduct(p Product) (*Product, error) {
	if p.Name == "" {
		return nil, ErrInvalidProduct
	}
	if !validCategory(p.Category) {
		return nil, ErrInvalidProduct
	}
	if p.Price < 0 || p.OriginalPrice < 0 || p.Stock < 0 {
		return nil, ErrInvalidProduct
	}
	if p.PunjabiDescription == "" {
		p.PunjabiDescription = p.Description
	}
	if p.Rating == 0 {
		p.Rating = 4.5
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	return &p, nil
}

// SurrogateID is the time-based placeholder identity a record gets when the
// database insert failed and only the fallback store holds it.
func SurrogateID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

func validCategory(c string) bool {
	switch c {
	case CategoryMen, CategoryWomen, CategoryKids, CategoryPhulkari:
		return true
	}
	return false
}

// Update carries a partial product edit. Nil fields are left untouched.
type Update struct {
	Name               *string   `json:"name,omitempty"`
	PunjabiName        *string   `json:"punjabiName,omitempty"`
	Description        *string   `json:"description,omitempty"`
	PunjabiDescription *string   `json:"punjabiDescription,omitempty"`
	Price              *float64  `json:"price,omitempty"`
	OriginalPrice      *float64  `json:"originalPrice,omitempty"`
	Category           *string   `json:"category,omitempty"`
	Subcategory        *string   `json:"subcategory,omitempty"`
	Images             *[]string `json:"images,omitempty"`
	Colors             *[]string `json:"colors,omitempty"`
	Sizes              *[]string `json:"sizes,omitempty"`
	Stock              *int      `json:"stock,omitempty"`
	Rating             *float64  `json:"rating,omitempty"`
	Reviews            *int      `json:"reviews,omitempty"`
	Badge              *string   `json:"badge,omitempty"`
	BadgeEn            *string   `json:"badgeEn,omitempty"`
	IsActive           *bool     `json:"isActive,omitempty"`
}

// Apply copies the set fields of u onto p and bumps UpdatedAt.
func (u Update) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.PunjabiName != nil {
		p.PunjabiName = *u.PunjabiName
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.PunjabiDescription != nil {
		p.PunjabiDescription = *u.PunjabiDescription
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.OriginalPrice != nil {
		p.OriginalPrice = *u.OriginalPrice
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Subcategory != nil {
		p.Subcategory = *u.Subcategory
	}
	if u.Images != nil {
		p.Images = *u.Images
	}
	if u.Colors != nil {
		p.Colors = *u.Colors
	}
	if u.Sizes != nil {
		p.Sizes = *u.Sizes
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Rating != nil {
		p.Rating = *u.Rating
	}
	if u.Reviews != nil {
		p.Reviews = *u.Reviews
	}
	if u.Badge != nil {
		p.Badge = *u.Badge
	}
	if u.BadgeEn != nil {
		p.BadgeEn = *u.BadgeEn
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}
	p.UpdatedAt = time.Now().UTC()
}
