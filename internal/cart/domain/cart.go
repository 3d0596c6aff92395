package domain

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrInsufficientStock = errors.New("requested quantity exceeds available stock")
	ErrItemNotFound      = errors.New("cart item not found")
	ErrCartRejected      = errors.New("cart mutation rejected by server")
)

// Item is the wire and local-storage shape of one cart line. A line is
// identified by the product id plus the chosen size and color; the same
// product in a different size or color is a separate line.
type Item struct {
	ProductID   string  `json:"id"`
	Name        string  `json:"name"`
	PunjabiName string  `json:"punjabiName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Size        string  `json:"size,omitempty"`
	Color       string  `json:"color,omitempty"`
	Image       string  `json:"image,omitempty"`
	Stock       int     `json:"stock"`
}

func (i Item) Matches(productID, size, color string) bool {
	return i.ProductID == productID && i.Size == size && i.Color == color
}

// clampQuantity caps the quantity at the line's known stock. A zero stock
// means the stock is unknown and no cap applies.
func clampQuantity(qty, stock int) int {
	if stock > 0 && qty > stock {
		return stock
	}
	return qty
}

// MergeItem folds the item into the list: an existing line with the same
// composite identity has its quantity incremented, otherwise a new line is
// appended. Quantities are capped at the line's stock.
func MergeItem(items []Item, it Item) []Item {
	for idx := range items {
		if items[idx].Matches(it.ProductID, it.Size, it.Color) {
			items[idx].Quantity = clampQuantity(items[idx].Quantity+it.Quantity, items[idx].Stock)
			return items
		}
	}
	it.Quantity = clampQuantity(it.Quantity, it.Stock)
	return append(items, it)
}

// SetQuantity replaces the line's quantity. Zero or negative removes the
// line entirely.
func SetQuantity(items []Item, productID, size, color string, qty int) []Item {
	if qty <= 0 {
		return RemoveLine(items, productID, size, color)
	}
	for idx := range items {
		if items[idx].Matches(productID, size, color) {
			items[idx].Quantity = clampQuantity(qty, items[idx].Stock)
			break
		}
	}
	return items
}

// RemoveLine drops the line matching the composite identity.
func RemoveLine(items []Item, productID, size, color string) []Item {
	for idx := range items {
		if items[idx].Matches(productID, size, color) {
			return append(items[:idx], items[idx+1:]...)
		}
	}
	return items
}

// Totals derives the item count and total price from the list.
func Totals(items []Item) (count int, total float64) {
	for _, it := range items {
		count += it.Quantity
		total += it.Price * float64(it.Quantity)
	}
	return count, total
}

// Cart is the server-side aggregate, one row per user.
type Cart struct {
	gorm.Model
	UserID string     `gorm:"column:user_id;type:varchar(36);uniqueIndex;not null"`
	Items  []CartItem `gorm:"foreignKey:CartID"`
}

func (Cart) TableName() string { return "carts" }

type CartItem struct {
	gorm.Model
	CartID      uint    `gorm:"column:cart_id;index;not null"`
	ProductID   string  `gorm:"column:product_id;type:varchar(36);not null"`
	Size        string  `gorm:"column:size;type:varchar(16)"`
	Color       string  `gorm:"column:color;type:varchar(32)"`
	Name        string  `gorm:"column:name;type:varchar(255);not null"`
	PunjabiName string  `gorm:"column:punjabi_name;type:varchar(255)"`
	Image       string  `gorm:"column:image;type:varchar(512)"`
	Price       float64 `gorm:"column:price;type:decimal(12,2);not null"`
	Quantity    int     `gorm:"column:quantity;not null"`
	Stock       int     `gorm:"column:stock;not null"`
}

func (CartItem) TableName() string { return "cart_items" }

// Snapshot renders the aggregate as the wire item list.
func (c *Cart) Snapshot() []Item {
	items := make([]Item, 0, len(c.Items))
	for _, row := range c.Items {
		items = append(items, Item{
			ProductID:   row.ProductID,
			Name:        row.Name,
			PunjabiName: row.PunjabiName,
			Price:       row.Price,
			Quantity:    row.Quantity,
			Size:        row.Size,
			Color:       row.Color,
			Image:       row.Image,
			Stock:       row.Stock,
		})
	}
	return items
}

// Replace rebuilds the aggregate's rows from the item list, preserving row
// ids for lines that survive so GORM updates instead of reinserting them.
func (c *Cart) Replace(items []Item) {
	existing := make(map[string]CartItem, len(c.Items))
	for _, row := range c.Items {
		existing[row.ProductID+"|"+row.Size+"|"+row.Color] = row
	}

	rows := make([]CartItem, 0, len(items))
	for _, it := range items {
		row := CartItem{
			CartID:      c.ID,
			ProductID:   it.ProductID,
			Size:        it.Size,
			Color:       it.Color,
			Name:        it.Name,
			PunjabiName: it.PunjabiName,
			Image:       it.Image,
			Price:       it.Price,
			Quantity:    it.Quantity,
			Stock:       it.Stock,
		}
		if prev, ok := existing[it.ProductID+"|"+it.Size+"|"+it.Color]; ok {
			row.Model = prev.Model
		}
		rows = append(rows, row)
	}
	c.Items = rows
}

func (c *Cart) Total() float64 {
	_, total := Totals(c.Snapshot())
	return total
}
