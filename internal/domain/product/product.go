package product

import "errors"

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInventoryRace: stock changed between pricing and the conditional decrement.
	ErrInventoryRace = errors.New("stock changed while placing the order, please try again")
)

// Product là bản đọc của catalog. Price tính theo VND (không có đơn vị lẻ).
type Product struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Stock int    `json:"stock"`
	Sold  int    `json:"sold"`
}

func (p *Product) HasStock(quantity int) bool {
	return quantity <= p.Stock
}
