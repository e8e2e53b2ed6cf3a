package cart

import (
	"errors"
	"time"
)

var ErrInvalidQuantity = errors.New("quantity must not be negative")

type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Cart là giỏ hàng đang hoạt động của user, lưu ở cache chứ không phải DB.
type Cart struct {
	UserID    string    `json:"userId"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetItem đặt số lượng cho một sản phẩm; quantity 0 sẽ xoá dòng đó.
func (c *Cart) SetItem(productID string, quantity int, now time.Time) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	c.UpdatedAt = now
	for i, it := range c.Items {
		if it.ProductID != productID {
			continue
		}
		if quantity == 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
		c.Items[i].Quantity = quantity
		return nil
	}
	if quantity > 0 {
		c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity})
	}
	return nil
}
