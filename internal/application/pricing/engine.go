package pricing

import (
	"context"
	"fmt"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/product"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/repository"
)

type LineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Result holds the price snapshot of each line plus the merchandise subtotal.
type Result struct {
	Items    []order.LineItem
	Subtotal int64
}

type Engine struct {
	products repository.ProductRepository
}

func NewEngine(products repository.ProductRepository) *Engine {
	return &Engine{products: products}
}

// PriceCart đọc giá hiện tại của từng sản phẩm và kiểm tra tồn kho. Không ghi gì cả.
// Các dòng trùng productId được gộp trước khi kiểm tra tồn kho.
// Nếu có dòng thiếu hàng thì luôn trả về ErrInsufficientStock, bất kể lỗi của dòng khác.
func (e *Engine) PriceCart(ctx context.Context, lines []LineRequest) (*Result, error) {
	if len(lines) == 0 {
		return nil, order.ErrEmptyItems
	}

	merged, lineErr := mergeLines(lines)

	var stockErr error
	res := &Result{Items: make([]order.LineItem, 0, len(merged))}
	for _, l := range merged {
		p, err := e.products.FindByID(ctx, l.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load product %s: %w", l.ProductID, err)
		}
		if p == nil {
			if lineErr == nil {
				lineErr = fmt.Errorf("%w: %s", product.ErrProductNotFound, l.ProductID)
			}
			continue
		}
		if !p.HasStock(l.Quantity) {
			if stockErr == nil {
				stockErr = fmt.Errorf("%w: %s (available %d)", product.ErrInsufficientStock, p.Name, p.Stock)
			}
			continue
		}

		item := order.LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  l.Quantity,
			Price:     p.Price,
		}
		res.Items = append(res.Items, item)
		res.Subtotal += item.Amount()
	}

	if stockErr != nil {
		return nil, stockErr
	}
	if lineErr != nil {
		return nil, lineErr
	}
	return res, nil
}

func mergeLines(lines []LineRequest) ([]LineRequest, error) {
	var firstErr error
	index := make(map[string]int, len(lines))
	merged := make([]LineRequest, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == "" {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: productId", order.ErrMissingField)
			}
			continue
		}
		if l.Quantity < 1 {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: %s", product.ErrInvalidQuantity, l.ProductID)
			}
			continue
		}
		if i, ok := index[l.ProductID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(merged)
		merged = append(merged, l)
	}
	return merged, firstErr
}
