package order

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/promotion"
)

// LineItem is immutable once the order exists. Price is the unit price captured at checkout
// and must never be recomputed from the live catalog.
type LineItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

func (l LineItem) Amount() int64 {
	return l.Price * int64(l.Quantity)
}

// ShippingInfo là bản sao địa chỉ giao hàng tại thời điểm đặt.
type ShippingInfo struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Ward     string `json:"ward,omitempty"`
	District string `json:"district,omitempty"`
	Province string `json:"province"`
	Note     string `json:"note,omitempty"`
}

func (s ShippingInfo) Validate() error {
	if strings.TrimSpace(s.FullName) == "" ||
		strings.TrimSpace(s.Phone) == "" ||
		strings.TrimSpace(s.Address) == "" ||
		strings.TrimSpace(s.Province) == "" {
		return ErrMissingShipping
	}
	return nil
}

type Order struct {
	ID            string              `json:"id"`
	Code          string              `json:"orderCode"`
	UserID        string              `json:"userId"`
	Items         []LineItem          `json:"items"`
	Shipping      ShippingInfo        `json:"shippingInfo"`
	PaymentMethod PaymentMethod       `json:"paymentMethod"`
	Status        Status              `json:"status"`
	PaymentStatus PaymentStatus       `json:"paymentStatus"`
	IsPaid        bool                `json:"isPaid"`
	PaidAt        *time.Time          `json:"paidAt,omitempty"`
	Subtotal      int64               `json:"subtotal"`
	ShippingFee   int64               `json:"shippingFee"`
	Discount      int64               `json:"discount"`
	Total         int64               `json:"total"`
	Promotion     *promotion.Snapshot `json:"promotion,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

type NewOrderParams struct {
	UserID        string
	Items         []LineItem
	Shipping      ShippingInfo
	PaymentMethod PaymentMethod
	ShippingFee   int64
	Discount      int64
	Promotion     *promotion.Snapshot
	Now           time.Time
}

// NewOrder builds a pending, unpaid order. Total = max(0, subtotal - discount + shippingFee).
func NewOrder(p NewOrderParams) (*Order, error) {
	if p.UserID == "" {
		return nil, ErrMissingField
	}
	if len(p.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if !p.PaymentMethod.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	if err := p.Shipping.Validate(); err != nil {
		return nil, err
	}
	if p.ShippingFee < 0 || p.Discount < 0 {
		return nil, ErrInvalidAmount
	}

	items := make([]LineItem, len(p.Items))
	copy(items, p.Items)

	var subtotal int64
	for _, it := range items {
		if it.Quantity < 1 || it.Price < 0 {
			return nil, ErrInvalidAmount
		}
		subtotal += it.Amount()
	}

	total := subtotal - p.Discount + p.ShippingFee
	if total < 0 {
		total = 0
	}

	now := p.Now.UTC()
	return &Order{
		ID:            uuid.NewString(),
		Code:          NewCode(now),
		UserID:        p.UserID,
		Items:         items,
		Shipping:      p.Shipping,
		PaymentMethod: p.PaymentMethod,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		Subtotal:      subtotal,
		ShippingFee:   p.ShippingFee,
		Discount:      p.Discount,
		Total:         total,
		Promotion:     p.Promotion,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// NewCode sinh mã đơn dạng XT<yymmddHHMMSS><6 hex>, dùng làm vnp_TxnRef.
func NewCode(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "XT" + now.UTC().Format("060102150405") + suffix
}

// PromotionCode returns the applied promotion code or "".
func (o *Order) PromotionCode() string {
	if o.Promotion == nil {
		return ""
	}
	return o.Promotion.Code
}

// Clone returns a deep copy so stores never share slices with callers.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = make([]LineItem, len(o.Items))
	copy(c.Items, o.Items)
	if o.PaidAt != nil {
		t := *o.PaidAt
		c.PaidAt = &t
	}
	if o.Promotion != nil {
		p := *o.Promotion
		c.Promotion = &p
	}
	return &c
}

func (o *Order) OwnedBy(userID string) bool {
	return userID != "" && o.UserID == userID
}
