package promotion

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindPercent      Kind = "percent"
	KindFixed        Kind = "fixed"
	KindFreeShipping Kind = "free_shipping"
)

func (k Kind) Valid() bool {
	switch k {
	case KindPercent, KindFixed, KindFreeShipping:
		return true
	}
	return false
}

// Promotion là mã giảm giá. Code luôn được lưu ở dạng đã NormalizeCode.
// Các giới hạn nil nghĩa là không giới hạn.
type Promotion struct {
	ID             string
	Code           string
	Kind           Kind
	Value          decimal.Decimal
	MinOrderValue  int64
	MaxDiscount    *int64
	MaxUses        *int
	MaxUsesPerUser *int
	UsedCount      int
	Active         bool
	StartDate      time.Time
	EndDate        time.Time
}

// Snapshot is the copy of the promotion stored on an order.
type Snapshot struct {
	Code     string          `json:"code"`
	Kind     Kind            `json:"kind"`
	Value    decimal.Decimal `json:"value"`
	Discount int64           `json:"discount"`
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsEffective reports whether the promotion is active and now is within [StartDate, EndDate).
func (p *Promotion) IsEffective(now time.Time) bool {
	if !p.Active {
		return false
	}
	return !now.Before(p.StartDate) && now.Before(p.EndDate)
}

func (p *Promotion) Exhausted() bool {
	return p.MaxUses != nil && p.UsedCount >= *p.MaxUses
}

// Discount tính số tiền giảm trên subtotal hàng hoá. Kết quả luôn nằm trong [0, subtotal].
// free_shipping trả về 0; phí ship được miễn ở phía order.
func (p *Promotion) Discount(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}

	var amount int64
	switch p.Kind {
	case KindPercent:
		amount = decimal.NewFromInt(subtotal).
			Mul(p.Value).
			Div(decimal.NewFromInt(100)).
			Floor().
			IntPart()
		if p.MaxDiscount != nil && *p.MaxDiscount > 0 && amount > *p.MaxDiscount {
			amount = *p.MaxDiscount
		}
	case KindFixed:
		amount = p.Value.Floor().IntPart()
	case KindFreeShipping:
		amount = 0
	}

	if amount < 0 {
		return 0
	}
	if amount > subtotal {
		return subtotal
	}
	return amount
}

func (p *Promotion) Snapshot(discount int64) Snapshot {
	return Snapshot{
		Code:     p.Code,
		Kind:     p.Kind,
		Value:    p.Value,
		Discount: discount,
	}
}
