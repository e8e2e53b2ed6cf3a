package memory

import (
	"context"
	"sort"
	"time"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/repository"
)

type OrderRepository struct {
	s *Store
}

func (r *OrderRepository) Insert(ctx context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orderByCode[o.Code]; ok {
		return order.ErrDuplicateCode
	}
	r.s.orders[o.ID] = o.Clone()
	r.s.orderByCode[o.Code] = o.ID
	r.s.nextSeq++
	r.s.seq[o.ID] = r.s.nextSeq

	id, code := o.ID, o.Code
	r.s.record(ctx, func() {
		delete(r.s.orders, id)
		delete(r.s.orderByCode, code)
		delete(r.s.seq, id)
	})
	return nil
}

func (r *OrderRepository) FindByCode(_ context.Context, code string) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.orderByCode[code]
	if !ok {
		return nil, nil
	}
	return r.s.orders[id].Clone(), nil
}

func (r *OrderRepository) FindByID(_ context.Context, id string) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, nil
	}
	return o.Clone(), nil
}

func (r *OrderRepository) ListByUser(_ context.Context, userID string, page repository.Page) ([]*order.Order, int, error) {
	return r.list(page, func(o *order.Order) bool { return o.UserID == userID }), r.count(func(o *order.Order) bool { return o.UserID == userID }), nil
}

func (r *OrderRepository) List(_ context.Context, filter order.Filter, page repository.Page) ([]*order.Order, int, error) {
	match := func(o *order.Order) bool {
		if filter.Status != "" && o.Status != filter.Status {
			return false
		}
		if filter.PaymentStatus != "" && o.PaymentStatus != filter.PaymentStatus {
			return false
		}
		return true
	}
	return r.list(page, match), r.count(match), nil
}

func (r *OrderRepository) CountPromotionUses(_ context.Context, userID, code string) (int, error) {
	return r.count(func(o *order.Order) bool {
		return o.UserID == userID && o.PromotionCode() == code && o.Status != order.StatusCancelled
	}), nil
}

func (r *OrderRepository) ApplyPayment(ctx context.Context, code string, upd order.PaymentUpdate) (*order.Order, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.orderByCode[code]
	if !ok {
		return nil, false, order.ErrOrderNotFound
	}
	o := r.s.orders[id]
	if !o.CanApplyPayment(upd) {
		return o.Clone(), false, nil
	}

	before := captureState(o)
	upd.Apply(o)
	after := captureState(o)
	r.s.record(ctx, func() { restoreState(r.s.orders[id], after, before) })
	return o.Clone(), true, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, change order.StatusChange) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	if o.Status != change.From {
		return nil, order.ErrStatusConflict
	}

	before := captureState(o)
	change.Apply(o)
	after := captureState(o)
	r.s.record(ctx, func() { restoreState(r.s.orders[id], after, before) })
	return o.Clone(), nil
}

// orderState là các field mà ApplyPayment và UpdateStatus có thể đổi.
type orderState struct {
	status        order.Status
	paymentStatus order.PaymentStatus
	isPaid        bool
	paidAt        *time.Time
	updatedAt     time.Time
}

func captureState(o *order.Order) orderState {
	st := orderState{
		status:        o.Status,
		paymentStatus: o.PaymentStatus,
		isPaid:        o.IsPaid,
		updatedAt:     o.UpdatedAt,
	}
	if o.PaidAt != nil {
		t := *o.PaidAt
		st.paidAt = &t
	}
	return st
}

// restoreState hoàn tác từng nhóm field, và chỉ khi nhóm đó vẫn giữ giá trị
// mình đã ghi, để không đè lên thay đổi của goroutine khác chen vào giữa.
func restoreState(o *order.Order, wrote, prev orderState) {
	if o == nil {
		return
	}
	if wrote.status != prev.status && o.Status == wrote.status {
		o.Status = prev.status
	}
	paymentChanged := wrote.paymentStatus != prev.paymentStatus || wrote.isPaid != prev.isPaid
	if paymentChanged && o.PaymentStatus == wrote.paymentStatus && o.IsPaid == wrote.isPaid {
		o.PaymentStatus = prev.paymentStatus
		o.IsPaid = prev.isPaid
		o.PaidAt = prev.paidAt
	}
	if o.UpdatedAt.Equal(wrote.updatedAt) {
		o.UpdatedAt = prev.updatedAt
	}
}

func (r *OrderRepository) count(match func(*order.Order) bool) int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, o := range r.s.orders {
		if match(o) {
			n++
		}
	}
	return n
}

// list trả về đơn mới nhất trước.
func (r *OrderRepository) list(page repository.Page, match func(*order.Order) bool) []*order.Order {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	matched := make([]*order.Order, 0)
	for _, o := range r.s.orders {
		if match(o) {
			matched = append(matched, o)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return r.s.seq[a.ID] > r.s.seq[b.ID]
	})

	if page.Offset >= len(matched) {
		return []*order.Order{}
	}
	end := len(matched)
	if page.Limit > 0 && page.Offset+page.Limit < end {
		end = page.Offset + page.Limit
	}

	out := make([]*order.Order, 0, end-page.Offset)
	for _, o := range matched[page.Offset:end] {
		out = append(out, o.Clone())
	}
	return out
}
