package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/repository"
)

const uniqueViolation = "23505"

const orderColumns = `id, order_code, user_id, items, shipping, payment_method, status, payment_status,
	is_paid, paid_at, subtotal, shipping_fee, discount, total, promotion, created_at, updated_at`

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Insert(ctx context.Context, o *order.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}

	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	shipping, err := json.Marshal(o.Shipping)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping info: %w", err)
	}
	var promo []byte
	var promoCode *string
	if o.Promotion != nil {
		if promo, err = json.Marshal(o.Promotion); err != nil {
			return fmt.Errorf("failed to marshal promotion: %w", err)
		}
		code := o.Promotion.Code
		promoCode = &code
	}

	const query = `
		INSERT INTO orders (id, order_code, user_id, items, shipping, payment_method, status, payment_status,
			is_paid, paid_at, subtotal, shipping_fee, discount, total, promotion, promotion_code,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err = conn(ctx, r.pool).Exec(ctx, query,
		o.ID,
		o.Code,
		o.UserID,
		items,
		shipping,
		string(o.PaymentMethod),
		string(o.Status),
		string(o.PaymentStatus),
		o.IsPaid,
		o.PaidAt,
		o.Subtotal,
		o.ShippingFee,
		o.Discount,
		o.Total,
		promo,
		promoCode,
		o.CreatedAt,
		o.UpdatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return order.ErrDuplicateCode
	}
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.Code, err)
	}
	return nil
}

func (r *OrderRepository) FindByCode(ctx context.Context, code string) (*order.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_code = $1`, code)
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string, page repository.Page) ([]*order.Order, int, error) {
	return r.list(ctx, []string{"user_id = $1"}, []any{userID}, page)
}

func (r *OrderRepository) List(ctx context.Context, filter order.Filter, page repository.Page) ([]*order.Order, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PaymentStatus != "" {
		args = append(args, string(filter.PaymentStatus))
		where = append(where, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	return r.list(ctx, where, args, page)
}

func (r *OrderRepository) CountPromotionUses(ctx context.Context, userID, code string) (int, error) {
	const query = `
		SELECT COUNT(*) FROM orders
		WHERE user_id = $1 AND promotion_code = $2 AND status <> 'cancelled'`

	var n int
	if err := conn(ctx, r.pool).QueryRow(ctx, query, userID, code).Scan(&n); err != nil {
		return 0, fmt.Errorf("count promotion uses: %w", err)
	}
	return n, nil
}

// ApplyPayment dùng một UPDATE có điều kiện nên hai callback đồng thời chỉ một cái thắng.
func (r *OrderRepository) ApplyPayment(ctx context.Context, code string, upd order.PaymentUpdate) (*order.Order, bool, error) {
	var status *string
	if upd.Status != nil {
		s := string(*upd.Status)
		status = &s
	}

	query := `
		UPDATE orders
		SET payment_status = $2,
			is_paid = $3,
			status = CASE WHEN status = 'pending' THEN COALESCE($4::text, status) ELSE status END,
			paid_at = COALESCE($5::timestamptz, paid_at),
			updated_at = $6
		WHERE order_code = $1 AND payment_status <> 'paid' AND payment_status <> $2
		RETURNING ` + orderColumns

	rows, err := conn(ctx, r.pool).Query(ctx, query,
		code,
		string(upd.PaymentStatus),
		upd.IsPaid,
		status,
		upd.PaidAt,
		upd.At,
	)
	if err != nil {
		return nil, false, fmt.Errorf("apply payment %s: %w", code, err)
	}
	updated, err := collectOrders(rows)
	if err != nil {
		return nil, false, fmt.Errorf("apply payment %s: %w", code, err)
	}
	if len(updated) == 1 {
		return updated[0], true, nil
	}

	current, err := r.FindByCode(ctx, code)
	if err != nil {
		return nil, false, err
	}
	if current == nil {
		return nil, false, order.ErrOrderNotFound
	}
	return current, false, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, change order.StatusChange) (*order.Order, error) {
	query := `
		UPDATE orders
		SET status = $3,
			payment_status = CASE WHEN $4 THEN 'paid' ELSE payment_status END,
			is_paid = is_paid OR $4,
			paid_at = CASE WHEN $4 THEN $5::timestamptz ELSE paid_at END,
			updated_at = $5
		WHERE id = $1 AND status = $2
		RETURNING ` + orderColumns

	rows, err := conn(ctx, r.pool).Query(ctx, query,
		id,
		string(change.From),
		string(change.To),
		change.MarkPaid,
		change.Now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("update order status %s: %w", id, err)
	}
	updated, err := collectOrders(rows)
	if err != nil {
		return nil, fmt.Errorf("update order status %s: %w", id, err)
	}
	if len(updated) == 1 {
		return updated[0], nil
	}

	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, order.ErrOrderNotFound
	}
	return nil, order.ErrStatusConflict
}

func (r *OrderRepository) findOne(ctx context.Context, query string, arg string) (*order.Order, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	found, err := collectOrders(rows)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

// list trả về đơn mới nhất trước; Limit 0 nghĩa là không giới hạn.
func (r *OrderRepository) list(ctx context.Context, where []string, args []any, page repository.Page) ([]*order.Order, int, error) {
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	q := conn(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC, seq DESC LIMIT NULLIF($%d, 0) OFFSET $%d`,
		orderColumns, clause, n+1, n+2)
	rows, err := q.Query(ctx, query, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

func collectOrders(rows pgx.Rows) ([]*order.Order, error) {
	defer rows.Close()

	out := make([]*order.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o                                    order.Order
		items, shipping, promo               []byte
		paymentMethod, status, paymentStatus string
	)
	err := row.Scan(
		&o.ID,
		&o.Code,
		&o.UserID,
		&items,
		&shipping,
		&paymentMethod,
		&status,
		&paymentStatus,
		&o.IsPaid,
		&o.PaidAt,
		&o.Subtotal,
		&o.ShippingFee,
		&o.Discount,
		&o.Total,
		&promo,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.PaymentMethod = order.PaymentMethod(paymentMethod)
	o.Status = order.Status(status)
	o.PaymentStatus = order.PaymentStatus(paymentStatus)
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	if o.PaidAt != nil {
		t := o.PaidAt.UTC()
		o.PaidAt = &t
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(shipping, &o.Shipping); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shipping info: %w", err)
	}
	if len(promo) > 0 {
		if err := json.Unmarshal(promo, &o.Promotion); err != nil {
			return nil, fmt.Errorf("failed to unmarshal promotion: %w", err)
		}
	}
	return &o, nil
}
