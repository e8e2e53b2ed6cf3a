package avro

import (
	"fmt"
	"time"

	"github.com/linkedin/goavro/v2"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
)

// OrderEventCodec chuyển order.Event qua lại dạng Avro binary. An toàn khi dùng đồng thời.
type OrderEventCodec struct {
	codec *goavro.Codec
}

func NewOrderEventCodec() (*OrderEventCodec, error) {
	codec, err := goavro.NewCodec(OrderEventSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to create avro codec: %w", err)
	}
	return &OrderEventCodec{codec: codec}, nil
}

func (c *OrderEventCodec) Encode(e order.Event) ([]byte, error) {
	native := map[string]interface{}{
		"id":             e.ID,
		"type":           e.Type,
		"order_code":     e.OrderCode,
		"user_id":        e.UserID,
		"status":         string(e.Status),
		"payment_status": string(e.PaymentStatus),
		"payment_method": string(e.PaymentMethod),
		"total":          e.Total,
		"occurred_at":    e.OccurredAt.UTC(),
	}

	binary, err := c.codec.BinaryFromNative(nil, native)
	if err != nil {
		return nil, fmt.Errorf("failed to encode to avro binary: %w", err)
	}
	return binary, nil
}

func (c *OrderEventCodec) Decode(data []byte) (order.Event, error) {
	native, _, err := c.codec.NativeFromBinary(data)
	if err != nil {
		return order.Event{}, fmt.Errorf("failed to decode avro binary: %w", err)
	}
	m, ok := native.(map[string]interface{})
	if !ok {
		return order.Event{}, fmt.Errorf("avro record decoded to %T", native)
	}

	e := order.Event{
		ID:            stringField(m, "id"),
		Type:          stringField(m, "type"),
		OrderCode:     stringField(m, "order_code"),
		UserID:        stringField(m, "user_id"),
		Status:        order.Status(stringField(m, "status")),
		PaymentStatus: order.PaymentStatus(stringField(m, "payment_status")),
		PaymentMethod: order.PaymentMethod(stringField(m, "payment_method")),
	}
	if v, ok := m["total"].(int64); ok {
		e.Total = v
	}
	if v, ok := m["occurred_at"].(time.Time); ok {
		e.OccurredAt = v.UTC()
	}
	return e, nil
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
