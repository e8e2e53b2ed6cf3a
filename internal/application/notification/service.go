package notification

import (
	"context"
	"fmt"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/logger"
)

// Service biến event của đơn thành thông báo cho khách. Gửi email nằm ngoài service này,
// ở đây chỉ ghi log nội dung thông báo.
type Service struct {
	log logger.Logger
}

func NewService(log logger.Logger) *Service {
	return &Service{log: log}
}

// Message trả về nội dung thông báo cho một event; ok=false nếu event không cần báo khách.
func Message(e order.Event) (msg string, ok bool) {
	switch e.Type {
	case order.EventOrderCreated:
		return fmt.Sprintf("Đơn hàng %s đã được tạo, tổng tiền %d VND.", e.OrderCode, e.Total), true
	case order.EventOrderPaid:
		return fmt.Sprintf("Đơn hàng %s đã thanh toán thành công.", e.OrderCode), true
	case order.EventOrderPaymentFailed:
		return fmt.Sprintf("Thanh toán đơn hàng %s không thành công, bạn có thể thử lại.", e.OrderCode), true
	case order.EventOrderPaymentExpired:
		return fmt.Sprintf("Phiên thanh toán đơn hàng %s đã hết hạn.", e.OrderCode), true
	case order.EventOrderStatusChanged:
		return fmt.Sprintf("Đơn hàng %s chuyển sang trạng thái %s.", e.OrderCode, e.Status), true
	default:
		return "", false
	}
}

func (s *Service) Handle(ctx context.Context, e order.Event) error {
	if e.OrderCode == "" {
		return fmt.Errorf("event %s has no order code", e.ID)
	}

	msg, ok := Message(e)
	if !ok {
		s.log.Debug("event ignored", logger.String("event_type", e.Type), logger.String("order_code", e.OrderCode))
		return nil
	}

	s.log.WithContext(ctx).Info("customer notification",
		logger.String("event_id", e.ID),
		logger.String("event_type", e.Type),
		logger.String("order_code", e.OrderCode),
		logger.String("user_id", e.UserID),
		logger.String("message", msg),
	)
	return nil
}
