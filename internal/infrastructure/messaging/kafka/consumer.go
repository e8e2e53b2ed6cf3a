package kafka

import (
	"context"
	"errors"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/config"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/logger"
)

type EventDecoder interface {
	Decode(data []byte) (order.Event, error)
}

type EventHandler interface {
	Handle(ctx context.Context, e order.Event) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type OrderEventConsumer struct {
	reader  messageReader
	decoder EventDecoder
	handler EventHandler
	log     logger.Logger
}

func NewOrderEventConsumer(cfg config.KafkaConfig, decoder EventDecoder, handler EventHandler, log logger.Logger) *OrderEventConsumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.ConsumerGroup,
		Topic:    cfg.OrderTopic,
		MinBytes: 1e3,
		MaxBytes: 1e6,
	})

	return &OrderEventConsumer{
		reader:  reader,
		decoder: decoder,
		handler: handler,
		log:     log,
	}
}

// Start đọc tới khi ctx bị huỷ. Offset chỉ được commit sau khi handler xử lý xong;
// message không decode được thì log rồi bỏ qua.
func (c *OrderEventConsumer) Start(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		event, err := c.decoder.Decode(msg.Value)
		if err != nil {
			c.log.Warn("skip undecodable message",
				logger.Int("partition", msg.Partition),
				logger.Int64("offset", msg.Offset),
				logger.Error(err),
			)
		} else if err := c.handler.Handle(ctx, event); err != nil {
			return fmt.Errorf("handle event %s: %w", event.ID, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit offset: %w", err)
		}
	}
}

func (c *OrderEventConsumer) Close() error {
	return c.reader.Close()
}
