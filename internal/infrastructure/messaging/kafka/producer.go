package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/config"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/logger"
)

// EventEncoder là phần codec mà producer cần (Avro trong thực tế).
type EventEncoder interface {
	Encode(e order.Event) ([]byte, error)
}

type recordProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type OrderEventProducer struct {
	client  recordProducer
	encoder EventEncoder
	topic   string
	log     logger.Logger
}

func NewOrderEventProducer(cfg config.KafkaConfig, encoder EventEncoder, log logger.Logger) (*OrderEventProducer, error) {
	log.Info("connecting kafka producer",
		logger.Any("brokers", cfg.Brokers),
		logger.String("topic", cfg.OrderTopic),
	)

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.OrderTopic),
		kgo.RequiredAcks(kgo.AllISRAcks()), // Đợi tất cả ISR confirm
		kgo.ProducerLinger(5 * time.Millisecond),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	// Connection will be tested on first publish
	return &OrderEventProducer{
		client:  client,
		encoder: encoder,
		topic:   cfg.OrderTopic,
		log:     log,
	}, nil
}

// PublishEvent ghi event với key là mã đơn để mọi event của một đơn vào cùng partition.
func (p *OrderEventProducer) PublishEvent(ctx context.Context, e order.Event) error {
	if e.OrderCode == "" {
		return fmt.Errorf("event %s has no order code", e.Type)
	}

	payload, err := p.encoder.Encode(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	rec := &kgo.Record{
		Topic:     p.topic,
		Key:       []byte(e.OrderCode),
		Value:     payload,
		Timestamp: e.OccurredAt,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(e.Type)},
			{Key: "event_id", Value: []byte(e.ID)},
		},
	}

	// ProduceSync trả về slice kết quả, chỉ gửi 1 record nên lấy lỗi đầu tiên
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		p.log.Error("kafka publish failed",
			logger.String("topic", p.topic),
			logger.String("event_type", e.Type),
			logger.Int("payload_bytes", len(payload)),
			logger.Error(err),
		)
		return fmt.Errorf("publish to kafka topic %s: %w", p.topic, err)
	}

	p.log.Debug("kafka event published",
		logger.String("event_type", e.Type),
		logger.String("order_code", e.OrderCode),
	)
	return nil
}

func (p *OrderEventProducer) Close(ctx context.Context) error {
	p.log.Info("closing kafka producer", logger.String("topic", p.topic))
	if p.client != nil {
		p.client.Close()
	}
	return nil
}
