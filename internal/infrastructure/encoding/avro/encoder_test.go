package avro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
)

func TestOrderEventCodec_RoundTrip(t *testing.T) {
	codec, err := NewOrderEventCodec()
	require.NoError(t, err)

	o := &order.Order{
		Code:          "XT260601093000ABC123",
		UserID:        "u1",
		Status:        order.StatusProcessing,
		PaymentStatus: order.PaymentPaid,
		PaymentMethod: order.PaymentVNPay,
		Total:         230000,
	}
	ev := order.NewEvent(order.EventOrderPaid, o, time.Date(2026, 6, 1, 9, 30, 0, 123_000_000, time.UTC))

	data, err := codec.Encode(ev)
	require.NoError(t, err)
	got, err := codec.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, ev, got)
}

func TestOrderEventCodec_DecodeGarbage(t *testing.T) {
	codec, err := NewOrderEventCodec()
	require.NoError(t, err)

	_, err = codec.Decode([]byte{0xff})
	assert.Error(t, err)
}
