package avro

// OrderEventSchema là schema Avro của event đơn hàng trên topic order-events.
// Thêm field mới phải có default để consumer cũ vẫn đọc được.
const OrderEventSchema = `{
	"type": "record",
	"name": "OrderEvent",
	"namespace": "vn.xtfashion.order",
	"fields": [
		{"name": "id", "type": "string"},
		{"name": "type", "type": "string"},
		{"name": "order_code", "type": "string"},
		{"name": "user_id", "type": "string"},
		{"name": "status", "type": "string"},
		{"name": "payment_status", "type": "string"},
		{"name": "payment_method", "type": "string"},
		{"name": "total", "type": "long"},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`
