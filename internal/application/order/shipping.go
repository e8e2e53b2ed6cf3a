package order

// ShippingPolicy tính phí ship từ subtotal hàng hoá.
type ShippingPolicy func(subtotal int64) int64

// FlatRateShipping charges fee unless subtotal reaches freeFrom. freeFrom <= 0 disables free shipping.
func FlatRateShipping(fee, freeFrom int64) ShippingPolicy {
	return func(subtotal int64) int64 {
		if freeFrom > 0 && subtotal >= freeFrom {
			return 0
		}
		return fee
	}
}
