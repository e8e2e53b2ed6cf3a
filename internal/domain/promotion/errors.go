package promotion

import "errors"

var (
	ErrPromotionNotFound   = errors.New("promotion code not found")
	ErrPromotionInactive   = errors.New("promotion code is not active")
	ErrMinOrderNotMet      = errors.New("order value does not meet the promotion minimum")
	ErrPromotionExhausted  = errors.New("promotion code has reached its usage limit")
	ErrPerUserLimitReached = errors.New("you have already used this promotion code the maximum number of times")
	// ErrPromotionRace: usage cap reached between evaluation and the conditional increment.
	ErrPromotionRace = errors.New("promotion code was used up while placing the order, please try again")
)
