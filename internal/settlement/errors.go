package settlement

import "errors"

var (
	ErrMissingIdentity    = errors.New("missing caller identity")
	ErrPictureNotFound    = errors.New("picture not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrFeeNotConfigured   = errors.New("order fee not configured")
	ErrMemoCollision      = errors.New("memo collides with a pending order")
	ErrVerificationFailed = errors.New("payment verification failed")
	ErrPaymentFailed      = errors.New("payment failed")
	ErrNoPendingOrder     = errors.New("no pending order for memo")
	ErrAlreadySold        = errors.New("picture already sold")
)
