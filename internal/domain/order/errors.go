// internal/domain/order/errors.go
package order

import "errors"

// Workflow errors. Handlers map these to HTTP statuses with errors.Is; no
// storage or gateway internals cross the API boundary beyond a terse reason.
var (
	// ErrEmptyCart rejects checkout for a user with no cart lines
	ErrEmptyCart = errors.New("cart is empty")

	// ErrOrderNotFound means no order matches the given id or payment reference
	ErrOrderNotFound = errors.New("order not found")

	// ErrPaymentNotSuccessful means the gateway reported a non-successful
	// transaction status; nothing was mutated
	ErrPaymentNotSuccessful = errors.New("payment not successful")

	// ErrVerificationFailed means the verification call itself failed
	// (network error or non-2xx from the gateway); nothing was mutated
	ErrVerificationFailed = errors.New("payment verification failed")

	// ErrInvalidStatus rejects an unknown fulfillment status value
	ErrInvalidStatus = errors.New("invalid order status")
)
