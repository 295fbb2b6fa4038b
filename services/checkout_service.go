package services

import (
	"context"

	"checkout/entity"
)

// Checkout is the payment core consumed by the HTTP server: signing,
// redirect building, frame-event handling and server-side confirmation.
type Checkout interface {
	Shasign(ctx context.Context, params map[string]string) (string, error)
	BuildRedirectUrl(ctx context.Context, request *entity.RedirectRequest) (string, error)
	FrameEvent(ctx context.Context, orderId string, raw []byte, origin string) (*FrameStatus, error)
	ConfirmPayment(ctx context.Context, aliasId, orderId string) (*entity.ConfirmResult, error)
	Session(ctx context.Context, orderId string) (*entity.PaymentSessionSnapshot, error)
}

// FrameStatus reports the controller state after a frame event.
type FrameStatus struct {
	State     string `json:"state"`
	Height    int    `json:"height,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}
