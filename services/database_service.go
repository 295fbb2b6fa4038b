package services

import (
	"context"

	"checkout/entity"
)

// Database is the persistence seam for payment sessions and
// confirmation traces. Implemented by the Mongo client and by an
// in-memory store for tests and mongo-disabled deployments.
type Database interface {
	WriteLogMessage(data Data) error

	SaveSnapshot(ctx context.Context, snapshot *entity.PaymentSessionSnapshot) error
	GetSnapshot(ctx context.Context, orderId string) (*entity.PaymentSessionSnapshot, error)
	DeleteSnapshot(ctx context.Context, orderId string) error

	SaveConfirmation(ctx context.Context, record *entity.ConfirmRecord) error
}

type Data interface {
	DataType() string
}
