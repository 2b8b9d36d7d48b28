package services

import (
	"context"
	"errors"

	"paylink/entity"
)

// ErrDuplicateOrder is returned by InsertPaymentOrder when the order id is taken.
var ErrDuplicateOrder = errors.New("duplicate order")

type Database interface {
	WriteLogMessage(ctx context.Context, data Data) error

	InsertPaymentOrder(ctx context.Context, order *entity.PaymentOrder) error
	SavePaymentOrder(ctx context.Context, order *entity.PaymentOrder) error
	GetPaymentOrder(ctx context.Context, order string) (*entity.PaymentOrder, error)

	SavePaymentResult(ctx context.Context, result *entity.NotificationResult) error
}

type Data interface {
	DataType() string
}
