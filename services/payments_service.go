package services

import (
	"context"

	"paylink/entity"
)

type Payments interface {
	CreatePayment(ctx context.Context, request *entity.PaymentLinkRequest) (*entity.PaymentLink, error)
	Notify(ctx context.Context, data []byte) (*entity.NotificationResult, error)
}
