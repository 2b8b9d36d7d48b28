package internal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"paylink/entity"
	"paylink/internal/redsys"
	"paylink/services"
)

const maxOrderAttempts = 3

// Payments builds signed Redsys payment requests and applies verified
// notifications to persisted orders. Each order is applied under its own lock,
// so notifications for different orders proceed in parallel.
type Payments struct {
	gateway  redsys.Config
	database services.Database
	replay   services.ReplayGuard
	logger   services.LogHandler
	metrics  *Metrics
	locks    orderLocks
}

// NewPayments creates the payments service for one merchant configuration.
func NewPayments(gateway redsys.Config) *Payments {
	return &Payments{
		gateway: gateway,
		logger:  NewLogger("payments", false, nil),
		locks:   orderLocks{held: make(map[string]*orderLock)},
	}
}

func (p *Payments) SetDatabase(database services.Database) {
	p.database = database
}

func (p *Payments) SetReplayGuard(replay services.ReplayGuard) {
	p.replay = replay
}

func (p *Payments) SetMetrics(metrics *Metrics) {
	p.metrics = metrics
}

func (p *Payments) SetLogger(logger services.LogHandler) {
	p.logger = logger
	if err := p.gateway.Validate(); err != nil {
		p.logger.Warn(fmt.Sprintf("merchant not configured: %v", err))
	} else {
		p.logger.Info(fmt.Sprintf("merchant %s terminal %s; gateway %s", p.gateway.MerchantCode, p.gateway.Terminal, p.gateway.GatewayURL()))
	}
}

// CreatePayment parses and validates the request, builds the signed redirect
// form and records a pending order. A generated order id that collides with a
// stored one is replaced; a caller-supplied one is reported as
// services.ErrDuplicateOrder.
func (p *Payments) CreatePayment(ctx context.Context, request *entity.PaymentLinkRequest) (*entity.PaymentLink, error) {
	amount, err := redsys.ParseAmount(string(request.Amount))
	if err != nil {
		p.metrics.paymentCreated("invalid_input")
		return nil, err
	}

	options := redsys.PaymentOptions{
		Amount:       amount,
		Order:        request.Order,
		Description:  request.Description,
		Titular:      request.CustomerName,
		SuccessURL:   request.SuccessURL,
		FailureURL:   request.FailureURL,
		MerchantData: request.MerchantData,
	}

	attempts := 1
	if request.Order == "" {
		attempts = maxOrderAttempts
	}

	for i := 0; i < attempts; i++ {
		link, err := redsys.BuildPaymentForm(options, p.gateway)
		if err != nil {
			p.metrics.paymentCreated(buildErrorResult(err))
			return nil, err
		}

		err = p.saveOrder(ctx, link)
		if err == nil {
			p.metrics.paymentCreated("created")
			p.logger.Info(fmt.Sprintf("payment order %s: amount %d; titular %s", link.Order, link.Amount, secret(link.Parameters.Titular.Value())))
			return link, nil
		}
		if !errors.Is(err, services.ErrDuplicateOrder) || request.Order != "" {
			p.metrics.paymentCreated("storage_error")
			return nil, err
		}
		p.logger.Warn(fmt.Sprintf("generated order %s already exists; retrying", link.Order))
	}

	p.metrics.paymentCreated("storage_error")
	return nil, fmt.Errorf("save order: %w", services.ErrDuplicateOrder)
}

func (p *Payments) saveOrder(ctx context.Context, link *entity.PaymentLink) error {
	if p.database == nil {
		return nil
	}
	order := &entity.PaymentOrder{
		Order:       link.Order,
		Amount:      link.Amount,
		Currency:    link.Parameters.Currency,
		Description: link.Parameters.ProductDescription.Value(),
		Titular:     link.Parameters.Titular.Value(),
		Status:      entity.OrderStatusPending,
		TimeOpened:  time.Now(),
	}
	if err := p.database.InsertPaymentOrder(ctx, order); err != nil {
		return fmt.Errorf("save order %s: %w", link.Order, err)
	}
	return nil
}

func buildErrorResult(err error) string {
	switch {
	case errors.Is(err, redsys.ErrIncompleteConfiguration), errors.Is(err, redsys.ErrInvalidSecret):
		return "config_error"
	default:
		return "invalid_input"
	}
}

// Notify processes a form-encoded notification posted by the gateway.
//
// The returned error is set only for input that could not be checked
// (malformed or missing fields) or for server-side failures; a signature
// mismatch is a result with Valid == false. A notification already applied is
// accepted again without side effects.
func (p *Payments) Notify(ctx context.Context, data []byte) (result *entity.NotificationResult, err error) {
	result = &entity.NotificationResult{
		RequestId:    GetRequestID(ctx),
		TimeReceived: time.Now(),
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in notify: %v", r)
			result.Outcome = entity.OutcomeError
			p.logger.Error("notify", err)
		}
		p.metrics.notification(result.Outcome)
	}()

	form, err := url.ParseQuery(string(data))
	if err != nil {
		result.Outcome = entity.OutcomeMalformed
		p.logger.Warn(fmt.Sprintf("notification: parse form: %v", err))
		return result, fmt.Errorf("%w: parse form: %v", redsys.ErrMalformedPayload, err)
	}

	verification, err := redsys.Verify(form, p.gateway)
	if verification != nil {
		result.Order = verification.Order
		result.Version = verification.SignatureVersion
		result.Notification = verification.Notification
	}
	if err != nil {
		switch {
		case errors.Is(err, redsys.ErrMissingFields):
			result.Outcome = entity.OutcomeMissingFields
		case errors.Is(err, redsys.ErrMalformedPayload):
			result.Outcome = entity.OutcomeMalformed
		default:
			result.Outcome = entity.OutcomeError
		}
		p.logger.Warn(fmt.Sprintf("notification rejected: %v", err))
		p.audit(ctx, result)
		return result, err
	}

	if !verification.Valid {
		result.Outcome = entity.OutcomeRejected
		p.logger.Warn(fmt.Sprintf("notification signature mismatch: order %q; version %q", result.Order, result.Version))
		p.audit(ctx, result)
		return result, nil
	}
	result.Valid = true

	key := replayKey(form.Get(redsys.FieldParameters), form.Get(redsys.FieldSignature))
	if p.replay != nil {
		claimed, e := p.replay.Claim(ctx, key)
		switch {
		case e != nil:
			p.logger.Error("replay guard claim", e)
		case !claimed:
			result.Duplicate = true
			result.Outcome = entity.OutcomeDuplicate
			p.logger.Info(fmt.Sprintf("notification for order %s already processed", result.Order))
			p.audit(ctx, result)
			return result, nil
		}
	}

	if err = p.apply(ctx, result); err != nil {
		result.Outcome = entity.OutcomeError
		if p.replay != nil {
			if e := p.replay.Release(ctx, key); e != nil {
				p.logger.Error("replay guard release", e)
			}
		}
		return result, err
	}
	return result, nil
}

// apply closes the matching order, once.
func (p *Payments) apply(ctx context.Context, result *entity.NotificationResult) error {
	n := result.Notification
	p.logger.Info(fmt.Sprintf("notification: type %s; response %s; order %s; amount %s", n.TransactionType, n.Response, n.Order, n.Amount))

	unlock := p.locks.lock(n.Order)
	defer unlock()

	if p.database == nil {
		result.Outcome = entity.OutcomeAccepted
		return nil
	}

	order, err := p.database.GetPaymentOrder(ctx, n.Order)
	if err != nil {
		return fmt.Errorf("get payment order %s: %w", n.Order, err)
	}
	if order == nil {
		result.Outcome = entity.OutcomeUnknownOrder
		p.logger.Warn(fmt.Sprintf("notification for unknown order %s", n.Order))
		p.audit(ctx, result)
		return nil
	}

	if !order.Close(n) {
		result.Duplicate = true
		result.Outcome = entity.OutcomeDuplicate
		p.logger.Info(fmt.Sprintf("order %s already %s", order.Order, order.Status))
		p.audit(ctx, result)
		return nil
	}
	if order.Status == entity.OrderStatusMismatch {
		p.logger.Warn(fmt.Sprintf("order %s: notified %s %s, expected %d %s", order.Order, n.Amount, n.Currency, order.Amount, order.Currency))
	}

	if err = p.database.SavePaymentOrder(ctx, order); err != nil {
		return fmt.Errorf("save payment order %s: %w", order.Order, err)
	}
	result.Applied = true
	result.Outcome = order.Status
	p.audit(ctx, result)
	return nil
}

func (p *Payments) audit(ctx context.Context, result *entity.NotificationResult) {
	if p.database == nil {
		return
	}
	if err := p.database.SavePaymentResult(ctx, result); err != nil {
		p.logger.Error("save payment result", err)
	}
}

// orderLocks hands out one mutex per order id and forgets it once no
// goroutine holds or waits for it.
type orderLocks struct {
	mu   sync.Mutex
	held map[string]*orderLock
}

type orderLock struct {
	sync.Mutex
	refs int
}

func (l *orderLocks) lock(order string) func() {
	l.mu.Lock()
	entry, ok := l.held[order]
	if !ok {
		entry = &orderLock{}
		l.held[order] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.Lock()
	return func() {
		entry.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.held, order)
		}
		l.mu.Unlock()
	}
}

func secret(some string) string {
	if len(some) > 5 {
		return fmt.Sprintf("%s***", some[0:5])
	}
	if some == "" {
		return "?"
	}
	return "***"
}
