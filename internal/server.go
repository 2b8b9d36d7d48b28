package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"paylink/config"
	"paylink/entity"
	"paylink/internal/redsys"
	"paylink/services"
)

const (
	createPayment = "/payment"
	checkout      = "/checkout"
	paymentNotify = "/notify"
	metrics       = "/metrics"

	maxBodySize = 64 << 10

	checkoutFailed = "unable to initiate payment"
)

var redirectForm = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Redirecting to payment</title></head>
<body onload="document.forms[0].submit()">
<form method="POST" action="{{.URL}}">
<input type="hidden" name="Ds_SignatureVersion" value="{{.Fields.SignatureVersion}}">
<input type="hidden" name="Ds_MerchantParameters" value="{{.Fields.Parameters}}">
<input type="hidden" name="Ds_Signature" value="{{.Fields.Signature}}">
<noscript><button type="submit">Continue</button></noscript>
</form>
</body>
</html>
`))

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	router     *httprouter.Router
	payments   services.Payments
	logger     services.LogHandler
	gatherer   prometheus.Gatherer
}

func NewServer(conf *config.Config) *Server {

	server := Server{
		conf:     conf,
		logger:   NewLogger("server", false, nil),
		gatherer: prometheus.DefaultGatherer,
	}

	// register itself as a router for httpServer handler
	router := httprouter.New()
	server.Register(router)
	server.router = router
	server.httpServer = &http.Server{
		Handler: router,
	}

	return &server
}

func (s *Server) Register(router *httprouter.Router) {
	router.POST(createPayment, s.createPayment)
	router.POST(checkout, s.checkout)
	router.POST(paymentNotify, s.paymentNotify)
	router.GET(metrics, s.metrics)
}

func (s *Server) SetPaymentsService(payments services.Payments) {
	s.payments = payments
}

func (s *Server) SetLogger(logger services.LogHandler) {
	s.logger = logger
}

func (s *Server) SetGatherer(gatherer prometheus.Gatherer) {
	s.gatherer = gatherer
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	if s.conf == nil {
		return fmt.Errorf("configuration not loaded")
	}

	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIP, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	if s.conf.Listen.TLS {
		s.logger.Info(fmt.Sprintf("starting https TLS on %s", serverAddress))
		err = s.httpServer.ServeTLS(listener, s.conf.Listen.CertFile, s.conf.Listen.KeyFile)
	} else {
		s.logger.Info(fmt.Sprintf("starting http on %s", serverAddress))
		err = s.httpServer.Serve(listener)
	}

	return err
}

func (s *Server) createPayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	var request entity.PaymentLinkRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&request); err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] create payment: decode request body: %v", reqID, err))
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	link, err := s.payments.CreatePayment(ctx, &request)
	if err != nil {
		status := paymentErrorStatus(err)
		s.logger.Error(fmt.Sprintf("[%s] create payment: status %d", reqID, status), err)
		writeJSONError(w, status, paymentErrorMessage(status, err))
		return
	}

	writeJSON(w, http.StatusOK, link)
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := r.ParseForm(); err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] checkout: parse form: %v", reqID, err))
		http.Error(w, checkoutFailed, http.StatusBadRequest)
		return
	}
	request := entity.PaymentLinkRequest{
		Amount:       entity.AmountInput(r.PostForm.Get("amount")),
		Order:        r.PostForm.Get("order"),
		Description:  r.PostForm.Get("description"),
		CustomerName: r.PostForm.Get("customer_name"),
	}

	link, err := s.payments.CreatePayment(ctx, &request)
	if err != nil {
		status := paymentErrorStatus(err)
		s.logger.Error(fmt.Sprintf("[%s] checkout: status %d", reqID, status), err)
		http.Error(w, checkoutFailed, status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err = redirectForm.Execute(w, link); err != nil {
		s.logger.Error(fmt.Sprintf("[%s] checkout: render form", reqID), err)
	}
}

// paymentNotify answers OK for every notification that was parsed and
// signature-checked, declined payments and re-deliveries included. Hostile or
// broken input gets 400; only server-side failures get 500, so the gateway
// retries just those.
func (s *Server) paymentNotify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] payment notify: get body", reqID), err)
		writeText(w, http.StatusBadRequest, "KO")
		return
	}

	result, err := s.payments.Notify(ctx, body)
	switch {
	case errors.Is(err, redsys.ErrMissingFields), errors.Is(err, redsys.ErrMalformedPayload):
		s.logger.Warn(fmt.Sprintf("[%s] payment notify: %v", reqID, err))
		writeText(w, http.StatusBadRequest, "KO")
	case err != nil:
		s.logger.Error(fmt.Sprintf("[%s] payment notify: process body", reqID), err)
		writeText(w, http.StatusInternalServerError, "ERROR")
	case !result.Valid:
		s.logger.Warn(fmt.Sprintf("[%s] payment notify: invalid signature for order %q", reqID, result.Order))
		writeText(w, http.StatusBadRequest, "KO")
	default:
		s.logger.Info(fmt.Sprintf("[%s] payment notify: order %s %s", reqID, result.Order, result.Outcome))
		writeText(w, http.StatusOK, "OK")
	}
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// paymentErrorStatus maps user-caused build failures to 4xx and
// misconfiguration or storage failures to 5xx.
func paymentErrorStatus(err error) int {
	switch {
	case errors.Is(err, redsys.ErrInvalidAmount),
		errors.Is(err, redsys.ErrInvalidOrderID),
		errors.Is(err, redsys.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrDuplicateOrder):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func paymentErrorMessage(status int, err error) string {
	if status >= http.StatusInternalServerError {
		return checkoutFailed
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, text)
}
