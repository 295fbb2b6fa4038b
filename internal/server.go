package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"checkout/config"
	"checkout/entity"
	"checkout/services"

	"github.com/julienschmidt/httprouter"
)

const (
	getShasign     = "/get-shasign"
	redirectUrl    = "/redirect-url"
	confirmPayment = "/confirm-payment"
	frameEvent     = "/frame-event/:order_id"
	sessionState   = "/session/:order_id"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	checkout   services.Checkout
	logger     services.LogHandler
}

func NewServer(conf *config.Config) *Server {

	server := Server{
		conf: conf,
	}

	// register itself as a router for httpServer handler
	router := httprouter.New()
	server.Register(router)
	server.httpServer = &http.Server{
		Handler: router,
	}

	return &server
}

func (s *Server) Register(router *httprouter.Router) {
	router.POST(getShasign, s.getShasign)
	router.POST(redirectUrl, s.redirectUrl)
	router.POST(confirmPayment, s.confirmPayment)
	router.POST(frameEvent, s.frameEvent)
	router.GET(sessionState, s.sessionState)
}

func (s *Server) SetCheckoutService(checkout services.Checkout) {
	s.checkout = checkout
}

func (s *Server) SetLogger(logger services.LogHandler) {
	s.logger = logger
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

func (s *Server) getShasign(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] get shasign: read request body", reqID), err)
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var params map[string]interface{}
	if err = json.Unmarshal(body, &params); err != nil {
		s.logger.Error(fmt.Sprintf("[%s] get shasign: decode request body", reqID), err)
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	signature, err := s.checkout.Shasign(ctx, FlattenParams(params))
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] get shasign", reqID), err)
		s.writeError(w, statusFor(err), "signature unavailable")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"shasign": signature})
}

func (s *Server) redirectUrl(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	var request entity.RedirectRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.logger.Error(fmt.Sprintf("[%s] redirect url: decode request body", reqID), err)
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	composed, err := s.checkout.BuildRedirectUrl(ctx, &request)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] redirect url for order %s", reqID, request.OrderId), err)
		s.writeError(w, statusFor(err), "cannot build redirect url")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"url": composed})
}

func (s *Server) confirmPayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	var request struct {
		AliasId string `json:"aliasId"`
		OrderId string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.logger.Error(fmt.Sprintf("[%s] confirm payment: decode request body", reqID), err)
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.logger.Info(fmt.Sprintf("[%s] processing request: confirm payment, order %s", reqID, request.OrderId))
	result, err := s.checkout.ConfirmPayment(ctx, request.AliasId, request.OrderId)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] confirm payment, order %s", reqID, request.OrderId), err)
		s.writeError(w, statusFor(err), redactedMessage(err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": result.Success,
		"result":  result.Raw,
	})
}

func (s *Server) frameEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	orderId := ps.ByName("order_id")
	if orderId == "" {
		s.logger.Warn(fmt.Sprintf("[%s] frame event: empty order id", reqID))
		s.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] frame event: read request body", reqID), err)
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := s.checkout.FrameEvent(ctx, orderId, body, r.Header.Get("Origin"))
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] frame event, order %s", reqID, orderId), err)
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) sessionState(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	orderId := ps.ByName("order_id")
	if orderId == "" {
		s.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	snapshot, err := s.checkout.Session(ctx, orderId)
	if err != nil || snapshot == nil {
		s.logger.Debug(fmt.Sprintf("[%s] no session for order %s", reqID, orderId))
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}

	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write response", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps the service error taxonomy to HTTP statuses: caller
// errors are 400, everything touching secrets or the provider is 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrMissingParameters),
		errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrBadSignature):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// redactedMessage keeps provider detail out of client responses; the
// full error is already logged server-side.
func redactedMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingParameters):
		return "aliasId and orderId are required"
	case errors.Is(err, ErrBadSignature):
		return "signature verification failed"
	case errors.Is(err, ErrProvider):
		return "payment provider unavailable"
	case errors.Is(err, ErrSecretsNotLoaded), errors.Is(err, ErrNoSecret):
		return "signature unavailable"
	default:
		return "payment confirmation failed"
	}
}
