package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"redsyspay/config"
	"redsyspay/services"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

const (
	createRedirect = "/redirect/:order_id"
	paymentNotify  = "/notify"
	health         = "/health"
	metrics        = "/metrics"

	// maxNotifyBody bounds the form the gateway posts.
	maxNotifyBody = 64 << 10
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	payments   services.Payments
	logger     services.LogHandler
}

func NewServer(conf *config.Config) *Server {

	server := Server{
		conf: conf,
	}

	// register itself as a router for httpServer handler
	router := httprouter.New()
	server.Register(router)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: conf.Listen.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	server.httpServer = &http.Server{
		Handler: withRequestID(corsHandler.Handler(router)),
	}

	return &server
}

func (s *Server) Register(router *httprouter.Router) {
	router.POST(createRedirect, s.createRedirect)
	router.POST(paymentNotify, s.paymentNotify)
	router.GET(health, s.health)
	router.Handler(http.MethodGet, metrics, promhttp.Handler())
}

func (s *Server) SetPaymentsService(payments services.Payments) {
	s.payments = payments
}

func (s *Server) SetLogger(logger services.LogHandler) {
	s.logger = logger
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
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

func (s *Server) createRedirect(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	reqID := GetRequestID(ctx)

	orderId := ps.ByName("order_id")
	form, err := s.payments.CreateRedirect(ctx, orderId)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrInvalidOrder):
			status = http.StatusBadRequest
		case errors.Is(err, ErrReservationNotFound):
			status = http.StatusNotFound
		case errors.Is(err, ErrAlreadyPaid), errors.Is(err, ErrInvalidAmount):
			status = http.StatusConflict
		case errors.Is(err, ErrStoreUnavailable):
			status = http.StatusServiceUnavailable
		}
		s.logger.Warn(fmt.Sprintf("[%s] redirect for order %s: %v", reqID, orderId, err))
		s.writeError(w, status, err)
		return
	}

	s.writeJSON(w, http.StatusOK, form)
}

func (s *Server) paymentNotify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()
	reqID := GetRequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxNotifyBody)
	if err := r.ParseForm(); err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] payment notify: parse form: %v", reqID, err))
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: form: %v", ErrDecoding, err))
		return
	}

	result, err := s.payments.Notify(ctx, r.PostForm)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, ErrStoreUnavailable):
			status = http.StatusServiceUnavailable
		case !isRejection(err):
			status = http.StatusInternalServerError
		}
		s.logger.Warn(fmt.Sprintf("[%s] payment notify: %v", reqID, err))
		s.writeError(w, status, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("write response", err)
	}
}
