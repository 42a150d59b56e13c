// Package web — HTTP-сервер живости для облачных платформ: хостинг держит
// процесс запущенным, пока на $PORT отвечает хоть что-то.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"telegram-forwarder/internal/infra/logger"
)

// Тексты ответов.
const (
	RootBody   = "Bot is Running!"
	HealthBody = "OK"
)

const (
	readTimeout  = 15 * time.Second
	writeTimeout = 15 * time.Second
	idleTimeout  = 60 * time.Second
)

// Server представляет веб-сервер живости.
type Server struct {
	srv *http.Server
}

// Addr собирает адрес прослушивания на всех интерфейсах.
func Addr(port int) string {
	return net.JoinHostPort("0.0.0.0", strconv.Itoa(port))
}

// NewServer создаёт сервер на addr. Сеть не трогает до Start.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", handleRoot)
	mux.HandleFunc("GET /health", handleHealth)

	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      loggingMiddleware(mux),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
	}
}

// Handler отдаёт корневой обработчик (для тестов).
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start запускает веб-сервер и блокируется до Shutdown.
func (s *Server) Start() error {
	logger.Info("Starting web server", zap.String("address", s.srv.Addr))

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server error: %w", err)
	}
	return nil
}

// Serve обслуживает уже открытый listener (для тестов и socket activation).
func (s *Server) Serve(ln net.Listener) error {
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server error: %w", err)
	}
	return nil
}

// Shutdown корректно останавливает веб-сервер.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down web server...")
	return s.srv.Shutdown(ctx)
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	writeResponse(w, []byte(RootBody))
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	writeResponse(w, []byte(HealthBody))
}
