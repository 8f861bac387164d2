package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Lutefd/currency-dashboard/internal/commons"
	"github.com/Lutefd/currency-dashboard/internal/logger"
	"github.com/Lutefd/currency-dashboard/internal/service"
)

type Server struct {
	port         int
	router       http.Handler
	config       commons.Config
	ratesService service.RatesServiceInterface
	log          *logger.Logger
}

func NewServer(config commons.Config, ratesService service.RatesServiceInterface, log *logger.Logger) *Server {
	server := &Server{
		port:         int(config.ServerPort),
		config:       config,
		ratesService: ratesService,
		log:          log,
	}
	server.registerRoutes()
	return server
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context) error {
	s.log.Infof("starting server on port %d", s.port)
	ch := make(chan error, 1)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		IdleTimeout:  commons.ServerIdleTimeout,
		ReadTimeout:  commons.ServerReadTimeout,
		WriteTimeout: commons.ServerWriteTimeout,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			ch <- fmt.Errorf("failed to start server: %w", err)
		}
		close(ch)
	}()

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), commons.ServerShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	}
}
