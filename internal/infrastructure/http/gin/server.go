package gin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	ginlib "github.com/gin-gonic/gin"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/config"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/logger"
)

type Server struct {
	engine          *ginlib.Engine
	srv             *http.Server
	shutdownTimeout time.Duration
	log             logger.Logger
}

// NewEngine trả về gin engine không kèm logger mặc định; access log do middleware riêng ghi.
func NewEngine(env string) *ginlib.Engine {
	if env == "production" {
		ginlib.SetMode(ginlib.ReleaseMode)
	}
	r := ginlib.New()
	r.Use(ginlib.Recovery())
	return r
}

func NewServer(cfg config.ServerConfig, engine *ginlib.Engine, log logger.Logger) *Server {
	return &Server{
		engine: engine,
		srv: &http.Server{
			Addr:              cfg.Address(),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             log,
	}
}

// Run phục vụ tới khi ctx bị huỷ rồi shutdown trong shutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	if s.engine == nil {
		return fmt.Errorf("gin engine is nil")
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", logger.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
