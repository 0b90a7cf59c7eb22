package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockwatch/internal/usecase"
)

type Server struct {
	engine     *gin.Engine
	addr       string
	jwtSecret  string
	users      *usecase.UserUsecase
	thresholds *usecase.ThresholdUsecase
	indices    *usecase.IndicesUsecase
	logger     *zap.Logger
}

func NewServer(
	addr string,
	jwtSecret string,
	users *usecase.UserUsecase,
	thresholds *usecase.ThresholdUsecase,
	indices *usecase.IndicesUsecase,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:     engine,
		addr:       addr,
		jwtSecret:  jwtSecret,
		users:      users,
		thresholds: thresholds,
		indices:    indices,
		logger:     logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.health)

	authed := s.engine.Group("/", s.AuthRequired())
	authed.POST("/thresholds", s.createThreshold)
	authed.GET("/thresholds", s.listThresholds)
	authed.DELETE("/thresholds/:id", s.deleteThreshold)
	authed.GET("/indices/:symbol/chart", s.getChart)
	authed.GET("/indices/:symbol/details", s.getDetails)

	s.engine.GET("/indices/tickers", s.searchTickers)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info("http server listening", zap.String("addr", s.addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
