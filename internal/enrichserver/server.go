// Package enrichserver exposes the enrichment pipeline over HTTP.
package enrichserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anatolykoptev/go_enrich/internal/engine/profile"
	"github.com/anatolykoptev/go_enrich/internal/pdfgen"
	"github.com/anatolykoptev/go_enrich/internal/personalize"
	"github.com/anatolykoptev/go_enrich/internal/store"
)

// Server wires the resolution engine, personalization, persistence, and
// rendering behind a gin router.
type Server struct {
	engine   *profile.Engine
	gen      *personalize.Generator
	store    store.Store
	renderer *pdfgen.Renderer
	router   *gin.Engine
}

func NewServer(engine *profile.Engine, gen *personalize.Generator, st store.Store, renderer *pdfgen.Renderer) *Server {
	router := gin.Default()

	s := &Server{
		engine:   engine,
		gen:      gen,
		store:    st,
		renderer: renderer,
		router:   router,
	}

	router.POST("/enrich", s.handleEnrich)
	router.POST("/enrich/batch", s.handleEnrichBatch)
	router.GET("/profile/:email", s.handleProfile)
	router.GET("/job/:id", s.handleJob)
	router.POST("/pdf/:email", s.handlePDF)
	router.GET("/health", s.handleHealth)
	router.GET("/metrics", s.handleMetrics)

	return s
}

// Run serves until SIGINT/SIGTERM, then drains in-flight requests.
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
