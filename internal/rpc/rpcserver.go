package rpc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/6529-Collections/flipscan/internal/metrics"
	"github.com/6529-Collections/flipscan/internal/rpc/handlers"
	"go.uber.org/zap"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func newMux(provider handlers.ReportProvider, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()

	handlers.SetupHandlers(mux, handlers.MethodHandlers{
		handlers.CreateApiPath(handlers.ApiV1, "status"): {
			handlers.HTTP_GET: func(r *http.Request) (any, error) {
				return handlers.StatusGetHandler(r, provider)
			},
		},
		handlers.CreateApiPath(handlers.ApiV1, "flips"): {
			handlers.HTTP_GET: func(r *http.Request) (any, error) {
				return handlers.FlipsGetHandler(r, provider)
			},
		},
	})
	if m != nil {
		mux.Handle("/metrics", m.Handler())
	}
	return mux
}

// StartRPCServer serves the status, flips and metrics endpoints until the
// returned close function is called.
func StartRPCServer(port int, ctx context.Context, provider handlers.ReportProvider, m *metrics.Metrics) func() {
	zap.L().Info("Starting RPC server on port", zap.Int("port", port))

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:              addr,
		Handler:           loggingMiddleware(newMux(provider, m)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil {
			if err == http.ErrServerClosed {
				zap.L().Info("RPC server closed")
			} else {
				zap.L().Fatal("starting RPC server failed", zap.Error(err))
			}
		}
	}()
	closeFunc := func() {
		zap.L().Info("Closing RPC server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("server shutdown failed", zap.Error(err))
		}
	}
	return closeFunc
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{w, http.StatusOK}
		next.ServeHTTP(rw, r)

		zap.L().Info("Request",
			zap.String("ip", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.statusCode),
		)
	})
}
