package servehttp

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// StartHTTPServer serves handler on addr until SIGINT or SIGTERM, then drains in-flight
// requests within timeout.
func StartHTTPServer(addr string, handler http.Handler, timeout time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	logrus.Infof("http server listening on %s", lis.Addr())
	return Serve(ctx, lis, handler, timeout)
}

// Serve runs until ctx is done. Requests still running after timeout are abandoned.
func Serve(ctx context.Context, lis net.Listener, handler http.Handler, timeout time.Duration) error {
	srv := &http.Server{Handler: handler}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(lis)
	}()

	select {
	case err := <-serveErr:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logrus.Infof("[QUIT] shutdown signal has been received, draining requests within %s", timeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("[QUIT] http server shutdown failed: %v", err)
		return err
	}
	logrus.Info("[QUIT] http server is shutdown gracefully")
	return nil
}
