package main

import (
	"errors"
	"net"
	"net/http"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	"golang.org/x/xerrors"
)

// metricsServer exposes the registered opencensus views for prometheus scraping
// while a command runs.
type metricsServer struct {
	srv *http.Server
	ln  net.Listener
}

func startMetricsServer(addr string) (*metricsServer, error) {
	exporter, err := prometheus.NewExporter(prometheus.Options{
		Namespace: "nse",
	})
	if err != nil {
		return nil, xerrors.Errorf("creating prometheus exporter: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/debug/metrics", exporter)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, xerrors.Errorf("listening on %s: %w", addr, err)
	}

	ms := &metricsServer{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}

	go func() {
		if err := ms.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("metrics server failed", "error", err)
		}
	}()

	log.Infow("serving metrics", "addr", ln.Addr().String())
	return ms, nil
}

func (ms *metricsServer) Addr() string {
	return ms.ln.Addr().String()
}

func (ms *metricsServer) Close() error {
	return ms.srv.Close()
}
