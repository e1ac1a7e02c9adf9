package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/stv0g/pion-roulette/pkg/relay"
)

var (
	addr           = flag.String("addr", ":8080", "relay service address, every request is upgraded to a websocket")
	adminAddr      = flag.String("admin-addr", ":9090", "address for metrics, health and API endpoints")
	logLevel       = flag.String("log-level", "info", "log level")
	maxMessageSize = flag.Int64("max-message-size", 64*1024, "maximum size of a signaling message")
)

func handleSignals(signals chan os.Signal, srv *relay.Server, servers ...*http.Server) {
	for range signals {
		srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		for _, s := range servers {
			if err := s.Shutdown(ctx); err != nil {
				logrus.Errorf("Failed to shutdown HTTP server: %s", err)
			}
		}
		cancel()
	}
}

func newAdminHandler(srv *relay.Server) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.Write([]byte("OK"))
	})
	mux.HandleFunc("/api/v1/stats", basicAuth(apiHandle(srv.Registry)))

	return mux
}

func main() {
	flag.Parse()

	lvl, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", err)
	}
	logrus.SetLevel(lvl)

	cfg := relay.DefaultConfig()
	cfg.MaxMessageSize = *maxMessageSize

	srv := relay.NewServer(cfg)
	registerMetrics(srv.Registry)

	handlerChain := promhttp.InstrumentHandlerDuration(metricHttpRequestDuration,
		promhttp.InstrumentHandlerCounter(metricHttpRequestsTotal, srv),
	)

	server := &http.Server{
		Addr:    *addr,
		Handler: handlerChain,
	}

	admin := &http.Server{
		Addr:    *adminAddr,
		Handler: newAdminHandler(srv),
	}

	signals := make(chan os.Signal, 10)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go handleSignals(signals, srv, server, admin)

	go func() {
		logrus.Infof("Admin endpoints listening on: %s", *adminAddr)
		if err := admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Errorf("Failed to listen and serve admin endpoints: %s", err)
		}
	}()

	logrus.Infof("Listening on: %s", *addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logrus.Errorf("Failed to listen and serve: %s", err)
	}
}
