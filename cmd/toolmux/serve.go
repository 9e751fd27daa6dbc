package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/standardbeagle/toolmux/internal/logging"
	"github.com/standardbeagle/toolmux/internal/manager"
	"github.com/standardbeagle/toolmux/internal/metrics"
)

const defaultServeAddr = ":9090"

// cmdServe keeps the manager running with health monitoring and exposes
// /metrics and /healthz over HTTP until interrupted.
func cmdServe(args []string) {
	addr := defaultServeAddr
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--addr", "-a":
			if i+1 < len(args) {
				i++
				addr = args[i]
			}
		case "--help", "-h":
			fmt.Println("Usage: toolmux serve [--addr host:port]")
			return
		}
	}

	log := logging.Default()

	ctx, cancel := signalContext()
	defer cancel()

	m := metrics.NewMetrics()
	mgr, err := connectManager(ctx, manager.WithRecorder(m))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = mgr.ShutdownAll() }()
	m.RegisterManager(mgr)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		agg := mgr.GetMetrics()
		status := http.StatusOK
		if agg.TotalBackends > 0 && agg.ConnectedBackends == 0 {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(mgr.GetHealth())
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("serving", "addr", addr)
	fmt.Printf("toolmux serving on %s (endpoints: /metrics, /healthz)\n", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
