package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/agent"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/monitoring"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the enrichment RPC over HTTP",
	Long:  "Exposes POST /enrich with the job-runner contract and GET /healthz with the monitoring snapshot.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, err := buildEngine(ctx, cfg)
		if err != nil {
			return err
		}

		// Background alert checker, webhook-delivered when configured.
		alerter := monitoring.NewAlerter(monitoring.AlerterConfig{
			WebhookURL:         cfg.Monitoring.WebhookURL,
			ErrorRateThreshold: cfg.Monitoring.ErrorRateThreshold,
		})
		checker := monitoring.NewChecker(eng.Collector, alerter,
			time.Duration(cfg.Monitoring.CheckIntervalSecs)*time.Second)
		go checker.Run(ctx)

		r := newRouter(eng.Executor, eng.Collector)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "cmd: server listen")
		}

		return nil
	},
}

// newRouter builds the serve-mode HTTP surface.
func newRouter(executor *agent.Executor, collector *monitoring.Collector) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		snap := collector.Collect(req.Context())
		code := http.StatusOK
		if snap.Status == monitoring.StatusDown {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(snap) //nolint:errcheck
	})

	r.Post("/enrich", func(w http.ResponseWriter, req *http.Request) {
		var er model.EnrichRequest
		if err := json.NewDecoder(req.Body).Decode(&er); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if er.RowID == "" {
			http.Error(w, `{"error":"rowId is required"}`, http.StatusBadRequest)
			return
		}

		result := executor.Enrich(req.Context(), er)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(result) //nolint:errcheck
	})

	return r
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
