package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/stridefit/backend/internal/clock"
	"github.com/stridefit/backend/internal/config"
	"github.com/stridefit/backend/internal/logging"
	"github.com/stridefit/backend/internal/outbox"
	"github.com/stridefit/backend/internal/telemetry/metrics"
	"github.com/stridefit/backend/pkg"
)

// The sync agent runs next to the app on the device: it keeps the offline
// queue, watches connectivity, and replays pending actions against the
// backend. The app talks to it over a local HTTP endpoint.

func main() {
	fmt.Println("starting sync agent ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	port := flag.Int("port", 8911, "local port the app dispatches actions to")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    false,
		Environment:      cfg.Environment,
		SentryEnabled:    false,
		SentryDSN:        "",
		SentryServerName: "stridefit-agent",
	})

	appSecret := os.Getenv("STRIDEFIT_APP_SECRET")
	if appSecret == "" {
		log.Errorf("app secret not set. use STRIDEFIT_APP_SECRET")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := newQueueStore(ctx, cfg.Agent)
	if err != nil {
		log.Fatalf("new queue store: %s", err)
	}

	systemClock := clock.NewSystemClock()
	queue, err := outbox.NewQueue(ctx, store, systemClock)
	if err != nil {
		log.Fatalf("load queue: %s", err)
	}
	log.Infof("queue loaded, %d pending actions", queue.PendingCount())

	submitter := outbox.NewHTTPSubmitter(cfg.Agent.ServerBaseURL, appSecret)

	promRegistry := prometheus.NewRegistry()
	metricsManager := metrics.NewManager("stridefit", "agent", promRegistry)

	probeURL := cfg.Agent.ProbeURL
	if probeURL == "" {
		probeURL = cfg.Agent.ServerBaseURL + "/ping"
	}
	probeInterval := time.Duration(cfg.Agent.ProbeIntervalSecs) * time.Second
	if probeInterval <= 0 {
		probeInterval = 15 * time.Second
	}

	coordinator := outbox.NewCoordinator(
		queue, submitter, nil, // online checker set below, after the watcher exists
		outbox.NewDeadLetterLog(cfg.Agent.DataDir),
		systemClock,
		metricsManager,
	)
	watcher := outbox.NewProbeWatcher(probeURL, probeInterval, coordinator.NotifyConnectivity)
	coordinator.SetOnlineChecker(watcher)

	dispatcher := outbox.NewDispatcher(queue, submitter, watcher, func(int) {
		coordinator.NotifyEnqueued()
	})

	go watcher.Run(ctx)
	go coordinator.Run(ctx)

	localAddr := net.JoinHostPort("localhost", strconv.Itoa(*port))
	httpServer := &http.Server{
		Addr:    localAddr,
		Handler: localRouter(dispatcher, queue, promRegistry),
	}
	go func() {
		log.Infof(" > agent listening on: [%s]", localAddr)
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("agent, listen and serve: %s", err)
		}
	}()

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)
	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, shutting down ...", receivedSig)
	cancel()

	shutdownCtx, timeoutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer timeoutCancel()
	shutdownErr := multierr.Combine(
		httpServer.Shutdown(shutdownCtx),
		store.Close(),
	)
	if shutdownErr != nil {
		log.Errorf("failed to shut down cleanly: %s", shutdownErr)
	}
	log.Warnln("agent shut down")
}

func newQueueStore(ctx context.Context, cfg config.Agent) (outbox.Store, error) {
	switch cfg.QueueStore {
	case "sqlite":
		return outbox.NewSQLiteStore(ctx, cfg.DataDir+"/outbox.db")
	case "file", "":
		return outbox.NewFileStore(cfg.DataDir)
	default:
		return nil, fmt.Errorf("unknown queue store type: %s", cfg.QueueStore)
	}
}

type dispatchRequest struct {
	Method  string          `json:"method"`
	Target  string          `json:"target"`
	Payload json.RawMessage `json:"payload"`
}

type dispatchResponse struct {
	Delivered bool   `json:"delivered"`
	ActionID  string `json:"actionId"`
	Pending   int    `json:"pending"`
}

func localRouter(dispatcher *outbox.Dispatcher, queue *outbox.Queue, promRegistry *prometheus.Registry) *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})).Methods("GET")

	r.HandleFunc("/dispatch", func(w http.ResponseWriter, req *http.Request) {
		var dr dispatchRequest
		if err := json.NewDecoder(req.Body).Decode(&dr); err != nil {
			http.Error(w, "parse request", http.StatusBadRequest)
			return
		}
		if dr.Method == "" || dr.Target == "" {
			http.Error(w, "method and target are required", http.StatusBadRequest)
			return
		}

		res, err := dispatcher.Dispatch(req.Context(), dr.Method, dr.Target, dr.Payload)
		if err != nil {
			var apiErr *outbox.APIError
			if errors.As(err, &apiErr) {
				// the server rejected it, relay the rejection to the app
				pkg.WriteResponse(w, pkg.ContentTypeText, apiErr.Body, apiErr.StatusCode)
				return
			}
			log.Errorf("dispatch %s %s: %s", dr.Method, dr.Target, err)
			http.Error(w, "dispatch failed", http.StatusInternalServerError)
			return
		}

		pkg.WriteJSONResponse(w, http.StatusOK, dispatchResponse{
			Delivered: res.Delivered,
			ActionID:  res.ActionID,
			Pending:   queue.PendingCount(),
		})
	}).Methods("POST")

	r.HandleFunc("/queue/status", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteJSONResponse(w, http.StatusOK, map[string]int{
			"pending": queue.PendingCount(),
		})
	}).Methods("GET")

	return r
}
