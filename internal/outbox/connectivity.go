package outbox

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

// ProbeWatcher polls a lightweight endpoint to track connectivity. State
// changes are reported through the callback, matching what a platform
// reachability API would deliver.
type ProbeWatcher struct {
	probeURL   string
	interval   time.Duration
	httpClient *http.Client
	online     atomic.Bool
	onChange   func(online bool)
}

func NewProbeWatcher(probeURL string, interval time.Duration, onChange func(online bool)) *ProbeWatcher {
	return &ProbeWatcher{
		probeURL: probeURL,
		interval: interval,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		onChange: onChange,
	}
}

func (w *ProbeWatcher) Online() bool {
	return w.online.Load()
}

func (w *ProbeWatcher) Run(ctx context.Context) {
	w.check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("probe watcher: stopping")
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *ProbeWatcher) check(ctx context.Context) {
	online := w.probe(ctx)
	if w.online.Swap(online) == online {
		return
	}

	log.Debugf("probe watcher: connectivity changed, online: %t", online)
	if w.onChange != nil {
		w.onChange(online)
	}
}

func (w *ProbeWatcher) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.probeURL, nil)
	if err != nil {
		return false
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
