package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cosmossdk.io/log"

	"github.com/subhasisjena1643/tapnad/internal/app"
)

const heartbeatInterval = 15 * time.Second

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func handleHealth(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, height, err := src.Snapshot()
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "initializing", Height: height})
			return
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Height: height})
	}
}

func handleGame(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, height, err := src.Snapshot()
		if errors.Is(err, app.ErrNotInitialized) {
			writeError(w, http.StatusServiceUnavailable, "chain not initialized")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, GameResponse{Height: height, Game: view})
	}
}

func handleResults(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := src.Results()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}

// handleEvents streams committed notifications as server-sent events. Each
// event is named after the notification type.
func handleEvents(logger log.Logger, sub Subscriber, heartbeat time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		id, ch := sub.Subscribe()
		defer sub.Unsubscribe(id)

		ping := time.NewTicker(heartbeat)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case n, open := <-ch:
				if !open {
					return
				}
				data, err := json.Marshal(n)
				if err != nil {
					logger.Error("encode notification", "type", n.Type, "err", err)
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", n.Type, data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
