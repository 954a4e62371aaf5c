// Package web serves the ground-control HTTP surface: a status snapshot,
// arm/disarm actions, and a websocket stream of motor-state changes.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"quadfc/internal/bus"
	"quadfc/internal/motor"
	"quadfc/internal/safety"
)

var upgrader = websocket.Upgrader{
	// The FC has no browser-facing auth; it lives on the vehicle's own AP.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func Handler(status *Status, monitor *safety.Monitor, state *bus.Mailbox[motor.State]) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		snap := status.Snapshot(time.Now().UTC())
		b, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			http.Error(w, "marshal failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
		_, _ = w.Write([]byte("\n"))
	})

	mux.HandleFunc("/api/arm", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		// Clearing the disarm flag is all the operator can do; the other
		// blocker bits belong to the safety monitors.
		monitor.ClearDisarm()
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/api/disarm", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		monitor.Disarm()
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/ws/state", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		streamState(r.Context(), conn, status, state.Subscribe())
	})

	return mux
}

// streamState pushes a fresh snapshot on every motor-state change until
// the client goes away.
func streamState(ctx context.Context, conn *websocket.Conn, status *Status, sub *bus.Subscriber[motor.State]) {
	// Reader goroutine only to detect close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Initial snapshot so the client renders immediately.
	if err := conn.WriteJSON(status.Snapshot(time.Now().UTC())); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-sub.Changed():
			// Merge the event's state in directly; the tracker may not
			// have consumed this update yet.
			snap := status.Snapshot(time.Now().UTC()).withState(sub.Latest())
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		}
	}
}

// Serve runs the HTTP server until ctx is canceled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("web: listening on %s", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
