package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/gardener-conformance/pkg/logging"
	"github.com/ritzau/gardener-conformance/pkg/pubsub"
	"github.com/ritzau/gardener-conformance/pkg/runner"
)

// Server exposes the latest conformance report and live progress
type Server struct {
	router    *mux.Router
	publisher *pubsub.SSEPublisher

	mu       sync.RWMutex
	report   *runner.Report
	progress pubsub.SuiteStatus
}

// NewServer creates a new web server
func NewServer() *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// suite_status: only the current state matters to a new subscriber
	ssePublisher.ConfigureTopic(pubsub.TopicSuiteStatus, pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false,
	})

	// case_result: replay the cases of the current run, the first case of a
	// new run drops the previous one
	ssePublisher.ConfigureTopic(pubsub.TopicCaseResult, pubsub.TopicConfig{
		BufferSize: 64,
		ReplayAll:  true,
	})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: ssePublisher,
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// BeginRun resets the progress counters and announces a new run
func (s *Server) BeginRun(runID string) {
	s.mu.Lock()
	s.progress = pubsub.SuiteStatus{RunID: runID, State: pubsub.StateRunning, Message: "conformance run started"}
	status := s.progress
	s.mu.Unlock()

	s.publish(runID, pubsub.TopicSuiteStatus, status.State, status)
}

// Observe records a finished case. It is meant to be the runner's observer.
func (s *Server) Observe(c runner.CaseResult) {
	s.mu.Lock()
	s.progress.Done++
	switch c.Status {
	case runner.Passed:
		s.progress.Passed++
	case runner.Failed:
		s.progress.Failed++
	case runner.Skipped:
		s.progress.Skipped++
	}
	s.progress.State = pubsub.StateRunning
	s.progress.Message = c.ID()
	status := s.progress
	s.mu.Unlock()

	s.publish(status.RunID, pubsub.TopicCaseResult, string(c.Status), pubsub.CaseEvent{
		ID:      c.ID(),
		Status:  string(c.Status),
		Message: c.Message,
	})
	s.publish(status.RunID, pubsub.TopicSuiteStatus, status.State, status)
}

// SetReport stores the finished report and publishes the final state
func (s *Server) SetReport(r *runner.Report) {
	state := pubsub.StatePassed
	if !r.OK() {
		state = pubsub.StateFailed
	}
	status := pubsub.SuiteStatus{
		RunID:   r.RunID,
		State:   state,
		Message: fmt.Sprintf("%d/%d cases passed", r.Passed, r.Passed+r.Failed),
		Done:    len(r.Cases),
		Passed:  r.Passed,
		Failed:  r.Failed,
		Skipped: r.Skipped,
	}

	s.mu.Lock()
	s.report = r
	s.progress = status
	s.mu.Unlock()

	s.publish(r.RunID, pubsub.TopicSuiteStatus, state, status)
}

func (s *Server) publish(runID, topic, eventType string, data interface{}) {
	if err := s.publisher.Publish(runID, topic, eventType, data); err != nil {
		logging.Warn("failed to publish event", "topic", topic, "error", err)
	}
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)

	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/suite_status", s.handleSubscribe(pubsub.TopicSuiteStatus)).Methods("GET")
	s.router.HandleFunc("/api/subscribe/case_result", s.handleSubscribe(pubsub.TopicCaseResult)).Methods("GET")

	s.router.HandleFunc("/api/status", s.handleStatus).Methods("GET")
	s.router.HandleFunc("/api/report", s.handleReport).Methods("GET")
	s.router.HandleFunc("/api/cases/{suite}/{name}", s.handleCase).Methods("GET")
}

func (s *Server) handleSubscribe(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Set SSE headers
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		// Send initial comment to establish connection (Safari compatibility)
		fmt.Fprintf(w, ": connected\n\n")
		flush(w)

		sub, err := s.publisher.Subscribe(r.Context(), topic)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer sub.Close()

		for {
			select {
			case <-r.Context().Done():
				return
			case event, ok := <-sub.Events():
				if !ok {
					return
				}
				if err := pubsub.WriteSSE(w, event); err != nil {
					logging.WarnContext(r.Context(), "error writing SSE event", "error", err)
					return
				}
				flush(w)
			}
		}
	}
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	status := s.progress
	s.mu.RUnlock()

	writeJSON(w, r, status)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	report := s.report
	s.mu.RUnlock()

	if report == nil {
		http.Error(w, "no report yet", http.StatusNotFound)
		return
	}
	writeJSON(w, r, report)
}

func (s *Server) handleCase(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["suite"] + "/" + vars["name"]

	s.mu.RLock()
	report := s.report
	s.mu.RUnlock()

	if report == nil {
		http.Error(w, "no report yet", http.StatusNotFound)
		return
	}
	c, ok := report.Case(id)
	if !ok {
		http.Error(w, fmt.Sprintf("case not found: %s", id), http.StatusNotFound)
		return
	}
	writeJSON(w, r, c)
}

func writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.WarnContext(r.Context(), "failed to encode response", "error", err)
	}
}

// Start serves until ctx is canceled
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts end with ctx so open event streams let go
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("web server shutdown failed", "error", err)
		}
	}()

	logging.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// Close shuts down the event publisher
func (s *Server) Close() error {
	return s.publisher.Close()
}
