package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Tutortoise/ascii-vtuber/logger"
	"github.com/Tutortoise/ascii-vtuber/models"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

const (
	MsgSearching = "No face in view. Move into the camera frame with your face clearly visible."
	MsgTracking  = "Face tracked. Head motion is being sent to the renderer."
)

// Metrics is shared between the tracking loop and the monitoring routes.
type Metrics struct {
	mu sync.RWMutex

	runID   string
	started time.Time

	frames     int64
	found      int64
	missed     int64
	gated      int64
	sent       int64
	sendErrors int64
	inferred   int64
	inference  time.Duration

	state      string
	lastEst    models.PoseEstimate
	lastRecord models.MotionRecord
	hasRecord  bool
}

func NewMetrics(runID string) *Metrics {
	return &Metrics{runID: runID, started: time.Now(), state: StateSearching}
}

// MetricsSnapshot is the /metrics response body.
type MetricsSnapshot struct {
	RunID           string  `json:"run_id"`
	State           string  `json:"state"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
	Frames          int64   `json:"frames"`
	Found           int64   `json:"found"`
	Missed          int64   `json:"missed"`
	Gated           int64   `json:"gated"`
	Sent            int64   `json:"sent"`
	SendErrors      int64   `json:"send_errors"`
	MeanInferenceMS float64 `json:"mean_inference_ms"`
}

// PoseResponse is the /pose response body.
type PoseResponse struct {
	State    string               `json:"state"`
	Message  string               `json:"message"`
	Estimate models.PoseEstimate  `json:"estimate"`
	Record   *models.MotionRecord `json:"record,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (m *Metrics) observe(est models.PoseEstimate, t *models.ProcessingTimings, gated bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames++
	if est.Found {
		m.found++
	} else {
		m.missed++
	}
	if gated {
		m.gated++
	} else {
		m.inferred++
		m.inference += t.Inference
	}
	m.lastEst = est
}

func (m *Metrics) recordSend(rec models.MotionRecord, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.sendErrors++
		return
	}
	m.sent++
	m.lastRecord = rec
	m.hasRecord = true
}

func (m *Metrics) setState(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := MetricsSnapshot{
		RunID:         m.runID,
		State:         m.state,
		UptimeSeconds: time.Since(m.started).Seconds(),
		Frames:        m.frames,
		Found:         m.found,
		Missed:        m.missed,
		Gated:         m.gated,
		Sent:          m.sent,
		SendErrors:    m.sendErrors,
	}
	if m.inferred > 0 {
		s.MeanInferenceMS = float64(m.inference) / float64(m.inferred) / float64(time.Millisecond)
	}
	return s
}

// AddMonitoringRoutes registers GET /metrics and GET /pose on r.
func (m *Metrics) AddMonitoringRoutes(r *mux.Router) {
	r.HandleFunc("/metrics", m.handleMetrics).Methods(http.MethodGet)
	r.HandleFunc("/pose", m.handlePose).Methods(http.MethodGet)
}

func (m *Metrics) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, m.Snapshot())
}

func (m *Metrics) handlePose(w http.ResponseWriter, _ *http.Request) {
	m.mu.RLock()
	frames := m.frames
	resp := PoseResponse{State: m.state, Estimate: m.lastEst}
	if m.hasRecord {
		rec := m.lastRecord
		resp.Record = &rec
	}
	m.mu.RUnlock()

	if frames == 0 {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Code: "no_frames", Message: "no frame has been processed yet"})
		return
	}
	resp.Message = MsgSearching
	if resp.State == StateTracking {
		resp.Message = MsgTracking
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ServeMonitoring serves the monitoring routes on addr until ctx is done.
func ServeMonitoring(ctx context.Context, addr string, m *Metrics) error {
	r := mux.NewRouter()
	m.AddMonitoringRoutes(r)
	srv := &http.Server{
		Handler:      r,
		Addr:         addr,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Entry(ctx).WithField("addr", addr).Info("monitoring server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "monitoring server")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		<-errc
		return nil
	}
}
