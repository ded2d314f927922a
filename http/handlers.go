package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"studentpass/ml"
	"studentpass/monitoring"
)

type handlers struct {
	svc     *ml.Service
	metrics *monitoring.MetricsCollector
	logger  *zap.Logger
}

func newHandlers(svc *ml.Service, logger *zap.Logger) *handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &handlers{svc: svc, metrics: monitoring.NewMetricsCollector(), logger: logger}
}

func RegisterHandlers(mux *http.ServeMux, h *handlers) {
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/schema", h.handleSchema)
	mux.HandleFunc("GET /api/metrics", h.handleMetrics)
	mux.HandleFunc("GET /metrics", h.handlePrometheus)
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type schemaResponse struct {
	Model    string   `json:"model"`
	Kind     string   `json:"kind"`
	Columns  []string `json:"columns"`
	Dropped  []string `json:"dropped,omitempty"`
	Unmapped []string `json:"unmapped,omitempty"`
}

func (h *handlers) handleSchema(w http.ResponseWriter, r *http.Request) {
	bundle := h.svc.Bundle()
	enc := h.svc.Encoder()
	respondJSON(w, http.StatusOK, schemaResponse{
		Model:    bundle.Name,
		Kind:     bundle.Kind,
		Columns:  enc.Schema().Columns(),
		Dropped:  enc.Dropped(),
		Unmapped: enc.Unmapped(),
	})
}

func (h *handlers) handleMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.metrics.Snapshot())
}

func (h *handlers) handlePrometheus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.Write([]byte(h.metrics.ExportPrometheus()))
}

// observe records the outcome of one submission.
func (h *handlers) observe(pred *ml.Prediction, err error, start time.Time) {
	if err != nil {
		_, payload := errorPayload(err)
		kind := payload.Kind
		if kind == "" {
			kind = "internal"
		}
		h.metrics.RecordError(kind)
		return
	}
	h.metrics.RecordPrediction(pred.Label.String(), pred.Cached, time.Since(start))
}

type errorResponse struct {
	Error  string          `json:"error"`
	Kind   string          `json:"kind,omitempty"`
	Fields []ml.FieldError `json:"fields,omitempty"`
}

// errorPayload maps a prediction or validation failure to a status code and body.
func errorPayload(err error) (int, errorResponse) {
	var verr *ml.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, errorResponse{Error: "invalid input", Kind: "validation", Fields: verr.Fields}
	}
	var perr *ml.PredictionError
	if errors.As(err, &perr) {
		return http.StatusUnprocessableEntity, errorResponse{Error: perr.Error(), Kind: string(perr.Kind)}
	}
	return http.StatusInternalServerError, errorResponse{Error: err.Error()}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
