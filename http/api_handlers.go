package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"studentpass/ml"
)

func RegisterAPIHandlers(mux *http.ServeMux, h *handlers) {
	mux.HandleFunc("POST /api/predict", h.handlePredict)
}

type predictResponse struct {
	Label      int          `json:"label"`
	Prediction string       `json:"prediction"`
	Row        []ml.Feature `json:"row"`
	Cached     bool         `json:"cached"`
	ElapsedMS  float64      `json:"elapsed_ms"`
}

func newPredictResponse(pred *ml.Prediction, start time.Time) predictResponse {
	resp := predictResponse{
		Label:      int(pred.Label),
		Prediction: pred.Label.String(),
		Row:        pred.Row.Features(),
		Cached:     pred.Cached,
	}
	if !start.IsZero() {
		resp.ElapsedMS = float64(time.Since(start).Microseconds()) / 1000
	}
	return resp
}

// decodeInput reads a JSON submission over the form defaults. Unknown keys
// are ignored.
func decodeInput(data []byte) (ml.RawInput, error) {
	in := ml.DefaultInput()
	if err := json.Unmarshal(data, &in); err != nil {
		return in, &ml.ValidationError{Fields: []ml.FieldError{{Field: "body", Message: err.Error()}}}
	}
	return in, nil
}

// predictJSON decodes one submission and runs it through the service.
func (h *handlers) predictJSON(ctx context.Context, data []byte) (*ml.Prediction, error) {
	start := time.Now()
	in, err := decodeInput(data)
	if err != nil {
		h.observe(nil, err, start)
		return nil, err
	}
	pred, err := h.svc.Predict(ctx, in)
	h.observe(pred, err, start)
	return pred, err
}

func (h *handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	if !isJSONRequest(r) {
		respondJSON(w, http.StatusUnsupportedMediaType, errorResponse{Error: "content type must be application/json"})
		return
	}

	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	pred, err := h.predictJSON(r.Context(), body)
	if err == nil {
		respondJSON(w, http.StatusOK, newPredictResponse(pred, GetStartTime(r.Context())))
		return
	}

	status, payload := errorPayload(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("predict", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
	}
	respondJSON(w, status, payload)
}
