package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"studentpass/ml"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var formTemplate = template.Must(
	template.New("form.html").
		Funcs(template.FuncMap{"lower": strings.ToLower}).
		ParseFS(templateFS, "templates/form.html"),
)

// formState is where a form submission is in its cycle. Every GET or new
// submission starts over from stateAwaitingInput.
type formState string

const (
	stateAwaitingInput formState = "awaiting_input"
	stateShowResult    formState = "show_result"
	stateShowError     formState = "show_error"
)

type formView struct {
	State      formState
	Columns    [2][]formControl
	Prediction string
	Row        []ml.Feature
	Error      string
	Fields     []ml.FieldError
}

func RegisterFormHandlers(mux *http.ServeMux, h *handlers) {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	mux.HandleFunc("GET /{$}", h.handleForm)
	mux.HandleFunc("POST /predict", h.handleFormSubmit)
}

func (h *handlers) handleForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, http.StatusOK, formView{
		State:   stateAwaitingInput,
		Columns: formColumns(ml.DefaultInput()),
	})
}

func (h *handlers) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	start := time.Now()
	in, err := parseForm(r.PostForm)
	view := formView{Columns: formColumns(in.Normalize())}
	var pred *ml.Prediction
	if err == nil {
		pred, err = h.svc.Predict(r.Context(), in)
	}
	h.observe(pred, err, start)
	if err == nil {
		view.State = stateShowResult
		view.Prediction = pred.Label.String()
		view.Row = pred.Row.Features()
		h.renderForm(w, http.StatusOK, view)
		return
	}

	status, payload := errorPayload(err)
	view.State = stateShowError
	view.Error = payload.Error
	view.Fields = payload.Fields
	var perr *ml.PredictionError
	if errors.As(err, &perr) {
		// show what the model was given, as for a successful prediction
		if row, encErr := h.svc.Encode(in); encErr == nil {
			view.Row = row.Features()
		}
	}
	h.renderForm(w, status, view)
}

func (h *handlers) renderForm(w http.ResponseWriter, status int, view formView) {
	var buf bytes.Buffer
	if err := formTemplate.Execute(&buf, view); err != nil {
		h.logger.Error("render form", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
