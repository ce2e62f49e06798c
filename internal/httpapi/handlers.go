// Package httpapi exposes a session over HTTP for status bars and scripts
// that cannot host the terminal monitor.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/allbin/serialmon"
	"github.com/allbin/serialmon/session"
)

// Handler serves the session endpoints
type Handler struct {
	sess   *session.Session
	buffer *Buffer
	log    zerolog.Logger
}

// NewHandler creates a handler. buffer must be the sink the session's
// controller writes to.
func NewHandler(sess *session.Session, buffer *Buffer, log zerolog.Logger) *Handler {
	return &Handler{sess: sess, buffer: buffer, log: log}
}

// Router returns the chi router with all routes mounted
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/status", h.GetStatus)
	r.Get("/ports", h.ListPorts)
	r.Post("/open", h.Open)
	r.Post("/close", h.Close)
	r.Put("/port", h.SelectPort)
	r.Put("/baud", h.ChangeBaudRate)
	r.Post("/send", h.Send)
	r.Get("/output", h.Output)
	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

// Response helpers
func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]interface{}{
		"error": message,
		"code":  status,
	})
}

// outcome writes a notice or an error for an operation result
func outcome(w http.ResponseWriter, notice serialmon.Notice, err error) {
	if err != nil {
		errorResponse(w, errorStatus(err), err.Error())
		return
	}
	body := map[string]interface{}{"status": "ok"}
	if notice != serialmon.NoticeNone {
		body["notice"] = notice.String()
	}
	jsonResponse(w, http.StatusOK, body)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, serialmon.ErrInvalidBaudRate), errors.Is(err, serialmon.ErrNoPortSelected):
		return http.StatusBadRequest
	case errors.Is(err, serialmon.ErrDeviceNotFound):
		return http.StatusNotFound
	case errors.Is(err, serialmon.ErrDeviceInUse):
		return http.StatusConflict
	case errors.Is(err, serialmon.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, session.ErrNoChooser):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// GetStatus returns the display status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	st := h.sess.Status()
	body := map[string]interface{}{
		"port":      st.Port,
		"selected":  st.Selected,
		"open":      st.Open,
		"baud_rate": st.BaudRate,
		"state":     h.sess.Controller().State().String(),
	}
	if err := h.buffer.LastError(); err != nil {
		body["last_error"] = err.Error()
	}
	jsonResponse(w, http.StatusOK, body)
}

type portJSON struct {
	Name         string `json:"name"`
	VendorID     string `json:"vendor_id,omitempty"`
	ProductID    string `json:"product_id,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Product      string `json:"product,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
}

// ListPorts enumerates attached devices
func (h *Handler) ListPorts(w http.ResponseWriter, r *http.Request) {
	ports, err := h.sess.Controller().List()
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]portJSON, 0, len(ports))
	for _, p := range ports {
		out = append(out, portJSON(p))
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"ports": out,
	})
}

// Open opens the selected port
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	notice, err := h.sess.Open(r.Context())
	outcome(w, notice, err)
}

// Close closes the monitor
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	notice, err := h.sess.Close(r.Context())
	outcome(w, notice, err)
}

type selectRequest struct {
	Port string `json:"port"`
	VID  string `json:"vid"`
	PID  string `json:"pid"`
}

// SelectPort selects by name or by USB ids
func (h *Handler) SelectPort(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	switch {
	case req.Port != "":
		outcome(w, serialmon.NoticeNone, h.sess.SelectPort(req.Port))
	case req.VID != "" && req.PID != "":
		notice, err := h.sess.SelectPortByFilter(r.Context(), serialmon.DeviceFilter{VendorID: req.VID, ProductID: req.PID})
		outcome(w, notice, err)
	default:
		errorResponse(w, http.StatusBadRequest, "port or vid and pid required")
	}
}

type baudRequest struct {
	BaudRate int `json:"baud_rate"`
}

// ChangeBaudRate applies a baud rate
func (h *Handler) ChangeBaudRate(w http.ResponseWriter, r *http.Request) {
	var req baudRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.BaudRate <= 0 {
		errorResponse(w, http.StatusBadRequest, serialmon.ErrInvalidBaudRate.Error())
		return
	}

	notice, err := h.sess.ChangeBaudRate(r.Context(), req.BaudRate)
	outcome(w, notice, err)
}

type sendRequest struct {
	Text string `json:"text"`
}

// Send writes text to the open port
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	notice, err := h.sess.Send(r.Context(), req.Text)
	outcome(w, notice, err)
}

// Output returns received bytes verbatim from ?offset=N. The offset to use
// next is in the X-Next-Offset header.
func (h *Handler) Output(w http.ResponseWriter, r *http.Request) {
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errorResponse(w, http.StatusBadRequest, "invalid offset")
			return
		}
		offset = n
	}

	data, next := h.buffer.Since(offset)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Next-Offset", strconv.Itoa(next))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
