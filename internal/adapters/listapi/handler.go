// Package listapi serves the list sync protocol over HTTP.
//
// Every successful response carries the full list as a JSON array. Failures
// are reported as {"error": message} with a status derived from the error
// class: validation 400, unsupported method 405, anything else 500.
package listapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"sharedlist/pkg/domain"
)

// Allowed lists the methods the list endpoint answers.
const Allowed = "GET, POST, DELETE, OPTIONS"

// maxBodyBytes caps request bodies; list commands are tiny.
const maxBodyBytes = 64 << 10

// POST actions.
const (
	ActionAdd      = "add"
	ActionToggle   = "toggle"
	ActionClearAll = "clear_all"
)

// ListService is the subset of core.Service the handler drives.
type ListService interface {
	Read(ctx context.Context) (domain.List, error)
	Add(ctx context.Context, text, addedBy string) (domain.List, error)
	Toggle(ctx context.Context, id int64) (domain.List, error)
	Delete(ctx context.Context, id int64) (domain.List, error)
	ClearAll(ctx context.Context) (domain.List, error)
}

// Handler dispatches list protocol requests to a ListService.
type Handler struct {
	Service ListService
	Logger  *slog.Logger
}

// NewHandler constructs a list handler. A nil logger discards output.
func NewHandler(svc ListService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{Service: svc, Logger: logger}
}

// Request is the JSON body accepted by POST and DELETE.
type Request struct {
	Action  string `json:"action,omitempty"`
	Text    string `json:"text,omitempty"`
	AddedBy string `json:"addedBy,omitempty"`
	ID      *int64 `json:"id,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "list service not configured")
		return
	}
	switch r.Method {
	case http.MethodOptions:
		w.Header().Set("Allow", Allowed)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		list, err := h.Service.Read(r.Context())
		h.respond(w, r, list, err)
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		w.Header().Set("Allow", Allowed)
		h.respond(w, r, nil, domain.ErrMethodNotAllowed)
	}
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		h.respond(w, r, nil, err)
		return
	}
	var list domain.List
	switch req.Action {
	case ActionAdd:
		list, err = h.Service.Add(r.Context(), req.Text, req.AddedBy)
	case ActionToggle:
		if req.ID == nil {
			err = domain.ValidationError{Field: "id", Reason: "is required"}
			break
		}
		list, err = h.Service.Toggle(r.Context(), *req.ID)
	case ActionClearAll:
		list, err = h.Service.ClearAll(r.Context())
	case "":
		err = domain.ValidationError{Field: "action", Reason: "is required"}
	default:
		err = domain.ValidationError{Field: "action", Reason: "unknown action " + req.Action}
	}
	h.respond(w, r, list, err)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		h.respond(w, r, nil, err)
		return
	}
	if req.ID == nil {
		h.respond(w, r, nil, domain.ValidationError{Field: "id", Reason: "is required"})
		return
	}
	list, err := h.Service.Delete(r.Context(), *req.ID)
	h.respond(w, r, list, err)
}

// decodeRequest parses the JSON body. An empty body decodes to a zero Request
// so that the missing field is reported instead of a syntax error.
func decodeRequest(w http.ResponseWriter, r *http.Request) (Request, error) {
	var req Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return Request{}, domain.ValidationError{Field: "body", Reason: "malformed JSON"}
	}
	return req, nil
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, list domain.List, err error) {
	if err == nil {
		if list == nil {
			list = domain.List{}
		}
		writeJSON(w, http.StatusOK, list)
		return
	}
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("list request failed", "method", r.Method, "request_id", RequestIDFromContext(r.Context()), "error", err)
	}
	writeError(w, status, message)
}

// classify maps an error onto a status code and the message safe to return.
func classify(err error) (int, string) {
	var ve domain.ValidationError
	var rv domain.RuleViolationError
	switch {
	case errors.Is(err, domain.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, domain.ErrMethodNotAllowed.Error()
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.As(err, &rv):
		return http.StatusBadRequest, strings.TrimPrefix(rv.Error(), "transaction blocked by rules: ")
	case domain.IsStorage(err):
		return http.StatusInternalServerError, "storage error"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
