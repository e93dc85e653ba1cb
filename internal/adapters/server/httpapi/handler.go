// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hylla/joinboard/internal/adapters/server/common"
	"github.com/hylla/joinboard/internal/app"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// docsPrefix routes realtime-database style document requests.
const docsPrefix = "docs"

// errInvalidBody reports a malformed request payload.
var errInvalidBody = errors.New("invalid request body")

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	docs  app.Documents
	board common.BoardService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter. Either dependency may be nil to disable its routes.
func NewHandler(docs app.Documents, board common.BoardService) *Handler {
	return &Handler{docs: docs, board: board}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := normalizePath(r.URL.Path)
	if path == docsPrefix || strings.HasPrefix(path, docsPrefix+"/") {
		h.handleDocument(w, r, strings.TrimPrefix(path, docsPrefix))
		return
	}
	route, ok := parseBoardRoute(path)
	if !ok {
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
		return
	}
	switch route.action {
	case "":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleBoard(w, r, route)
	case "move":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleMoveTask(w, r, route)
	case "toggle":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleToggleSubtask(w, r, route)
	}
}

// handleDocument serves GET, PUT, and DELETE on `/docs/{path}.json`.
func (h *Handler) handleDocument(w http.ResponseWriter, r *http.Request, rawPath string) {
	if h.docs == nil {
		writeJSONError(w, http.StatusNotImplemented, APIError{
			Code:    "not_implemented",
			Message: "document store is not configured",
		})
		return
	}
	docPath, ok := strings.CutSuffix(rawPath, ".json")
	if !ok {
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "document paths must end in .json",
		})
		return
	}
	if _, err := app.SplitPath(docPath); err != nil {
		writeErrorFrom(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		var value any
		if err := h.docs.Get(r.Context(), docPath, &value); err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusOK, value)
	case http.MethodPut:
		var value any
		if err := decodeJSONBody(r.Context(), w, r, &value); err != nil {
			writeErrorFrom(w, err)
			return
		}
		if err := h.docs.Put(r.Context(), docPath, value); err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusOK, value)
	case http.MethodDelete:
		if err := h.docs.Delete(r.Context(), docPath); err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusOK, nil)
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// handleBoard serves GET `/boards/{user}`.
func (h *Handler) handleBoard(w http.ResponseWriter, r *http.Request, route boardRoute) {
	if !h.requireBoard(w) {
		return
	}
	board, err := h.board.Board(r.Context(), common.BoardRequest{UserID: route.userID})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// moveTaskBody is the POST `/boards/{user}/tasks/{id}/move` payload.
type moveTaskBody struct {
	Column string `json:"column"`
}

// handleMoveTask serves POST `/boards/{user}/tasks/{id}/move`.
func (h *Handler) handleMoveTask(w http.ResponseWriter, r *http.Request, route boardRoute) {
	if !h.requireBoard(w) {
		return
	}
	var body moveTaskBody
	if err := decodeJSONBody(r.Context(), w, r, &body); err != nil {
		writeErrorFrom(w, err)
		return
	}
	task, err := h.board.MoveTask(r.Context(), common.MoveTaskRequest{
		UserID: route.userID,
		TaskID: route.taskID,
		Column: body.Column,
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleToggleSubtask serves POST `/boards/{user}/tasks/{id}/subtasks/{index}/toggle`.
func (h *Handler) handleToggleSubtask(w http.ResponseWriter, r *http.Request, route boardRoute) {
	if !h.requireBoard(w) {
		return
	}
	task, err := h.board.ToggleSubtask(r.Context(), common.ToggleSubtaskRequest{
		UserID: route.userID,
		TaskID: route.taskID,
		Index:  route.index,
	})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) requireBoard(w http.ResponseWriter) bool {
	if h.board != nil {
		return true
	}
	writeJSONError(w, http.StatusNotImplemented, APIError{
		Code:    "not_implemented",
		Message: "board APIs are not available",
	})
	return false
}

// boardRoute is one parsed `/boards/...` path.
type boardRoute struct {
	userID string
	taskID string
	index  int
	action string
}

// parseBoardRoute parses the board endpoints and returns the addressed ids.
func parseBoardRoute(path string) (boardRoute, bool) {
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] != "boards" || strings.TrimSpace(parts[1]) == "" {
		return boardRoute{}, false
	}
	route := boardRoute{userID: parts[1]}
	switch {
	case len(parts) == 2:
		return route, true
	case len(parts) == 5 && parts[2] == "tasks" && parts[4] == "move" && parts[3] != "":
		route.taskID = parts[3]
		route.action = "move"
		return route, true
	case len(parts) == 7 && parts[2] == "tasks" && parts[4] == "subtasks" && parts[6] == "toggle" && parts[3] != "":
		idx, err := strconv.Atoi(parts[5])
		if err != nil || idx < 0 {
			return boardRoute{}, false
		}
		route.taskID = parts[3]
		route.index = idx
		route.action = "toggle"
		return route, true
	default:
		return boardRoute{}, false
	}
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrNotFound), errors.Is(err, app.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, app.ErrInvalidPath):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_path",
			Message: err.Error(),
			Hint:    "Path segments may not be empty or contain . # $ [ ] or /.",
		})
	case errors.Is(err, common.ErrInvalidRequest), errors.Is(err, errInvalidBody):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(errInvalidBody, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", errInvalidBody)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
