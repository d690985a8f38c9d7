package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/habitmate/habitmate/internal/repository"
	"github.com/habitmate/habitmate/internal/service"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeError maps service errors to a status and error code.
// Anything unrecognised is logged and reported as a 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeErrorCode(w, http.StatusBadRequest, "VALIDATION", err.Error())
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrProfileNotFound),
		errors.Is(err, repository.ErrFileNotFound):
		writeErrorCode(w, http.StatusNotFound, "NOT_FOUND", "The requested record does not exist.")
	case errors.Is(err, service.ErrTransport):
		slog.Warn("store unavailable", "path", r.URL.Path, "error", err)
		writeErrorCode(w, http.StatusServiceUnavailable, "UNAVAILABLE", "The habit store is unavailable. Please try again.")
	case errors.Is(err, service.ErrUpload):
		slog.Error("upload failed", "path", r.URL.Path, "error", err)
		writeErrorCode(w, http.StatusBadGateway, "UPLOAD_FAILED", "The upload could not be stored.")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeErrorCode(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password.")
	case errors.Is(err, service.ErrInvalidCurrentPassword):
		writeErrorCode(w, http.StatusBadRequest, "INVALID_PASSWORD", "Current password is incorrect.")
	case errors.Is(err, service.ErrEmailAlreadyExists):
		writeErrorCode(w, http.StatusConflict, "EMAIL_EXISTS", "An account with this email already exists.")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeErrorCode(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong.")
	}
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		writeErrorCode(w, http.StatusBadRequest, "BAD_REQUEST", "Request body must be valid JSON.")
		return false
	}
	return true
}
