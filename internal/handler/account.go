package handler

import (
	"log/slog"
	"net/http"

	"github.com/habitmate/habitmate/internal/ctxkeys"
	"github.com/habitmate/habitmate/internal/service"
)

// maxUploadBytes leaves room above the 5MB image limit for multipart overhead.
const maxUploadBytes = 6 << 20

type AccountHandler struct {
	authService *service.AuthService
	userService *service.UserService
	fileService *service.FileService
}

func NewAccountHandler(authService *service.AuthService, userService *service.UserService, fileService *service.FileService) *AccountHandler {
	return &AccountHandler{
		authService: authService,
		userService: userService,
		fileService: fileService,
	}
}

type passwordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var body passwordChange
	if !decodeJSON(w, r, &body) {
		return
	}

	err := h.userService.UpdatePassword(r.Context(), ctxkeys.OwnerID(r.Context()), body.CurrentPassword, body.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.OwnerID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	err := r.ParseMultipartForm(maxUploadBytes)
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "BAD_REQUEST", "Failed to parse upload.")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "VALIDATION", "No file uploaded.")
		return
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			slog.Warn("failed to close uploaded file", "error", closeErr)
		}
	}()

	uploaded, err := h.fileService.UploadAvatar(r.Context(), userID, file, header)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"avatarUrl": h.fileService.URL(r.Context(), uploaded)})
}

func (h *AccountHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	err := h.fileService.DeleteUserAvatar(r.Context(), ctxkeys.OwnerID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	err := h.userService.DeleteAccount(r.Context(), ctxkeys.OwnerID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.authService.ClearJWTCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
