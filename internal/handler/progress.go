package handler

import (
	"net/http"

	"github.com/habitmate/habitmate/internal/ctxkeys"
	"github.com/habitmate/habitmate/internal/service"
	"github.com/habitmate/habitmate/internal/stats"
)

type ProgressHandler struct {
	progressService *service.ProgressService
}

func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
	}
}

func (h *ProgressHandler) Report(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.progressService.Report(r.Context(), ctxkeys.OwnerID(r.Context())))
}

// Stream pushes a recomputed "progress" event per habit snapshot.
func (h *ProgressHandler) Stream(w http.ResponseWriter, r *http.Request) {
	stream, ok := newEventStream(w)
	if !ok {
		writeErrorCode(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED", "Streaming is not supported.")
		return
	}

	sub := h.progressService.Watch(r.Context(), ctxkeys.OwnerID(r.Context()),
		func(report *stats.Report) {
			stream.send("progress", report)
		},
		stream.sendError,
	)
	stream.serve(sub)
}
