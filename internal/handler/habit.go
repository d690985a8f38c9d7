package handler

import (
	"net/http"

	"github.com/habitmate/habitmate/internal/ctxkeys"
	"github.com/habitmate/habitmate/internal/model"
	"github.com/habitmate/habitmate/internal/service"
)

type HabitHandler struct {
	habitService *service.HabitService
}

func NewHabitHandler(habitService *service.HabitService) *HabitHandler {
	return &HabitHandler{
		habitService: habitService,
	}
}

type habitsResponse struct {
	Habits []*model.Habit `json:"habits"`
	// Stale is set when the list came from the local cache
	Stale bool `json:"stale"`
}

// List serves the owner's habits, filtered by ?q= or ?category= when given.
func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())
	query := r.URL.Query()

	switch {
	case query.Get("q") != "":
		writeJSON(w, http.StatusOK, habitsResponse{Habits: h.habitService.Search(r.Context(), ownerID, query.Get("q"))})
		return
	case query.Get("category") != "":
		writeJSON(w, http.StatusOK, habitsResponse{Habits: h.habitService.ByCategory(r.Context(), ownerID, query.Get("category"))})
		return
	}

	habits := h.habitService.List(r.Context(), ownerID)
	if len(habits) == 0 {
		// A failed read yields an empty list; show the last known one instead
		if cached := h.habitService.CachedHabits(r.Context(), ownerID); len(cached) > 0 {
			writeJSON(w, http.StatusOK, habitsResponse{Habits: cached, Stale: true})
			return
		}
	}

	writeJSON(w, http.StatusOK, habitsResponse{Habits: habits})
}

func (h *HabitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.HabitInput
	if !decodeJSON(w, r, &input) {
		return
	}

	habit, err := h.habitService.Create(r.Context(), ctxkeys.OwnerID(r.Context()), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, habit)
}

func (h *HabitHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch service.HabitPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	habit, err := h.habitService.Update(r.Context(), ctxkeys.OwnerID(r.Context()), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, habit)
}

func (h *HabitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.habitService.Remove(r.Context(), ctxkeys.OwnerID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *HabitHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	habit, err := h.habitService.ToggleCompletion(r.Context(), ctxkeys.OwnerID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, habit)
}

// Stream pushes a "habits" event per snapshot until the client disconnects.
func (h *HabitHandler) Stream(w http.ResponseWriter, r *http.Request) {
	stream, ok := newEventStream(w)
	if !ok {
		writeErrorCode(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED", "Streaming is not supported.")
		return
	}

	sub := h.habitService.Subscribe(r.Context(), ctxkeys.OwnerID(r.Context()),
		func(habits []*model.Habit) {
			stream.send("habits", habitsResponse{Habits: habits})
		},
		stream.sendError,
	)
	stream.serve(sub)
}
