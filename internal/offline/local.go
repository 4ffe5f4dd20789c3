package offline

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/order"
)

// LocalHandler is the loopback API the terminal UI uses to hand mutations
// to the sync agent and to read back conflicts.
type LocalHandler struct {
	queue  *Queue
	syncer *Syncer
}

// NewLocalHandler creates a new LocalHandler.
func NewLocalHandler(queue *Queue, syncer *Syncer) *LocalHandler {
	return &LocalHandler{queue: queue, syncer: syncer}
}

// Routes returns the local API router.
func (h *LocalHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/queue", func(r chi.Router) {
		r.Get("/", h.Status)
		r.Post("/", h.Enqueue)
		r.Post("/flush", h.Flush)
		r.Get("/conflicts", h.Conflicts)
		r.Delete("/conflicts/{localID}", h.Dismiss)
	})
	return r
}

type entryResponse struct {
	LocalID   string    `json:"local_id"`
	Kind      string    `json:"kind"`
	State     string    `json:"state"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toEntryResponse(e Entry) entryResponse {
	return entryResponse{
		LocalID:   e.LocalID,
		Kind:      e.Kind,
		State:     e.State,
		Attempts:  e.Attempts,
		LastError: e.LastError,
		CreatedAt: e.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("encode JSON response")
	}
}

func internalError(w http.ResponseWriter, op string, err error) {
	log.WithError(err).Error(op)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

// Enqueue handles POST /queue.
func (h *LocalHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var m order.Mutation
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if m.Kind == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kind is required"})
		return
	}
	if m.LocalID == uuid.Nil {
		m.LocalID = uuid.New()
	}
	if err := h.queue.Enqueue(r.Context(), m); err != nil {
		internalError(w, "enqueue mutation", err)
		return
	}
	h.syncer.Kick()
	writeJSON(w, http.StatusAccepted, map[string]string{"local_id": m.LocalID.String()})
}

// Status handles GET /queue: state counts and what is still waiting.
func (h *LocalHandler) Status(w http.ResponseWriter, r *http.Request) {
	counts, err := h.queue.Counts(r.Context())
	if err != nil {
		internalError(w, "count queue", err)
		return
	}
	pending, err := h.queue.Pending(r.Context())
	if err != nil {
		internalError(w, "list pending", err)
		return
	}
	resp := make([]entryResponse, len(pending))
	for i, e := range pending {
		resp[i] = toEntryResponse(e)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"counts":  counts,
		"pending": resp,
	})
}

// Flush handles POST /queue/flush, typically sent when the network returns.
func (h *LocalHandler) Flush(w http.ResponseWriter, r *http.Request) {
	h.syncer.Kick()
	w.WriteHeader(http.StatusAccepted)
}

// Conflicts handles GET /queue/conflicts.
func (h *LocalHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	entries, err := h.queue.Conflicts(r.Context())
	if err != nil {
		internalError(w, "list conflicts", err)
		return
	}
	resp := make([]entryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toEntryResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Dismiss handles DELETE /queue/conflicts/{localID}.
func (h *LocalHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "localID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid local ID"})
		return
	}
	if err := h.queue.Dismiss(r.Context(), id); err != nil {
		if errors.Is(err, ErrUnknownEntry) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "conflict not found"})
			return
		}
		internalError(w, "dismiss conflict", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
