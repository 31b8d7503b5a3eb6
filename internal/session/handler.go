package session

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

const maxBody = 32 << 20

// Handler serves a Store over the REST API used by RemoteStore.
type Handler struct {
	store Store
}

// NewHandler returns a router serving store.
func NewHandler(store Store) http.Handler {
	r := chi.NewRouter()
	(&Handler{store: store}).RegisterHTTP(r)
	return r
}

// RegisterHTTP mounts the session endpoints on r.
func (h *Handler) RegisterHTTP(r chi.Router) {
	r.Get("/api/sessions/{userID}", h.handleList)
	r.Get("/api/sessions/{userID}/{id}", h.handleGet)
	r.Post("/api/sessions/{userID}/{id}", h.handlePut)
	r.Delete("/api/sessions/{userID}/{id}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.store.List(r.Context(), param(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(r.Context(), param(r, "userID"), param(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	var sess Session
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&sess); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session body"})
		return
	}
	// The path is authoritative for the key.
	sess.UserID, sess.ID = param(r, "userID"), param(r, "id")
	if err := h.store.Put(r.Context(), &sess); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &sess)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), param(r, "userID"), param(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// param returns a decoded path parameter; chi matches on the raw path so
// escaped slashes arrive still encoded.
// param returns a decoded path parameter. chi routes on RawPath when the
// request has one, leaving its params escaped; otherwise they are decoded.
func param(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	log.Printf("[SESSION] Request failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
