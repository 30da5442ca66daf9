// ABOUTME: Application HTTP handler for the note API and static client
// ABOUTME: Runs only behind the dispatcher; every request here is authenticated

package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/yuin/goldmark"

	"github.com/inkwell-notes/inkwell/internal/assets"
	"github.com/inkwell-notes/inkwell/internal/auth"
	"github.com/inkwell-notes/inkwell/internal/store"
)

// maxNoteSize caps request bodies; notes are text, not attachments.
const maxNoteSize = 1 << 20

// App serves the authenticated note API and the static client.
type App struct {
	store  store.Store
	syncer store.Syncer
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates the application handler. assetsDir is the on-disk location
// of the HTML/JS client.
func New(s store.Store, syncer store.Syncer, assetsDir string, logger *slog.Logger) *App {
	a := &App{
		store:  s,
		syncer: syncer,
		logger: logger.With("component", "app"),
		mux:    http.NewServeMux(),
	}

	a.mux.HandleFunc("GET /api/notes", a.handleListNotes)
	a.mux.HandleFunc("POST /api/notes", a.handleCreateNote)
	a.mux.HandleFunc("GET /api/notes/{id}", a.handleGetNote)
	a.mux.HandleFunc("PUT /api/notes/{id}", a.handleUpdateNote)
	a.mux.HandleFunc("DELETE /api/notes/{id}", a.handleDeleteNote)
	a.mux.HandleFunc("GET /api/notes/{id}/history", a.handleHistory)
	a.mux.HandleFunc("GET /api/notes/{id}/versions/{digest}", a.handleGetVersion)
	a.mux.HandleFunc("GET /api/notes/{id}/preview", a.handlePreview)
	a.mux.HandleFunc("POST /api/sync", a.handleSync)
	a.mux.Handle("/", assets.FileServer(assetsDir))

	return a
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// noteRequest is the body of note create/update calls.
type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// noteResponse is the JSON shape of a note.
type noteResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Digest    string `json:"digest"`
	Content   string `json:"content,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// versionResponse is the JSON shape of one history entry.
type versionResponse struct {
	Seq       int    `json:"seq"`
	Digest    string `json:"digest"`
	CreatedAt string `json:"created_at"`
}

func toNoteResponse(n *store.Note, content []byte) noteResponse {
	return noteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Digest:    n.Digest,
		Content:   string(content),
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
		UpdatedAt: n.UpdatedAt.Format(time.RFC3339),
	}
}

func (a *App) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := a.store.ListNotes(r.Context())
	if err != nil {
		a.serverError(w, r, "listing notes", err)
		return
	}

	resp := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		resp = append(resp, toNoteResponse(n, nil))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decodeNoteRequest(w, r)
	if !ok {
		return
	}

	note, err := a.store.SaveNote(r.Context(), "", req.Title, []byte(req.Content))
	if err != nil {
		a.serverError(w, r, "creating note", err)
		return
	}

	writeJSON(w, http.StatusCreated, toNoteResponse(note, []byte(req.Content)))
}

func (a *App) handleGetNote(w http.ResponseWriter, r *http.Request) {
	note, content, err := a.store.GetNote(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	if err != nil {
		a.serverError(w, r, "fetching note", err)
		return
	}

	writeJSON(w, http.StatusOK, toNoteResponse(note, content))
}

func (a *App) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decodeNoteRequest(w, r)
	if !ok {
		return
	}

	note, err := a.store.SaveNote(r.Context(), r.PathValue("id"), req.Title, []byte(req.Content))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	if err != nil {
		a.serverError(w, r, "updating note", err)
		return
	}

	writeJSON(w, http.StatusOK, toNoteResponse(note, []byte(req.Content)))
}

func (a *App) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	err := a.store.DeleteNote(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	if err != nil {
		a.serverError(w, r, "deleting note", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	versions, err := a.store.History(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	if err != nil {
		a.serverError(w, r, "fetching history", err)
		return
	}

	resp := make([]versionResponse, 0, len(versions))
	for _, v := range versions {
		resp = append(resp, versionResponse{
			Seq:       v.Seq,
			Digest:    v.Digest,
			CreatedAt: v.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	content, err := a.store.GetVersion(r.Context(), r.PathValue("id"), r.PathValue("digest"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "version not found")
		return
	}
	if err != nil {
		a.serverError(w, r, "fetching version", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(content)
}

// handlePreview renders the current note content as HTML for read-only
// viewing on devices without the full client.
func (a *App) handlePreview(w http.ResponseWriter, r *http.Request) {
	_, content, err := a.store.GetNote(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	if err != nil {
		a.serverError(w, r, "fetching note", err)
		return
	}

	var htmlBuf bytes.Buffer
	if err := goldmark.Convert(content, &htmlBuf); err != nil {
		a.logger.Error("failed to convert markdown", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render note")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.Copy(w, &htmlBuf)
}

// handleSync surfaces the store's sync capability, which is always
// unsupported. The endpoint exists so a client invoking it gets a loud,
// explicit refusal rather than a silent no-op.
func (a *App) handleSync(w http.ResponseWriter, r *http.Request) {
	err := a.syncer.Sync(r.Context())
	if errors.Is(err, store.ErrSyncUnsupported) {
		writeError(w, http.StatusNotImplemented, err.Error())
		return
	}
	if err != nil {
		a.serverError(w, r, "syncing", err)
		return
	}

	// Unreachable with the local-only store. A nil error here means a
	// syncer was wired in without this handler being updated.
	writeError(w, http.StatusInternalServerError, "unexpected sync success")
}

func (a *App) decodeNoteRequest(w http.ResponseWriter, r *http.Request) (noteRequest, bool) {
	var req noteRequest
	body := http.MaxBytesReader(w, r.Body, maxNoteSize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return noteRequest{}, false
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return noteRequest{}, false
	}
	return req, true
}

// serverError logs an internal failure with the device identity and
// returns an opaque 500 to the client.
func (a *App) serverError(w http.ResponseWriter, r *http.Request, action string, err error) {
	identity, _ := auth.IdentityFrom(r.Context())
	a.logger.Error(action+" failed", "error", err, "device", identity)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
