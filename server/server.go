// Package server exposes the command surface over HTTP. Every endpoint
// returns JSON; failures use a {error, hint} envelope so clients can show
// remediation guidance next to the message.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/kuil09/youtube-subscriptions-backup/auth"
	"github.com/kuil09/youtube-subscriptions-backup/classify"
	"github.com/kuil09/youtube-subscriptions-backup/service"
	"github.com/kuil09/youtube-subscriptions-backup/storage"
	"github.com/kuil09/youtube-subscriptions-backup/youtube"
)

// maxImportSize bounds uploaded import files.
const maxImportSize = 10 << 20

// Server routes HTTP requests to the service layer.
type Server struct {
	r   *chi.Mux
	svc *service.Service
	log zerolog.Logger
}

// New builds the router.
func New(svc *service.Service, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	s := &Server{r: r, svc: svc, log: log}

	r.Get("/healthz", s.health)

	r.Post("/api/auth/token", s.acquireToken)
	r.Post("/api/auth/signout", s.signOut)

	r.Get("/api/subscriptions", s.listSubscriptions)
	r.Get("/api/subscriptions/export", s.exportSubscriptions)
	r.Post("/api/subscriptions/import", s.importSubscriptions)
	r.Post("/api/subscriptions/unsubscribe", s.bulkUnsubscribe)

	r.Get("/api/playlists", s.listPlaylists)
	r.Post("/api/playlists", s.createPlaylist)
	r.Post("/api/classify", s.classifyVideo)

	r.Get("/api/watchlater", s.watchLater)
	r.Post("/api/watchlater/refresh", s.refreshWatchLater)
	r.Post("/api/watchlater/clear", s.clearWatchLater)
	r.Get("/api/watchlater/export", s.exportWatchLater)
	r.Post("/api/watchlater/move", s.moveVideo)

	r.Get("/api/jobs", s.listJobs)
	r.Post("/api/jobs", s.enqueueJob)
	r.Post("/api/jobs/run", s.runJobs)
	r.Delete("/api/jobs/completed", s.clearJobs)

	r.Get("/api/logs", s.listLogs)
	r.Get("/api/logs/export", s.exportLogs)
	r.Delete("/api/logs", s.clearLogs)

	r.Get("/api/settings", s.settings)
	r.Put("/api/settings", s.updateSettings)

	r.Get("/api/stats", s.stats)

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// errorEnvelope is the failure shape every endpoint shares.
type errorEnvelope struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// writeError maps service errors to status codes and fills the hint from
// typed errors that carry one.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	env := errorEnvelope{Error: err.Error()}

	var authErr *auth.AuthError
	var apiErr *youtube.RemoteAPIError
	switch {
	case errors.As(err, &authErr):
		status = http.StatusUnauthorized
		env.Hint = authErr.Hint
	case errors.As(err, &apiErr):
		status = http.StatusBadGateway
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			status = apiErr.Status
		}
		env.Hint = apiErr.Hint
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidInput):
		status = http.StatusBadRequest
	}

	s.log.Error().Err(err).Int("status", status).Msg("request failed")
	writeJSON(w, status, env)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) acquireToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Manage bool `json:"manage"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	scopes, err := s.svc.AcquireToken(r.Context(), req.Manage)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scopes": scopes})
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.SignOut(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.svc.ListSubscriptions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": subs, "count": len(subs)})
}

func (s *Server) exportSubscriptions(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	data, err := s.svc.ExportSubscriptions(r.Context(), format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	serveExport(w, format, "subscriptions")
	w.Write(data)
}

func (s *Server) importSubscriptions(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		s.writeError(w, err)
		return
	}
	report, err := s.svc.ImportSubscriptions(r.Context(), data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) bulkUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubscriptionIDs []string `json:"subscriptionIds"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.SubscriptionIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: "subscriptionIds is required"})
		return
	}
	res, err := s.svc.BulkUnsubscribe(r.Context(), req.SubscriptionIDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listPlaylists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.svc.ListPlaylists(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": lists})
}

func (s *Server) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Privacy     string `json:"privacy"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: "title is required"})
		return
	}
	pl, err := s.svc.CreatePlaylist(r.Context(), req.Title, req.Description, req.Privacy)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pl)
}

func (s *Server) classifyVideo(w http.ResponseWriter, r *http.Request) {
	var req classify.Video
	if !decodeBody(w, r, &req) {
		return
	}
	suggestion, err := s.svc.ClassifyVideo(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

func (s *Server) watchLater(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.svc.CachedWatchLater(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) refreshWatchLater(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.svc.RefreshWatchLater(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) clearWatchLater(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.ClearWatchLater(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) exportWatchLater(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	data, err := s.svc.ExportWatchLater(r.Context(), format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	serveExport(w, format, "watch-later")
	w.Write(data)
}

func (s *Server) moveVideo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VideoID          string `json:"videoId"`
		PlaylistItemID   string `json:"playlistItemId"`
		TargetPlaylistID string `json:"targetPlaylistId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.svc.MoveVideo(r.Context(), req.VideoID, req.PlaylistItemID, req.TargetPlaylistID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"moved": true})
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.svc.Jobs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": jobs})
}

func (s *Server) enqueueJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type     string            `json:"type"`
		Payload  json.RawMessage   `json:"payload"`
		Payloads []json.RawMessage `json:"payloads"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Type == "" {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: "type is required"})
		return
	}
	if len(req.Payloads) > 0 {
		created, err := s.svc.EnqueueJobs(r.Context(), req.Type, req.Payloads)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"items": created})
		return
	}
	job, err := s.svc.EnqueueJob(r.Context(), req.Type, req.Payload)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) runJobs(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.RunJobs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) clearJobs(w http.ResponseWriter, r *http.Request) {
	removed, err := s.svc.ClearJobs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) listLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.svc.Logs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": logs})
}

func (s *Server) exportLogs(w http.ResponseWriter, r *http.Request) {
	data, err := s.svc.ExportLogs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	serveExport(w, "json", "action-log")
	w.Write(data)
}

func (s *Server) clearLogs(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearLogs(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) settings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.svc.Settings(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req storage.Settings
	if !decodeBody(w, r, &req) {
		return
	}
	cfg, err := s.svc.UpdateSettings(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Stats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func serveExport(w http.ResponseWriter, format, name string) {
	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.csv"`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.json"`)
}
