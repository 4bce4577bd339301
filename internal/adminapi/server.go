package adminapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sable-ops/bouncer/internal/votes"
)

// Server is the HTTP admin API: a thin JSON+static-file surface over the
// Supervisor, BanRegistry, and RequestVoteEngine.
type Server struct {
	log    *slog.Logger
	feed   AuditFeed
	reg    Registry
	engine VoteEngine
	ops    OpsList

	router *mux.Router
}

// New builds the router for the admin API. staticDir, if non-empty, is
// served at "/" as a fallback after the API routes.
func New(log *slog.Logger, feed AuditFeed, reg Registry, engine VoteEngine, ops OpsList, staticDir string) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{log: log, feed: feed, reg: reg, engine: engine, ops: ops}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/api/logs", s.handleLogs).Methods(http.MethodGet)
	r.HandleFunc("/api/online", s.handleOnline).Methods(http.MethodGet)
	r.HandleFunc("/api/ops", s.handleOps).Methods(http.MethodGet)
	r.HandleFunc("/api/banned", s.handleBanned).Methods(http.MethodGet)
	r.HandleFunc("/api/players", s.handlePlayers).Methods(http.MethodGet)
	r.HandleFunc("/api/requests", s.handleListRequests).Methods(http.MethodGet)
	r.HandleFunc("/api/requests", s.handleCreateRequest).Methods(http.MethodPost)
	r.HandleFunc("/api/requests/{id}/vote", s.handleVote).Methods(http.MethodPost)

	if staticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))
	}

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	audit := s.feed.AuditEntries()
	system := s.feed.SystemEntries()

	merged := make([]mergedLogEntry, 0, len(audit)+len(system))
	for _, e := range audit {
		merged = append(merged, mergedLogEntry{Timestamp: e.Timestamp, Kind: e.Kind, Player: e.Player, Content: e.Content})
	}
	for _, e := range system {
		merged = append(merged, mergedLogEntry{Timestamp: e.Timestamp, Kind: "system", Content: e.Message})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp.Before(merged[j].Timestamp) })

	writeJSON(w, http.StatusOK, map[string]any{"logs": merged})
}

func (s *Server) handleOnline(w http.ResponseWriter, r *http.Request) {
	online := s.reg.Online()
	type playerView struct {
		Name   string `json:"name"`
		Client string `json:"client"`
	}
	out := make([]playerView, 0, len(online))
	for _, p := range online {
		out = append(out, playerView{Name: p.Name, Client: p.ClientInfo})
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": out})
}

func (s *Server) handleOps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ops": s.ops.Names()})
}

func (s *Server) handleBanned(w http.ResponseWriter, r *http.Request) {
	records := s.reg.Banned()
	type banView struct {
		Name      string `json:"name"`
		Reason    string `json:"reason"`
		BanTime   string `json:"ban_time"`
		UnbanTime string `json:"unban_time"`
		Permanent bool   `json:"permanent"`
	}
	out := make([]banView, 0, len(records))
	for _, rec := range records {
		out = append(out, banView{
			Name:      rec.Name,
			Reason:    rec.Reason,
			BanTime:   rec.BannedAt.Format(timeLayout),
			UnbanTime: rec.UnbansAt.Format(timeLayout),
			Permanent: rec.Permanent,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": out})
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"players": s.reg.Players()})
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"threshold": s.engine.Threshold(),
		"requests":  s.engine.List(),
	})
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, UploadLimit)
	if err := r.ParseMultipartForm(UploadLimit); err != nil {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request")
			return
		}
	}

	applicant := r.FormValue("applicant")
	command := r.FormValue("command")
	reason := r.FormValue("reason")
	if applicant == "" || command == "" {
		writeError(w, http.StatusBadRequest, "applicant and command are required")
		return
	}
	if !isKnownPlayer(s.reg.Players(), applicant) {
		writeError(w, http.StatusBadRequest, "applicant is not a known player")
		return
	}

	var imageBytes []byte
	var imageExt string
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["image"]; len(files) > 0 {
			f, err := files[0].Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, "could not read image")
				return
			}
			defer f.Close()
			data, err := io.ReadAll(f)
			if err != nil {
				writeError(w, http.StatusBadRequest, "could not read image")
				return
			}
			imageBytes = data
			imageExt = extOf(files[0].Filename)
		}
	}

	if votes.IsSelfPardon(applicant, command) && len(imageBytes) == 0 {
		writeError(w, http.StatusBadRequest, "self-pardon requires an attached image")
		return
	}

	id, err := s.engine.Create(applicant, command, reason, imageBytes, imageExt)
	if err != nil {
		s.log.Error("failed to create command request", "error", err)
		writeError(w, http.StatusBadRequest, "could not create request")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ip := clientIP(r)

	switch s.engine.Vote(id, ip) {
	case votes.VoteOK:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	case votes.VoteDuplicateIP:
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "duplicate vote"})
	case votes.VoteAlreadyExecuted:
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "already executed"})
	case votes.VoteNoSuchRequest:
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "no such request"})
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isKnownPlayer(players []string, name string) bool {
	for _, p := range players {
		if p == name {
			return true
		}
	}
	return false
}

func extOf(filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i >= 0 {
		return filename[i:]
	}
	return ""
}

const timeLayout = "2006-01-02 15:04:05"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
