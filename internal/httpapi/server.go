// internal/httpapi/server.go
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/auth"
	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/session"
	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"
)

// Server is the HTTP edge over the session and auth services. Session
// mutations require a bearer token minted at call login.
type Server struct {
	auth     *auth.Service
	sessions *session.Manager
	mux      *http.ServeMux
}

// NewServer creates a Server with all routes registered.
func NewServer(authSvc *auth.Service, sessions *session.Manager) *Server {
	s := &Server{
		auth:     authSvc,
		sessions: sessions,
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/calls", s.handleIncomingCall)
	s.mux.HandleFunc("POST /api/farmers", s.handleRegisterFarmer)
	s.mux.HandleFunc("GET /api/farmers/{phone}/sessions/active", s.requireToken(s.handleActiveSession))
	s.mux.HandleFunc("GET /api/farmers/{phone}/sessions", s.requireToken(s.handleSessionHistory))
	s.mux.HandleFunc("GET /api/sessions/{id}", s.requireToken(s.handleGetSession))
	s.mux.HandleFunc("POST /api/sessions/{id}/context", s.requireToken(s.handleMergeContext))
	s.mux.HandleFunc("POST /api/sessions/{id}/interactions", s.requireToken(s.handleAppendInteraction))
	s.mux.HandleFunc("POST /api/sessions/{id}/end", s.requireToken(s.handleEndSession))
	s.mux.HandleFunc("POST /api/sessions/{id}/drop", s.requireToken(s.handleMarkDropped))
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireToken rejects requests without a valid bearer token.
func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if _, err := s.auth.VerifyToken(token); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r)
	}
}

// incomingCallRequest is the JSON body for POST /api/calls.
type incomingCallRequest struct {
	PhoneNumber string `json:"phone_number"`
	CallID      string `json:"call_id"`
}

func (s *Server) handleIncomingCall(w http.ResponseWriter, r *http.Request) {
	var req incomingCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.PhoneNumber == "" || req.CallID == "" {
		writeError(w, http.StatusBadRequest, "phone_number and call_id are required")
		return
	}

	result, err := s.auth.LoginFarmer(r.Context(), req.PhoneNumber, req.CallID)
	if err != nil {
		slog.Error("call login failed", "call_id", req.CallID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// registerFarmerRequest is the JSON body for POST /api/farmers.
type registerFarmerRequest struct {
	PhoneNumber string            `json:"phone_number"`
	Profile     types.ProfileData `json:"profile"`
}

func (s *Server) handleRegisterFarmer(w http.ResponseWriter, r *http.Request) {
	var req registerFarmerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.PhoneNumber == "" {
		writeError(w, http.StatusBadRequest, "phone_number is required")
		return
	}

	prof, err := s.auth.RegisterFarmer(r.Context(), req.PhoneNumber, req.Profile)
	if errors.Is(err, types.ErrProfileExists) {
		writeError(w, http.StatusConflict, "profile already exists")
		return
	}
	if err != nil {
		slog.Error("farmer registration failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"profile": prof})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), types.SessionID(r.PathValue("id")))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": sess})
}

func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.ActiveByPhone(r.Context(), r.PathValue("phone"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": sess})
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.History(r.Context(), r.PathValue("phone"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleMergeContext(w http.ResponseWriter, r *http.Request) {
	var update types.ContextUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	id := types.SessionID(r.PathValue("id"))
	if err := s.sessions.MergeContext(r.Context(), id, update); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "session context updated"})
}

func (s *Server) handleAppendInteraction(w http.ResponseWriter, r *http.Request) {
	var rec types.InteractionRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if rec.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	id := types.SessionID(r.PathValue("id"))
	if err := s.sessions.AppendInteraction(r.Context(), id, rec); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "interaction recorded"})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := types.SessionID(r.PathValue("id"))
	if err := s.sessions.EndSession(r.Context(), id); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "session ended"})
}

func (s *Server) handleMarkDropped(w http.ResponseWriter, r *http.Request) {
	id := types.SessionID(r.PathValue("id"))
	if err := s.sessions.MarkDropped(r.Context(), id); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "session marked dropped"})
}

// writeSessionError maps the session error taxonomy onto status codes.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, types.ErrNotResumable):
		writeError(w, http.StatusConflict, "session cannot be resumed")
	default:
		slog.Error("session operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
