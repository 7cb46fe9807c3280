package server

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/supankharikap/ServiceTeam/internal/routing"
)

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, routing.RouteClassAuthn, http.StatusUnprocessableEntity, "invalid_json", "invalid json")
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || strings.TrimSpace(req.Password) == "" {
		routing.WriteError(w, r, routing.RouteClassAuthn, http.StatusUnprocessableEntity, "invalid_form", "username and password required")
		return
	}

	p, ok, err := h.users.Authenticate(r.Context(), username, req.Password)
	if err != nil {
		routing.WriteError(w, r, routing.RouteClassAuthn, http.StatusInternalServerError, "user_store_error", "user store error")
		return
	}
	if !ok {
		routing.WriteError(w, r, routing.RouteClassAuthn, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		return
	}

	sid, err := h.sessions.Create(r.Context(), p.Username, time.Now().Add(sidTTLFromEnv()), clientIP(r), r.UserAgent())
	if err != nil {
		routing.WriteError(w, r, routing.RouteClassAuthn, http.StatusInternalServerError, "session_store_error", "session store error")
		return
	}
	setSIDCookie(w, sid)

	writeJSON(w, http.StatusOK, map[string]string{
		"username": p.Username,
		"fullName": p.FullName,
		"zone":     p.Zone,
		"role":     p.Role,
		"team":     p.Team,
	})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if sid, ok := readSID(r); ok {
		_ = h.sessions.Revoke(r.Context(), sid)
	}
	clearSIDCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
