package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"github.com/AbhinavBM/Centralized-Firewall-sub000/config"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/database"
	"github.com/AbhinavBM/Centralized-Firewall-sub000/logger"
)

// Publisher pushes change events to connected admin consoles.
type Publisher interface {
	Broadcast(eventType string, payload interface{})
}

// noopPublisher stands in when no hub is wired, as in tests.
type noopPublisher struct{}

func (noopPublisher) Broadcast(string, interface{}) {}

var (
	store     *sessions.CookieStore
	appConfig *config.Config
	events    Publisher = noopPublisher{}
)

// InitHandlers wires the handler package with configuration and the event
// publisher. Pass nil to run without broadcasting.
func InitHandlers(cfg *config.Config, pub Publisher) {
	appConfig = cfg
	store = sessions.NewCookieStore([]byte(cfg.Session.SecretKey))
	store.Options.MaxAge = cfg.Session.MaxAge
	store.Options.HttpOnly = true
	if pub != nil {
		events = pub
	} else {
		events = noopPublisher{}
	}
}

func ensureConfig() *config.Config {
	if appConfig == nil {
		InitHandlers(config.GetConfig(), nil)
	}
	return appConfig
}

// --- Response helpers ---

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// respondError writes the shared failure envelope. Storage errors never reach
// this function verbatim; callers log them and send a generic message.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// --- Session handlers ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler authenticates an admin console user and opens a session.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	cfg := ensureConfig()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := database.GetUserByUsername(req.Username)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	session, _ := store.Get(r, cfg.Session.Name)
	session.Values["user_id"] = user.ID
	session.Values["username"] = user.Username
	session.Values["role"] = user.Role
	session.Save(r, w)

	logger.Info("Admin user logged in: %s", user.Username)
	respondData(w, http.StatusOK, user)
}

// LogoutHandler tears down the admin session.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	cfg := ensureConfig()
	session, _ := store.Get(r, cfg.Session.Name)
	session.Values["user_id"] = nil
	session.Options.MaxAge = -1
	session.Save(r, w)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out",
	})
}

// --- Middleware ---

// AuthMiddleware rejects requests that do not carry an authenticated admin
// session.
func AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := ensureConfig()
		session, err := store.Get(r, cfg.Session.Name)
		if err != nil || session.Values["user_id"] == nil {
			respondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// AdminMiddleware additionally requires the admin role.
func AdminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		cfg := ensureConfig()
		session, _ := store.Get(r, cfg.Session.Name)
		role, ok := session.Values["role"].(string)
		if !ok || role != "admin" {
			respondError(w, http.StatusForbidden, "Admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RegisterRoutes attaches every route to mux. Agent routes authenticate by
// endpoint credential or endpoint id, everything else by admin session.
func RegisterRoutes(mux *http.ServeMux) {
	// Session
	mux.HandleFunc("POST /api/auth/login", LoginHandler)
	mux.HandleFunc("POST /api/auth/logout", LogoutHandler)

	// Agent protocol
	mux.HandleFunc("POST /api/endpoints/authenticate", AuthenticateEndpointHandler)
	mux.HandleFunc("POST /api/endpoints/applications", SubmitApplicationsHandler)
	mux.HandleFunc("GET /api/firewall/rules", EndpointRulesHandler)
	mux.HandleFunc("POST /api/logs", SubmitSystemLogHandler)
	mux.HandleFunc("POST /api/logs/batch", SubmitSystemLogBatchHandler)
	mux.HandleFunc("GET /api/logs/stats", SystemLogStatsHandler)

	// Endpoints
	mux.HandleFunc("GET /api/endpoints", AuthMiddleware(ListEndpointsHandler))
	mux.HandleFunc("GET /api/endpoints/summary", AuthMiddleware(EndpointSummaryHandler))
	mux.HandleFunc("POST /api/endpoints", AdminMiddleware(CreateEndpointHandler))
	mux.HandleFunc("GET /api/endpoints/{id}", AuthMiddleware(GetEndpointHandler))
	mux.HandleFunc("PUT /api/endpoints/{id}", AdminMiddleware(UpdateEndpointHandler))
	mux.HandleFunc("DELETE /api/endpoints/{id}", AdminMiddleware(DeleteEndpointHandler))

	// Applications
	mux.HandleFunc("GET /api/applications", AuthMiddleware(ListApplicationsHandler))
	mux.HandleFunc("POST /api/applications", AdminMiddleware(CreateApplicationHandler))
	mux.HandleFunc("GET /api/applications/{id}", AuthMiddleware(GetApplicationHandler))
	mux.HandleFunc("PUT /api/applications/{id}", AdminMiddleware(UpdateApplicationHandler))
	mux.HandleFunc("DELETE /api/applications/{id}", AdminMiddleware(DeleteApplicationHandler))

	// Firewall rules (admin side; the bare GET above is the agent poll)
	mux.HandleFunc("GET /api/firewall/rules/all", AuthMiddleware(ListRulesHandler))
	mux.HandleFunc("POST /api/firewall/rules", AdminMiddleware(CreateRuleHandler))
	mux.HandleFunc("GET /api/firewall/rules/{id}", AuthMiddleware(GetRuleHandler))
	mux.HandleFunc("PUT /api/firewall/rules/{id}", AdminMiddleware(UpdateRuleHandler))
	mux.HandleFunc("DELETE /api/firewall/rules/{id}", AdminMiddleware(DeleteRuleHandler))

	// Logs and anomalies
	mux.HandleFunc("GET /api/logs/traffic", AuthMiddleware(ListTrafficLogsHandler))
	mux.HandleFunc("POST /api/logs/traffic", AuthMiddleware(CreateTrafficLogHandler))
	mux.HandleFunc("GET /api/logs/system", AuthMiddleware(ListSystemLogsHandler))
	mux.HandleFunc("GET /api/anomalies", AuthMiddleware(ListAnomaliesHandler))
	mux.HandleFunc("POST /api/anomalies", AuthMiddleware(CreateAnomalyHandler))
	mux.HandleFunc("GET /api/anomalies/{id}", AuthMiddleware(GetAnomalyHandler))
	mux.HandleFunc("PUT /api/anomalies/{id}/resolve", AdminMiddleware(ResolveAnomalyHandler))
	mux.HandleFunc("DELETE /api/anomalies/{id}", AdminMiddleware(DeleteAnomalyHandler))
}
