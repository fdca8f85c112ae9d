package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"github.com/tahcohcat/qwen-tts-web/config"
	"github.com/tahcohcat/qwen-tts-web/internal/logger"
)

const sessionName = "qwen-tts-session"

// Gate protects the UI and API with a single shared password. With no
// password hash configured every request passes.
type Gate struct {
	store        *sessions.CookieStore
	passwordHash []byte
	logger       *logger.Log
}

func NewGate(cfg config.AuthConfig) *Gate {
	secret := cfg.SessionSecret
	if secret == "" {
		secret = "qwen-tts-dev-secret-change-me"
	}

	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Gate{
		store:        store,
		passwordHash: []byte(cfg.PasswordHash),
		logger:       logger.New().WithModule("auth"),
	}
}

// Enabled reports whether a password is required
func (g *Gate) Enabled() bool {
	return len(g.passwordHash) > 0
}

// HashPassword produces a value suitable for auth.password_hash.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

type loginRequest struct {
	Password string `json:"password"`
}

func (g *Gate) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if !g.Enabled() {
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := bcrypt.CompareHashAndPassword(g.passwordHash, []byte(req.Password)); err != nil {
		g.logger.Warn("Rejected login attempt from " + r.RemoteAddr)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid password"})
		return
	}

	session, _ := g.store.Get(r, sessionName)
	session.Values["authenticated"] = true
	if err := session.Save(r, w); err != nil {
		g.logger.WithError(err).Error("Failed to save session")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save session"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

func (g *Gate) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := g.store.Get(r, sessionName)
	session.Values["authenticated"] = false
	session.Options.MaxAge = -1
	_ = session.Save(r, w)
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
}

// Middleware rejects unauthenticated API calls with 401. Paths in open
// (prefix match) are always served so the login page and health checks work.
func (g *Gate) Middleware(open ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !g.Enabled() || g.authenticated(r) {
				next.ServeHTTP(w, r)
				return
			}
			for _, p := range open {
				if strings.HasPrefix(r.URL.Path, p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "login required"})
		})
	}
}

func (g *Gate) authenticated(r *http.Request) bool {
	session, err := g.store.Get(r, sessionName)
	if err != nil {
		return false
	}
	ok, _ := session.Values["authenticated"].(bool)
	return ok
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
