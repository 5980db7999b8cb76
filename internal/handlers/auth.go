package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/assettrack/apiserver/internal/services"
	"github.com/assettrack/apiserver/internal/session"
	"github.com/assettrack/apiserver/types"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler provides session authentication endpoints.
type AuthHandler struct {
	userService *services.UserService
	issuer      *session.Issuer
	cookie      CookieConfig
	errors      ErrorPolicy
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, issuer *session.Issuer, cookie CookieConfig, policy ErrorPolicy) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		issuer:      issuer,
		cookie:      cookie,
		errors:      policy,
	}
}

// AuthRouter registers auth routes on the given router. limit, when not
// nil, guards the credential endpoints.
func AuthRouter(r chi.Router, handler *AuthHandler, limit func(http.Handler) http.Handler) {
	credentials := r
	if limit != nil {
		credentials = r.With(limit)
	}
	credentials.Post("/register", handler.Register)
	credentials.Post("/login", handler.Login)
	r.Delete("/logout", handler.Logout)
	r.With(handler.RequireAuth).Get("/me", handler.Me)
}

// RequireAuth enforces a valid session and injects the identity into context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return RequireAuth(h.issuer, h.cookie.Name)(next)
}

// RequireAuth constructs auth middleware for other routers. The session
// cookie is tried first; when it is missing or fails to verify, an
// Authorization bearer header is tried next.
func RequireAuth(issuer *session.Issuer, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokens := sessionTokens(r, cookieName)
			if len(tokens) == 0 {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			for _, token := range tokens {
				identity, err := issuer.Verify(token)
				if err != nil {
					continue
				}
				next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
				return
			}
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
		})
	}
}

// Register creates a new user account and starts a session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.Write(w, r, err)
		return
	}

	user, err := h.userService.Register(r.Context(), req)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	h.startSession(w, r, http.StatusCreated, user)
}

// Login verifies credentials and starts a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.errors.Write(w, r, err)
		return
	}

	user, err := h.userService.Login(r.Context(), req)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	h.startSession(w, r, http.StatusOK, user)
}

// Logout clears the session cookie. Tokens are stateless, so a bearer
// token stays valid until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.userService.GetByID(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		h.errors.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, user types.User) {
	token, err := h.issuer.Issue(user.Identity())
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.issuer.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, status, AuthResponse{Token: token, User: user})
}

// sessionTokens returns the candidate tokens in the order they are tried.
func sessionTokens(r *http.Request, cookieName string) []string {
	var tokens []string
	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil && strings.TrimSpace(cookie.Value) != "" {
			tokens = append(tokens, strings.TrimSpace(cookie.Value))
		}
	}
	if token, err := bearerToken(r); err == nil {
		tokens = append(tokens, token)
	}
	return tokens
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
