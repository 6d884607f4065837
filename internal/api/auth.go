package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"medai-backend/internal/auth"
	"medai-backend/pkg/api"
)

const SessionCookie = "medai_session"

type contextKey string

const userContextKey contextKey = "user"

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func userFromContext(ctx context.Context) auth.User {
	user, _ := ctx.Value(userContextKey).(auth.User)
	return user
}

// RequireUser rejects requests without a valid session token. The Location
// header points clients at the sign in page.
func (s *BackendService) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.gate.Authenticate(r.Context(), tokenFromRequest(r))
		if err != nil {
			slog.Debug("unauthenticated request", "path", r.URL.Path, "error", err)
			w.Header().Set("Location", "/login")
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	})
}

func (s *BackendService) Login(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest[api.LoginRequest](r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	token, user, err := s.gate.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		slog.Error("error signing in", "username", req.Username, "error", err)
		http.Error(w, "unable to sign in", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	WriteJsonResponse(w, api.LoginResponse{Token: token, User: convertUser(user)})
}

func (s *BackendService) Logout(w http.ResponseWriter, r *http.Request) {
	if err := s.gate.SignOut(r.Context(), tokenFromRequest(r)); err != nil {
		slog.Warn("error signing out", "error", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	WriteJsonResponse(w, struct{}{})
}

func (s *BackendService) Me(r *http.Request) (any, error) {
	return convertUser(userFromContext(r.Context())), nil
}
