// internal/api/handler/auth.go
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	"fintrack/internal/service"
	"fintrack/internal/util"
)

// AuthHandler handles signup, login and session requests.
type AuthHandler struct {
	responder
	service service.AuthService
	cookies Cookies
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc service.AuthService, cookies Cookies, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		responder: responder{logger: logger},
		service:   svc,
		cookies:   cookies,
	}
}

// CredentialsRequest is the body of signup and login, as JSON or a form.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func decodeCredentials(r *http.Request) (CredentialsRequest, error) {
	var req CredentialsRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, util.ValidationError("malformed JSON body")
		}
		return req, nil
	}
	if err := r.ParseForm(); err != nil {
		return req, util.ValidationError("malformed form body")
	}
	req.Username = r.PostFormValue("username")
	req.Password = r.PostFormValue("password")
	return req, nil
}

// Signup registers a new user.
// POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	user, err := h.service.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully",
		"user":    user,
	})
}

// Login opens a session and sets the session cookie.
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	session, user, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.cookies.Set(w, session.Token)
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Login successful",
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"user":       user,
	})
}

// Logout ends the session, if any, and clears the cookie.
// POST /logout, GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r.Context(), SessionToken(r))
	h.cookies.Clear(w)
	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// AuthStatus reports whether the caller holds a live session.
// GET /auth-status
func (h *AuthHandler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.service.Status(r.Context(), SessionToken(r)))
}

// Dashboard greets the authenticated user.
// GET /dashboard
func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Welcome to your dashboard, %s", user.Username),
		"user":    user,
	})
}
