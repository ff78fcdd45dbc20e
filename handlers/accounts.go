package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/giygas/diagnostic-api/entities"
	"github.com/giygas/diagnostic-api/logging"
	"github.com/giygas/diagnostic-api/store"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt limit
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// publicUser strips the password hash before a user leaves the server.
func publicUser(u entities.User) entities.User {
	u.PasswordHash = ""
	return u
}

func (h *HTTPHandlerImpl) recordsAvailable(w http.ResponseWriter) bool {
	if h.deps.Records == nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, "Records store not configured")
		return false
	}
	return true
}

// Register creates an account. The display name defaults to the local part of the email.
func (h *HTTPHandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	if !h.recordsAvailable(w) {
		return
	}

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	email := store.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		h.RespondWithError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if !strings.Contains(email, "@") {
		h.RespondWithError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if len(req.Password) < minPasswordLength || len(req.Password) > maxPasswordLength {
		h.RespondWithError(w, http.StatusBadRequest, "password must be between 6 and 72 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logging.Error("Failed to hash password", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Could not create account")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	user, err := h.deps.Records.CreateUser(r.Context(), entities.User{
		Email:        email,
		Name:         name,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: string(hash),
	})
	if errors.Is(err, store.ErrConflict) {
		h.RespondWithError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		logging.Error("Failed to create user", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Could not create account")
		return
	}

	logging.Info("User registered", "user_id", user.ID)
	h.RespondWithJSON(w, http.StatusCreated, map[string]any{
		"id":    user.ID,
		"email": user.Email,
	})
}

// Login checks credentials and returns a bearer token
func (h *HTTPHandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	if !h.recordsAvailable(w) {
		return
	}
	if h.deps.Sessions == nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, "Sessions not configured")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		h.RespondWithError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.deps.Records.GetUserByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logging.Error("Failed to look up user", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Could not log in")
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		h.RespondWithError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	now := h.now()
	if err := h.deps.Records.TouchLogin(r.Context(), user.ID, now); err != nil {
		logging.Warn("Failed to record login time", "user_id", user.ID, "error", err)
	} else {
		user.LastLogin = now
	}

	token, expiresAt, err := h.deps.Sessions.Create(user.ID)
	if err != nil {
		logging.Error("Failed to create session", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Could not log in")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"expiresAt": expiresAt,
		"user":      publicUser(user),
	})
}

// Logout revokes the bearer token of the current request
func (h *HTTPHandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	if token := BearerToken(r); token != "" && h.deps.Sessions != nil {
		h.deps.Sessions.Revoke(token)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the logged-in user
func (h *HTTPHandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.deps.Records.GetUser(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		h.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		logging.Error("Failed to load user", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Could not load user")
		return
	}
	h.RespondWithJSON(w, http.StatusOK, publicUser(user))
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(auth, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// currentUser returns the authenticated user id or writes a 401.
func (h *HTTPHandlerImpl) currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	if !h.recordsAvailable(w) {
		return "", false
	}
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return userID, true
}
