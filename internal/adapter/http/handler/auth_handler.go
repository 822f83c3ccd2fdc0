package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iho/networth/internal/adapter/http/middleware"
	"github.com/iho/networth/internal/domain"
	"github.com/iho/networth/internal/infrastructure/auth"
	"github.com/iho/networth/internal/infrastructure/metrics"
)

// UserRepository defines user persistence for the auth handler.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// TokenDenylist records revoked token IDs.
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// IDGenerator generates unique user IDs.
type IDGenerator interface {
	Generate() string
}

// AuthHandler handles register, login, and logout.
type AuthHandler struct {
	users    UserRepository
	jwt      *auth.JWTManager
	denylist TokenDenylist
	idGen    IDGenerator
	metrics  *metrics.Metrics
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(users UserRepository, jwtManager *auth.JWTManager, denylist TokenDenylist, idGen IDGenerator, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		users:    users,
		jwt:      jwtManager,
		denylist: denylist,
		idGen:    idGen,
		metrics:  m,
	}
}

// CredentialsRequest is the register/login request body.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse is the register response body.
type RegisterResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// TokenResponse is the login response body.
type TokenResponse struct {
	Token string `json:"token"`
}

// Register handles POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if err := domain.ValidateEmail(email); err != nil {
		writeError(w, mapDomainError(err), err.Error())
		return
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		writeError(w, mapDomainError(err), err.Error())
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:             h.idGen.Generate(),
		Email:          email,
		HashedPassword: string(hashed),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		writeError(w, mapDomainError(err), err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.UsersRegistered.Inc()
	}
	writeJSON(w, http.StatusCreated, RegisterResponse{ID: user.ID, Email: user.Email})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if user == nil {
		h.countAuth("failure")
		writeError(w, http.StatusUnauthorized, domain.ErrInvalidCredentials.Error())
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		h.countAuth("failure")
		writeError(w, http.StatusUnauthorized, domain.ErrInvalidCredentials.Error())
		return
	}

	token, err := h.jwt.Generate(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	h.countAuth("success")
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// Logout handles POST /logout: the current token's jti is revoked until
// its natural expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ttl := time.Duration(0)
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}

	if err := h.denylist.Revoke(r.Context(), claims.ID, ttl); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to revoke token")
		return
	}

	if h.metrics != nil {
		h.metrics.TokensRevoked.Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) countAuth(status string) {
	if h.metrics != nil {
		h.metrics.AuthAttempts.WithLabelValues(status).Inc()
	}
}
