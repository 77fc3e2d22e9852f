package httpapi

import (
	"net/http"
	"time"

	"github.com/shestoi/railbook/internal/authctx"
	"github.com/shestoi/railbook/internal/iam"
	"github.com/shestoi/railbook/internal/repository"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProfileRequest is a partial update; omitted fields are left alone.
type ProfileRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=32"`
}

func toUserResponse(u repository.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
	}
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.users.Register(r.Context(), iam.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, map[string]string{"user_id": out.UserID})
}

// Login handles POST /auth/login. The session id goes into x-session-id on later requests.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.users.Login(r.Context(), iam.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, LoginResponse{UserID: out.UserID, SessionID: out.SessionID})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sid, _ := authctx.SessionIDFromContext(r.Context())
	if err := h.users.Logout(r.Context(), sid); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, MessageResponse{Message: "logged out"})
}

// Me handles GET /auth/me and GET /users/profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), identity(r).UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toUserResponse(user))
}

// UpdateProfile handles PUT /users/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), identity(r).UserID, iam.ProfileUpdate{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toUserResponse(user))
}
