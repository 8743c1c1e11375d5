package handlers

import (
	"location-tracker-service/internal/api/dto"
	"location-tracker-service/internal/domain"
	"location-tracker-service/internal/services"
	"net/http"
)

type AccountHandler struct {
	Accounts *services.AccountService
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.Accounts.Register(r.Context(), req.Phone, req.Password)
	if err != nil {
		writeServiceError(w, r, "register", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.RegisterResponse{
		Success: true,
		Message: "registered",
		UserID:  u.ID,
	})
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, token, err := h.Accounts.Login(r.Context(), req.Phone, req.Password)
	if err != nil {
		writeServiceError(w, r, "login", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.LoginResponse{
		Success: true,
		Message: "logged in",
		UserID:  u.ID,
		Phone:   u.Phone,
		Token:   token,
	})
}

func (h *AccountHandler) CheckUser(w http.ResponseWriter, r *http.Request) {
	var req dto.PhoneRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.Accounts.CheckUser(r.Context(), req.Phone)
	if err != nil {
		writeServiceError(w, r, "check user", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.CheckUserResponse{Success: true, User: userResponse(u)})
}

// ListUsers is a debugging view; password hashes are never returned.
func (h *AccountHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Accounts.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, "list users", err)
		return
	}

	res := dto.ListUsersResponse{Success: true, Count: len(users), Users: make([]dto.UserResponse, 0, len(users))}
	for _, u := range users {
		res.Users = append(res.Users, userResponse(u))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{ID: u.ID, Phone: u.Phone, CreatedAt: u.CreatedAt}
}
