package dto

import "time"

type CredentialsRequest struct {
	Phone    string `json:"phone" validate:"required,cnphone"`
	Password string `json:"password" validate:"required"`
}

type PhoneRequest struct {
	Phone string `json:"phone" validate:"required,cnphone"`
}

type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
	Phone   string `json:"phone"`
	Token   string `json:"token"`
}

type UserResponse struct {
	ID        int64     `json:"id"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

type CheckUserResponse struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
}

type ListUsersResponse struct {
	Success bool           `json:"success"`
	Count   int            `json:"count"`
	Users   []UserResponse `json:"users"`
}
