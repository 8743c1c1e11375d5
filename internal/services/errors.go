package services

import "errors"

var (
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrMissingCredentials = errors.New("phone and password are required")
	ErrPhoneTaken         = errors.New("phone number already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("wrong password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingToken       = errors.New("missing bearer token")
	ErrForeignUser        = errors.New("userId does not match session")
	ErrIncompleteLocation = errors.New("incomplete location")
	ErrLocationNotFound   = errors.New("no location recorded for user")
)
