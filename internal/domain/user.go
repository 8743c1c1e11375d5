package domain

import (
	"regexp"
	"time"
)

// Represents a registered account. Phone is the login identity and is unique.
type User struct {
	ID           int64
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}

var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// Report whether s is a mainland China mobile number.
func ValidPhone(s string) bool { return phonePattern.MatchString(s) }
