package auth

import "time"

// LoginRequest captures the credentials posted to the admin login form.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is the signed admin session produced by a successful login.
type Session struct {
	Token     string    `json:"-"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
}
