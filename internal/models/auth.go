package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the identity claims embedded in a session token.
type SessionClaims struct {
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	jwt.RegisteredClaims
}

// Profile reconstructs the directory profile carried by the claims.
func (c *SessionClaims) Profile() *Profile {
	return &Profile{
		Username:    c.Username,
		Email:       c.Email,
		DisplayName: c.DisplayName,
	}
}
