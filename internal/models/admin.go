package models

import "github.com/golang-jwt/jwt/v5"

// AdminClaims is the JWT payload carried by admin API tokens.
type AdminClaims struct {
	Subject string `json:"sub_name"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// RoleAdmin is the only role the admin API recognises; tokens carrying
// anything else are rejected.
const RoleAdmin = "admin"
