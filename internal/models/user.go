package models

import (
	"github.com/golang-jwt/jwt/v5"
)

type User struct {
	ID             int64  `db:"id" json:"id"`
	Email          string `db:"email" json:"email"`
	Username       string `db:"username" json:"username"`
	HashedPassword string `db:"hashed_password" json:"-"`
	IsActive       bool   `db:"is_active" json:"is_active"`
}

// Claims defines the structure of the JWT claims. The subject carries the username.
type Claims struct {
	jwt.RegisteredClaims
}

// Token is the body returned by the token endpoint.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
