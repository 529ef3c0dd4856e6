// Package utils provides helpers for token issuance and password hashing.
package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token is a signed JWT together with its expiry.  Members and guests
// both receive one; the role claim tells them apart downstream.
type Token struct {
	Value string    // the serialized JWT
	Exp   time.Time // UTC expiration time
}

// NewMemberToken signs an HS256 JWT for an authenticated member.  Claims:
// sub (member id), role "member", exp and iat.
func NewMemberToken(secret, userID string, ttlMin int) (Token, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": "member",
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, Exp: exp}, nil
}

// NewGuestToken signs an HS256 JWT for anonymous guest checkout.  The jti
// claim carries a random identifier so each issued token is distinct;
// the email claim is the contact the guest supplied and becomes part of
// the order's customer identity.
func NewGuestToken(secret, email string, ttlMin int) (Token, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"jti":   uuid.NewString(),
		"role":  "guest",
		"email": email,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, Exp: exp}, nil
}
