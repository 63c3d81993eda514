// Copyright (c) 2026 Gitpress. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and session token management.
//
// # Architecture
//
// This package isolates security-sensitive code (session signing) from the
// domain logic. The session payload produced by the OAuth exchange travels
// to the browser inside an httpOnly cookie; signing it as a compact JWS
// makes the cookie tamper-evident without a server-side session store.
package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ActiveUser is the session payload carried by the caller across requests.
//
// # Lifecycle
//
// Created by the OAuth code exchange, replaced wholesale on refresh, never
// mutated field-by-field. Token is the GitHub user-to-server bearer token;
// RefreshToken is present only when the OAuth app has token expiry enabled.
type ActiveUser struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Actor        string `json:"actor"`
	Avatar       string `json:"avatar"`
	Email        string `json:"email,omitempty"`
}

// sessionClaims embeds the [ActiveUser] payload inside the registered JWT claims.
type sessionClaims struct {
	jwt.RegisteredClaims

	User ActiveUser `json:"usr"`
}

// SessionCodec signs and verifies session cookies using HS256.
//
// # Why symmetric signing?
//
// The cookie is produced and consumed by the same process, so an asymmetric
// key pair would add key management cost without a second verifying party.
type SessionCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewSessionCodec creates a codec from the shared session secret.
func NewSessionCodec(secret, issuer string, ttl time.Duration) *SessionCodec {
	return &SessionCodec{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// Encode signs the session payload into a compact JWS string for the cookie.
func (codec *SessionCodec) Encode(user *ActiveUser) (string, error) {
	currentTime := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Actor,
			Issuer:    codec.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(codec.ttl)),
		},
		User: *user,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(codec.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign session: %w", err)
	}

	return signed, nil
}

// Decode verifies the signature and expiry of a session cookie value and
// returns the embedded payload.
func (codec *SessionCodec) Decode(value string) (*ActiveUser, error) {
	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		// Reject any algorithm other than the one we sign with.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", t.Header["alg"])
		}
		return codec.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse session: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("sec: session token is invalid")
	}

	user := claims.User
	return &user, nil
}
