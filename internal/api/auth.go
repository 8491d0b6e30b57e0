// Oshifeed - Personalized VTuber Feed from Followed Channels
// Copyright 2026 Haruki M. (harukimoto)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harukimoto/oshifeed

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/harukimoto/oshifeed/internal/config"
	"github.com/harukimoto/oshifeed/internal/logging"
)

type contextKey string

// userKeyContextKey carries the authenticated user key through the request
// context. Handlers read it with UserKeyFromContext.
const userKeyContextKey contextKey = "oshifeed.userKey"

// defaultUserKey is assigned in "none" auth mode when the client sends no
// X-User-Key header. Single-user deployments never need to set the header.
const defaultUserKey = "local"

// UserKeyFromContext returns the user key placed by the auth middleware.
func UserKeyFromContext(ctx context.Context) string {
	key, _ := ctx.Value(userKeyContextKey).(string)
	return key
}

// withUserKey returns a copy of ctx carrying the user key. Exported to tests
// via test helpers only.
func withUserKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, userKeyContextKey, key)
}

// authMiddleware resolves the per-request user key according to the configured
// auth mode.
//
// Mode "jwt" requires a bearer token signed with the shared HS256 secret; the
// subject claim becomes the user key. Mode "none" trusts the X-User-Key header
// and falls back to "local", which suits single-user home deployments behind a
// private network.
func authMiddleware(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userKey string

			switch cfg.AuthMode {
			case "jwt":
				token := extractBearerToken(r)
				if token == "" {
					respondError(w, http.StatusUnauthorized, ErrCodeAuthenticationFailed,
						"missing bearer token", nil)
					return
				}

				subject, err := verifyToken(token, cfg.JWTSecret)
				if err != nil {
					logging.Warn().Str("remote", sanitizeLogValue(r.RemoteAddr)).Err(err).Msg("Rejected bearer token")
					respondError(w, http.StatusUnauthorized, ErrCodeAuthenticationFailed,
						"invalid bearer token", nil)
					return
				}
				userKey = subject

			default:
				userKey = r.Header.Get("X-User-Key")
				if userKey == "" {
					userKey = defaultUserKey
				}
			}

			next.ServeHTTP(w, r.WithContext(withUserKey(r.Context(), userKey)))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// verifyToken validates an HS256 token and returns its subject claim.
func verifyToken(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if subject == "" {
		return "", jwt.ErrTokenRequiredClaimMissing
	}
	return subject, nil
}
