package server

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shastralib/granthalaya/internal/config"
)

// TokenService issues and verifies the bearer tokens that guard the admin
// endpoints. An empty secret leaves admin access disabled.
type TokenService struct {
	Secret   []byte
	Issuer   string
	Duration time.Duration
}

// NewTokenService builds a token service from the admin config.
func NewTokenService(cfg config.AdminConfig) TokenService {
	ttl := time.Duration(cfg.TokenTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	return TokenService{
		Secret:   []byte(cfg.Secret),
		Issuer:   cfg.Issuer,
		Duration: ttl,
	}
}

// Enabled reports whether an admin secret is configured.
func (ts TokenService) Enabled() bool {
	return len(ts.Secret) > 0
}

// VerifySecret compares the presented secret in constant time.
func (ts TokenService) VerifySecret(secret string) bool {
	if !ts.Enabled() {
		return false
	}
	return subtle.ConstantTimeCompare(ts.Secret, []byte(secret)) == 1
}

// Sign issues a fresh admin token and returns it with its expiry.
func (ts TokenService) Sign() (string, time.Time, error) {
	exp := time.Now().Add(ts.Duration)

	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    ts.Issuer,
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(ts.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return s, exp, nil
}

// Parse verifies tokenString and returns its claims.
func (ts TokenService) Parse(tokenString string) (*jwt.RegisteredClaims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		// enforce HS256
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.Secret, nil
	}, jwt.WithIssuer(ts.Issuer))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := tok.Claims.(*jwt.RegisteredClaims)
	if !ok || !tok.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

type loginRequest struct {
	Secret string `json:"secret"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.tokens.Enabled() {
		s.respondError(w, http.StatusForbidden, "admin access not configured")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !s.tokens.VerifySecret(req.Secret) {
		s.logger.Warn("admin login rejected")
		s.respondError(w, http.StatusUnauthorized, "invalid secret")
		return
	}
	token, exp, err := s.tokens.Sign()
	if err != nil {
		s.logger.Error("token signing failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.tokens.Enabled() {
			s.respondError(w, http.StatusForbidden, "admin access not configured")
			return
		}
		h := r.Header.Get("Authorization")
		if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			s.respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		raw := strings.TrimSpace(h[len("Bearer "):])
		if _, err := s.tokens.Parse(raw); err != nil {
			s.logger.Debug("token rejected", zap.Error(err))
			s.respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
