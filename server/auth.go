package server

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/GoCodeAlone/todochat/server/api"
	"github.com/GoCodeAlone/todochat/user"
)

const defaultTokenTTL = 30 * time.Minute

// tokenClaims is the JWT payload issued at signup and login.
type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// signToken issues an HS256 token for u valid for ttl.
func signToken(secret string, u *user.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// verifyToken validates a token and returns its claims.
func verifyToken(secret, token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// generateSecret creates a random 32-byte secret.
func generateSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// jwtSecret returns the configured JWT secret, generating one if empty.
func (s *Server) jwtSecret() string {
	if s.cfg.Auth.JWTSecret != "" {
		return s.cfg.Auth.JWTSecret
	}
	s.secretOnce.Do(func() {
		s.logger.Warn("no JWT secret configured, tokens will not survive a restart")
		s.generatedSecret = generateSecret()
	})
	return s.generatedSecret
}

func (s *Server) tokenTTL() time.Duration {
	if s.cfg.Auth.TokenTTL > 0 {
		return s.cfg.Auth.TokenTTL
	}
	return defaultTokenTTL
}

// credentialsRequest is the body accepted by signup and login.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// tokenResponse is the body returned by a successful signup or login.
type tokenResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	User        *user.User `json:"user"`
}

// handleSignup registers a user and logs them in.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := s.users.Create(r.Context(), req.Email, req.Name, req.Password)
	switch {
	case errors.Is(err, user.ErrValidation):
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, user.ErrEmailTaken):
		writeJSONError(w, http.StatusConflict, "email already registered")
		return
	case err != nil:
		s.logger.Error("create user", slog.Any("err", err))
		writeJSONError(w, http.StatusInternalServerError, "could not create user")
		return
	}

	s.logger.Info("user signed up", slog.String("user_id", u.ID))
	s.issueToken(w, http.StatusCreated, u)
}

// handleLogin validates credentials and issues a JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := s.users.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, user.ErrInvalidCredentials) {
		writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		s.logger.Error("authenticate", slog.Any("err", err))
		writeJSONError(w, http.StatusInternalServerError, "could not log in")
		return
	}
	s.issueToken(w, http.StatusOK, u)
}

func (s *Server) issueToken(w http.ResponseWriter, status int, u *user.User) {
	token, err := signToken(s.jwtSecret(), u, s.tokenTTL())
	if err != nil {
		s.logger.Error("sign jwt", slog.Any("err", err))
		writeJSONError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, status, tokenResponse{AccessToken: token, TokenType: "bearer", User: u})
}

// handleMe returns the currently authenticated user.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.Get(r.Context(), api.UserIDFromContext(r.Context()))
	if errors.Is(err, user.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		s.logger.Error("get user", slog.Any("err", err))
		writeJSONError(w, http.StatusInternalServerError, "could not load user")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// authMiddleware enforces JWT authentication on wrapped handlers.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeJSONError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
			return
		}
		claims, err := verifyToken(s.jwtSecret(), strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid token: "+err.Error())
			return
		}
		ctx := api.ContextWithUserID(r.Context(), claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
