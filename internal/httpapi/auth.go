package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/ahinestrog/bookmarket/internal/account"
	"github.com/ahinestrog/bookmarket/internal/rabbit"
)

type registerRequest struct {
	Name     string       `json:"name"`
	Email    string       `json:"email"`
	Password string       `json:"password"`
	Role     account.Role `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token   string           `json:"token"`
	Account *account.Account `json:"account"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "name, email and password are required")
		return
	}
	if req.Role == "" {
		req.Role = account.RoleBuyer
	}
	if !account.ValidRole(req.Role) {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "role must be buyer or seller")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not hash password")
		return
	}
	a := &account.Account{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if _, err := s.accounts.Create(r.Context(), a); err != nil {
		if errors.Is(err, account.ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, "EMAIL_TAKEN", "email already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not create account")
		return
	}
	if err := s.events.PublishJSON(context.Background(), rabbit.RKUserCreated, rabbit.UserCreatedPayload{
		UserID: a.ID, Name: a.Name, Email: a.Email, Role: string(a.Role),
	}); err != nil {
		log.Warn().Err(err).Msg("publish user.created failed")
	}

	token, err := s.issueToken(a)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not issue token")
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, Account: a})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := s.accounts.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		// misma respuesta para email inexistente y password malo
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
		return
	}
	token, err := s.issueToken(a)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, Account: a})
}

func (s *Server) issueToken(a *account.Account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", a.ID),
		"role": string(a.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.TokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}

func (s *Server) parseToken(raw string) (Identity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !tok.Valid {
		return Identity{}, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errors.New("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	var id int64
	if _, err := fmt.Sscanf(sub, "%d", &id); err != nil || id <= 0 {
		return Identity{}, errors.New("invalid subject")
	}
	role, _ := claims["role"].(string)
	return Identity{AccountID: id, Role: account.Role(role)}, nil
}
