package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-migration-audit/internal/model"
	"go-migration-audit/pkg/apierror"
)

const (
	RoleAuditor = "auditor"
	RoleAdmin   = "admin"

	tokenIssuer = "go-migration-audit"
)

type reportClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService mints and checks the HS256 bearer tokens of the report API.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(strings.TrimSpace(secret)) < 32 {
		return nil, apierror.Config("JWT_SECRET must be at least 32 characters", "")
	}
	if ttl <= 0 {
		return nil, apierror.Config("token ttl must be positive", ttl.String())
	}

	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (s *TokenService) Issue(subject string, role string) (model.TokenData, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return model.TokenData{}, fmt.Errorf("%w: token subject is required", model.ErrInvalidInput)
	}

	role = strings.ToLower(strings.TrimSpace(role))
	if role != RoleAuditor && role != RoleAdmin {
		return model.TokenData{}, fmt.Errorf("%w: role must be %q or %q", model.ErrInvalidInput, RoleAuditor, RoleAdmin)
	}

	now := s.now().UTC()
	claims := reportClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return model.TokenData{}, fmt.Errorf("sign token: %w", err)
	}

	return model.TokenData{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.ttl.Seconds()),
	}, nil
}

func (s *TokenService) ValidateToken(tokenString string) (*model.AuthClaims, error) {
	claims := &reportClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apierror.Unauthorized("token expired")
		}
		return nil, apierror.Unauthorized("invalid token")
	}

	if claims.Subject == "" {
		return nil, apierror.Unauthorized("invalid token subject")
	}

	return &model.AuthClaims{Subject: claims.Subject, Role: claims.Role, TokenID: claims.ID}, nil
}
