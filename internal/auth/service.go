package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/coach-hub/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrDevAuthDisabled = errors.New("dev auth disabled")
)

const (
	devTrainerID = "dev-trainer"
	devTTL       = 30 * 24 * time.Hour
)

// Service issues and verifies the HS256 bearer tokens that identify a trainer.
type Service struct {
	config *config.Config
	now    func() time.Time
}

func NewService(cfg *config.Config) *Service {
	return &Service{config: cfg, now: time.Now}
}

// SignInDev issues a long-lived token without any identity provider.
func (s *Service) SignInDev(ctx context.Context, trainerID string) (*DevAuthResponse, error) {
	_ = ctx
	if s.config.AuthMode != config.AuthModeDev {
		return nil, ErrDevAuthDisabled
	}

	trainerID = strings.TrimSpace(trainerID)
	if trainerID == "" {
		trainerID = devTrainerID
	}

	accessToken, err := s.IssueToken(trainerID, devTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dev JWT: %w", err)
	}

	return &DevAuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(devTTL.Seconds()),
		TrainerID:   trainerID,
	}, nil
}

// IssueToken signs a token with sub=trainerID. A zero ttl uses JWT_TTL_MINUTES.
func (s *Service) IssueToken(trainerID string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = time.Duration(s.config.JWTTTLMinutes) * time.Minute
	}
	now := s.now()

	claims := jwt.RegisteredClaims{
		Subject:   trainerID,
		Issuer:    s.config.JWTIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// VerifyJWT returns the trainer id carried in sub.
func (s *Service) VerifyJWT(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.config.JWTIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
