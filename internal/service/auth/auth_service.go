package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"feedback-be/internal/domain"
	"feedback-be/internal/service"
	"feedback-be/pkg/errors"
	"feedback-be/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the respondent profile issued by the identity provider
type Claims struct {
	Role        string      `json:"role"`
	Faculty     string      `json:"faculty,omitempty"`
	FacultyName string      `json:"faculty_name,omitempty"`
	Program     string      `json:"program,omitempty"`
	ProgramName string      `json:"program_name,omitempty"`
	Course      json.Number `json:"course,omitempty"`
	Group       string      `json:"group,omitempty"`
	GroupName   string      `json:"group_name,omitempty"`
	jwt.RegisteredClaims
}

// Service validates HS256 tokens minted by the identity collaborator
type Service struct {
	secret []byte
	issuer string
	logger *logger.Logger
}

// NewService creates a new auth service
func NewService(secret, issuer string, logger *logger.Logger) service.AuthService {
	return &Service{secret: []byte(secret), issuer: issuer, logger: logger}
}

// ValidateToken verifies the token signature and expiry and returns the profile it carries
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*domain.RespondentProfile, error) {
	if len(s.secret) == 0 {
		s.logger.Error("JWT secret not configured")
		return nil, errors.NewAuthenticationError("Token validation not configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		s.logger.WithError(err).Debug("Failed to validate token")
		return nil, errors.NewAuthenticationError("Invalid or expired token")
	}

	profile, err := claims.Profile()
	if err != nil {
		s.logger.WithError(err).Warn("Token carries an unusable profile")
		return nil, errors.NewAuthenticationError(err.Error())
	}

	s.logger.WithFields(map[string]interface{}{
		"respondent_id": profile.ID,
		"role":          profile.Role,
	}).Debug("Token validated")
	return profile, nil
}

// Profile converts the claims into a respondent profile
func (c *Claims) Profile() (*domain.RespondentProfile, error) {
	if c.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	role := domain.Role(c.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", c.Role)
	}

	course := 0
	if c.Course != "" {
		n, err := strconv.Atoi(c.Course.String())
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid course %q", c.Course)
		}
		course = n
	}

	return &domain.RespondentProfile{
		ID:      c.Subject,
		Role:    role,
		Faculty: domain.Attribute{Key: c.Faculty, Name: c.FacultyName},
		Program: domain.Attribute{Key: c.Program, Name: c.ProgramName},
		Course:  course,
		Group:   domain.Attribute{Key: c.Group, Name: c.GroupName},
	}, nil
}

// Sign mints a token for a profile. Used by the seed command and tests.
func Sign(secret, issuer string, profile domain.RespondentProfile, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:        string(profile.Role),
		Faculty:     profile.Faculty.Key,
		FacultyName: profile.Faculty.Name,
		Program:     profile.Program.Key,
		ProgramName: profile.Program.Name,
		Group:       profile.Group.Key,
		GroupName:   profile.Group.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if profile.Course > 0 {
		claims.Course = json.Number(strconv.Itoa(profile.Course))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
