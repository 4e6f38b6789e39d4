package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type tokenIssuer interface {
	GenerateToken(userID uuid.UUID, role string) (string, error)
}

// RatingReader supplies review aggregates for public profiles.
type RatingReader interface {
	UserRatingSummary(ctx context.Context, userID uuid.UUID) (avg float64, count int64, err error)
}

// Service contains all business logic for authentication and profiles
type Service struct {
	users   Repository
	tokens  tokenIssuer
	ratings RatingReader
}

func NewService(users Repository, tokens tokenIssuer, ratings RatingReader) *Service {
	return &Service{users: users, tokens: tokens, ratings: ratings}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		City:         strings.TrimSpace(req.City),
		Role:         RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if CheckPassword(req.Password, user.PasswordHash) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

// GetByID is used by other domains to resolve display data.
func (s *Service) GetByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*User, error) {
	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrValidation
		}
		fields["name"] = name
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.City != nil {
		fields["city"] = strings.TrimSpace(*req.City)
	}
	if len(fields) > 0 {
		if err := s.users.UpdateProfile(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	return s.users.GetByID(ctx, userID)
}

// AttachIdentityDocument links an uploaded identity document to the user.
// Verification itself is an admin decision.
func (s *Service) AttachIdentityDocument(ctx context.Context, userID, uploadID uuid.UUID) error {
	return s.users.UpdateProfile(ctx, userID, map[string]any{
		"identity_document_id": uploadID,
		"identity_verified":    false,
	})
}

func (s *Service) SetIdentityVerified(ctx context.Context, userID uuid.UUID, verified bool) error {
	return s.users.UpdateProfile(ctx, userID, map[string]any{"identity_verified": verified})
}

func (s *Service) PublicProfile(ctx context.Context, userID uuid.UUID) (*PublicProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &PublicProfile{
		ID:               user.ID,
		Name:             user.Name,
		City:             user.City,
		IdentityVerified: user.IdentityVerified,
		MemberSince:      user.CreatedAt,
	}
	if s.ratings != nil {
		avg, count, err := s.ratings.UserRatingSummary(ctx, userID)
		if err != nil {
			return nil, err
		}
		profile.RatingAverage = avg
		profile.RatingCount = count
	}
	return profile, nil
}

func (s *Service) issue(user *User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword hashes a plain password string
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plain password with a hash
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
