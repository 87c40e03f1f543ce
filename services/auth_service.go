package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/geoattend/models"
	"github.com/cppla/geoattend/utils"
)

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token     string
	TokenType string
	Role      string
	Subject   string
	ExpiresAt time.Time
}

// AuthService verifies credentials against an ordered list of identity providers and issues tokens.
type AuthService struct {
	providers []IdentityProvider
	hasher    utils.PasswordHasher
	tokens    *utils.TokenIssuer
}

// NewAuthService tries providers in the given order; the first verified match wins.
func NewAuthService(hasher utils.PasswordHasher, tokens *utils.TokenIssuer, providers ...IdentityProvider) *AuthService {
	return &AuthService{providers: providers, hasher: hasher, tokens: tokens}
}

// Login returns a token for the first provider whose account matches identifier and password.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	for _, p := range s.providers {
		id, err := p.Lookup(ctx, identifier)
		if err != nil {
			return nil, fmt.Errorf("lookup identity: %w", err)
		}
		if id == nil || !s.hasher.Verify(id.PasswordHash, password) {
			continue
		}

		token, expiresAt, err := s.tokens.Issue(id.Subject, id.Role)
		if err != nil {
			return nil, fmt.Errorf("issue token: %w", err)
		}
		return &LoginResult{
			Token:     token,
			TokenType: "bearer",
			Role:      id.Role,
			Subject:   id.Subject,
			ExpiresAt: expiresAt,
		}, nil
	}
	return nil, ErrInvalidCredentials
}

// ProvisionAdmin creates the admin account if no admin with that email exists.
// An existing admin is left untouched. created reports whether a row was inserted.
func ProvisionAdmin(ctx context.Context, db *gorm.DB, hasher utils.PasswordHasher, email, password string) (created bool, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, fmt.Errorf("%w: admin email and password are required", ErrValidation)
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.Admin{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return false, err
	}
	admin := models.Admin{Email: email, PasswordHash: hash}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
