package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"time"

	"titlehub/internal/api/models"
	"titlehub/internal/api/repository"
	"titlehub/internal/config"
	"titlehub/internal/mailer"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameReserved = errors.New("username \"me\" is reserved")
	ErrInvalidUsername  = errors.New("username may only contain letters, digits and @/./+/-/_")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrNameInUse        = errors.New("username already in use")
	ErrEmailInUse       = errors.New("email already in use")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidCode      = errors.New("invalid confirmation code")
	ErrInvalidToken     = errors.New("invalid token")
)

var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

// Claims carried by the access token.
type Claims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Superuser bool   `json:"superuser,omitempty"`
	jwt.RegisteredClaims
}

type AuthService interface {
	SignUp(ctx context.Context, username, email string) (*models.User, error)
	IssueToken(ctx context.Context, username, confirmationCode string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	userRepo       repository.UserRepository
	mailer         mailer.Mailer
	logger         *slog.Logger
	jwtSecret      string
	accessTokenTTL time.Duration
}

func NewAuthService(userRepo repository.UserRepository, m mailer.Mailer, logger *slog.Logger, cfg *config.Config) AuthService {
	return &authService{
		userRepo:       userRepo,
		mailer:         m,
		logger:         logger,
		jwtSecret:      cfg.JWTSecret,
		accessTokenTTL: cfg.AccessTokenTTL,
	}
}

// SignUp registers a user, or refreshes the confirmation code when the
// exact (username, email) pair already exists. The code is regenerated on
// every call, stored only as a bcrypt hash, and mailed to the user.
// Mail failure does not fail the registration.
func (s *authService) SignUp(ctx context.Context, username, email string) (*models.User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	code := uuid.New().String()
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByUsernameAndEmail(username, email)
	switch {
	case err == nil:
		// Repeat signup for the same pair: re-issue the code.
		user.ConfirmationCode = string(codeHash)
		if err := s.userRepo.Save(user); err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Uniqueness against a *different* record.
		if _, err := s.userRepo.FindByUsername(username); err == nil {
			return nil, ErrNameInUse
		}
		if _, err := s.userRepo.FindByEmail(email); err == nil {
			return nil, ErrEmailInUse
		}
		user = &models.User{
			Username:         username,
			Email:            email,
			Role:             models.RoleUser,
			ConfirmationCode: string(codeHash),
		}
		if err := s.userRepo.Create(user); err != nil {
			// Lost the race: the store's constraint is authoritative.
			// Re-probe to report the column that actually collided.
			if repository.IsUniqueViolation(err) {
				if _, lookErr := s.userRepo.FindByUsername(username); lookErr == nil {
					return nil, ErrNameInUse
				}
				return nil, ErrEmailInUse
			}
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.mailer.SendConfirmationCode(ctx, email, username, code); err != nil {
		s.logger.Error("failed to send confirmation code", "username", username, "error", err)
	}

	return user, nil
}

// IssueToken exchanges username + confirmation code for a signed bearer
// token. Unknown username is a lookup failure, not a credential failure.
func (s *authService) IssueToken(ctx context.Context, username, confirmationCode string) (string, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.ConfirmationCode), []byte(confirmationCode)); err != nil {
		return "", ErrInvalidCode
	}

	return s.generateAccessToken(user)
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		Superuser: user.Superuser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func validateUsername(username string) error {
	if username == "me" {
		return ErrUsernameReserved
	}
	if username == "" || len(username) > 150 || !usernameRe.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" || len(email) > 254 {
		return ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}
