package service

import (
	"errors"

	"titlehub/internal/api/models"
	"titlehub/internal/api/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidRole = errors.New("unknown role")

// UserUpdate carries the mutable profile fields; nil means "leave as is".
type UserUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *string
}

type UserService interface {
	List(search string, page, pageSize int) ([]models.User, int64, error)
	Create(username, email, role string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	Update(username string, upd UserUpdate) (*models.User, error)
	// UpdateSelf ignores any role change; only admins assign roles.
	UpdateSelf(userID string, upd UserUpdate) (*models.User, error)
	Delete(username string) error
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) List(search string, page, pageSize int) ([]models.User, int64, error) {
	return s.userRepo.List(search, page, pageSize)
}

// Create is the admin-side user creation. The account starts with an
// unusable confirmation code; the user goes through signup to get one.
func (s *userService) Create(username, email, role string) (*models.User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if role == "" {
		role = models.RoleUser
	}
	if !validRole(role) {
		return nil, ErrInvalidRole
	}

	placeholder, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:         username,
		Email:            email,
		Role:             role,
		ConfirmationCode: string(placeholder),
	}
	if err := s.userRepo.Create(user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrNameInUse
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetByUsername(username string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetByID(id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) Update(username string, upd UserUpdate) (*models.User, error) {
	user, err := s.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if upd.Role != nil && !validRole(*upd.Role) {
		return nil, ErrInvalidRole
	}
	applyUpdate(user, upd, true)
	if err := s.userRepo.Save(user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateSelf(userID string, upd UserUpdate) (*models.User, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}
	applyUpdate(user, upd, false)
	if err := s.userRepo.Save(user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) Delete(username string) error {
	if err := s.userRepo.Delete(username); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func applyUpdate(user *models.User, upd UserUpdate, allowRole bool) {
	if upd.Email != nil {
		user.Email = *upd.Email
	}
	if upd.FirstName != nil {
		user.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		user.LastName = *upd.LastName
	}
	if upd.Bio != nil {
		user.Bio = *upd.Bio
	}
	if allowRole && upd.Role != nil {
		user.Role = *upd.Role
	}
}

func validRole(role string) bool {
	switch role {
	case models.RoleUser, models.RoleModerator, models.RoleAdmin:
		return true
	}
	return false
}
