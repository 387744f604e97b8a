package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"financas/internal/domain"
	"financas/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRegistrationPassword indicates the registration secret is incorrect.
	ErrInvalidRegistrationPassword = errors.New("invalid registration password")
	// ErrUserAlreadyExists is returned when attempting to register with an existing email.
	ErrUserAlreadyExists = errors.New("user already exists")
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// dummyHash is compared against when the email is unknown so that lookups of
// missing and existing accounts take the same time.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("financas-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("generate dummy hash: %v", err))
	}
	return hash
})

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, email, name, password, providedSecret string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type userService struct {
	users          repository.UserRepository
	registerSecret string
}

func NewUserService(users repository.UserRepository, registerSecret string) UserService {
	return &userService{
		users:          users,
		registerSecret: strings.TrimSpace(registerSecret),
	}
}

func (s *userService) Register(ctx context.Context, email, name, password, providedSecret string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	providedSecret = strings.TrimSpace(providedSecret)

	if email == "" {
		return nil, NewValidationError("E-mail é obrigatório")
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, NewValidationError("E-mail inválido")
	}
	if strings.TrimSpace(password) == "" {
		return nil, NewValidationError("Senha é obrigatória")
	}
	if len(password) < 8 {
		return nil, NewValidationError("Senha deve ter pelo menos 8 caracteres")
	}
	if len(password) > maxPasswordBytes {
		return nil, NewValidationError("Senha deve ter no máximo 72 bytes")
	}
	if s.registerSecret == "" {
		return nil, fmt.Errorf("registration secret is not configured")
	}
	if subtle.ConstantTimeCompare([]byte(providedSecret), []byte(s.registerSecret)) != 1 {
		return nil, ErrInvalidRegistrationPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, translate("get user", err)
	}
	return sanitizeUser(user), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
