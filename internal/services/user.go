package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/assettrack/apiserver/internal/store"
	"github.com/assettrack/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput is the sign-in payload.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserService encapsulates account use-cases: registration, credential
// checks and identity lookups.
type UserService struct {
	repo     UserRepository
	hashCost int
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo, hashCost: bcrypt.DefaultCost}
}

// Register validates the input, rejects duplicate emails and stores the
// user with a bcrypt hash of the password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (types.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	password := strings.TrimSpace(input.Password)

	if name == "" || email == "" || password == "" {
		return types.User{}, invalid("", "name, email and password are required")
	}
	if err := validatePersonName(name); err != nil {
		return types.User{}, err
	}
	if err := validateEmail(email); err != nil {
		return types.User{}, err
	}
	if err := validatePassword(password); err != nil {
		return types.User{}, err
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return types.User{}, errEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, storeFailure("lookup email", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.repo.Create(ctx, types.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, errEmailTaken
		}
		return types.User{}, storeFailure("create user", err)
	}
	return user, nil
}

// Login checks the credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, input LoginInput) (types.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	password := strings.TrimSpace(input.Password)
	if email == "" || password == "" {
		return types.User{}, invalid("", "email and password are required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, errInvalidCredentials
		}
		return types.User{}, storeFailure("lookup email", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, errInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, &NotFoundError{Entity: "user"}
		}
		return types.User{}, storeFailure("load user", err)
	}
	return user, nil
}

var (
	errEmailTaken         = &conflictError{message: "email already registered"}
	errInvalidCredentials = &unauthenticatedError{message: "invalid credentials"}
)

type conflictError struct{ message string }

func (e *conflictError) Error() string        { return e.message }
func (e *conflictError) Is(target error) bool { return target == ErrConflict }

type unauthenticatedError struct{ message string }

func (e *unauthenticatedError) Error() string        { return e.message }
func (e *unauthenticatedError) Is(target error) bool { return target == ErrUnauthenticated }
