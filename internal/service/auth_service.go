package service

import (
	"errors"
	"fmt"

	"platefeed/internal/model"
	"platefeed/internal/repository"
	"platefeed/internal/util"

	"golang.org/x/crypto/bcrypt"
)

// AuthService is the identity collaborator: everything downstream of it only
// ever sees the resolved viewer id (or none) that its tokens carry.
type AuthService interface {
	Register(req RegisterRequest) (*model.User, string, error)
	Login(req LoginRequest) (*model.User, string, error)
}

type RegisterRequest struct {
	DisplayName string  `json:"display_name" binding:"required"`
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required,min=8"`
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	PhotoURL    *string `json:"photo_url,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authService struct {
	userRepo  repository.UserRepository
	jwtSecret string
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
	}
}

// Register creates an account and returns it with a fresh token
func (s *authService) Register(req RegisterRequest) (*model.User, string, error) {
	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		return nil, "", fmt.Errorf("%w: email already registered", model.ErrInvalidInput)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhotoURL:     req.PhotoURL,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := util.GenerateToken(user.ID, user.Email, s.jwtSecret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return user, token, nil
}

// Login verifies credentials and returns the user with a fresh token
func (s *authService) Login(req LoginRequest) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: bad credentials", model.ErrUnauthorized)
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", fmt.Errorf("%w: bad credentials", model.ErrUnauthorized)
	}

	token, err := util.GenerateToken(user.ID, user.Email, s.jwtSecret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return user, token, nil
}
