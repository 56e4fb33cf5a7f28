package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/uniassist/internal/db"
	"github.com/raphaelgruber/uniassist/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for an unknown login or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when registering an email that is already in use.
	ErrEmailTaken = errors.New("email already taken")
	// ErrAdminIDTaken is returned when registering an admin id that is already in use.
	ErrAdminIDTaken = errors.New("admin id already taken")
)

// AccountStore persists student and admin accounts.
type AccountStore interface {
	QueryCreateUser(ctx context.Context, in models.UserInput) (*models.User, error)
	QueryGetUserByEmail(ctx context.Context, email string) (*models.User, error)
	QueryGetUser(ctx context.Context, id string) (*models.User, error)
	QueryCreateAdmin(ctx context.Context, in models.AdminInput) (*models.Admin, error)
	QueryGetAdminByAdminID(ctx context.Context, adminID string) (*models.Admin, error)
	QueryGetAdmin(ctx context.Context, id string) (*models.Admin, error)
}

// AccountService registers and authenticates students and admins.
type AccountService struct {
	store AccountStore
	cost  int
}

// NewAccountService creates an AccountService using bcrypt's default cost.
func NewAccountService(store AccountStore) *AccountService {
	return &AccountService{store: store, cost: bcrypt.DefaultCost}
}

// bcrypt rejects longer passwords.
const maxPasswordBytes = 72

// RegisterUser creates a student account.
func (s *AccountService) RegisterUser(ctx context.Context, name, email, password string) (*models.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)

	v := validator{}
	v.required("name", name)
	v.email("email", email)
	v.required("password", password)
	v.maxBytes("password", password, maxPasswordBytes)
	if err := v.err(); err != nil {
		return nil, err
	}

	if _, err := s.store.QueryGetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	user, err := s.store.QueryCreateUser(ctx, models.UserInput{Name: name, Email: email, PasswordHash: hash})
	if errors.Is(err, db.ErrAlreadyExists) {
		return nil, ErrEmailTaken
	}
	return user, err
}

// AuthenticateUser returns the account for email if password matches.
func (s *AccountService) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.QueryGetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// User returns the account with record key id.
func (s *AccountService) User(ctx context.Context, id string) (*models.User, error) {
	return s.store.QueryGetUser(ctx, id)
}

// RegisterAdmin creates an admin account.
func (s *AccountService) RegisterAdmin(ctx context.Context, name, adminID, password string) (*models.Admin, error) {
	name, adminID = strings.TrimSpace(name), strings.TrimSpace(adminID)

	v := validator{}
	v.required("name", name)
	v.required("admin_id", adminID)
	v.required("password", password)
	v.maxBytes("password", password, maxPasswordBytes)
	if err := v.err(); err != nil {
		return nil, err
	}

	if _, err := s.store.QueryGetAdminByAdminID(ctx, adminID); err == nil {
		return nil, ErrAdminIDTaken
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("check admin id: %w", err)
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	admin, err := s.store.QueryCreateAdmin(ctx, models.AdminInput{Name: name, AdminID: adminID, PasswordHash: hash})
	if errors.Is(err, db.ErrAlreadyExists) {
		return nil, ErrAdminIDTaken
	}
	return admin, err
}

// AuthenticateAdmin returns the admin for adminID if password matches.
func (s *AccountService) AuthenticateAdmin(ctx context.Context, adminID, password string) (*models.Admin, error) {
	admin, err := s.store.QueryGetAdminByAdminID(ctx, strings.TrimSpace(adminID))
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, fmt.Errorf("lookup admin: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return admin, nil
}

// Admin returns the admin with record key id.
func (s *AccountService) Admin(ctx context.Context, id string) (*models.Admin, error) {
	return s.store.QueryGetAdmin(ctx, id)
}

func (s *AccountService) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}
