package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nexcharge/apiserver/internal/auth"
	"github.com/nexcharge/apiserver/internal/store"
	"github.com/nexcharge/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// TokenIssuer signs session tokens for a user id.
type TokenIssuer interface {
	Issue(userID int) (string, error)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string            `json:"token"`
	User  types.UserSummary `json:"user"`
}

// AccountService encapsulates registration and login.
type AccountService struct {
	repo   UserRepository
	hasher auth.Hasher
	tokens TokenIssuer

	dummyOnce sync.Once
	dummyHash string
}

func NewAccountService(repo UserRepository, hasher auth.Hasher, tokens TokenIssuer) *AccountService {
	return &AccountService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
	}
}

// NormalizeEmail trims and lower-cases an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. The password is hashed before anything is
// written; on any error no user row exists.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (types.UserSummary, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return types.UserSummary{}, invalid("name, email and password are required")
	}
	if !strings.Contains(email, "@") {
		return types.UserSummary{}, invalid("invalid email")
	}
	if len(password) > auth.MaxPasswordBytes {
		return types.UserSummary{}, invalid("password must be at most 72 bytes")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return types.UserSummary{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.UserSummary{}, fmt.Errorf("check user: %w", err)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return types.UserSummary{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
	})
	if err != nil {
		// Lost a race against a concurrent registration of the same email.
		if errors.Is(err, store.ErrDuplicate) {
			return types.UserSummary{}, ErrEmailTaken
		}
		return types.UserSummary{}, fmt.Errorf("create user: %w", err)
	}

	return user.Summary(), nil
}

// Login verifies credentials and issues a session token.
func (s *AccountService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.burnVerify(password)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	return LoginResult{Token: token, User: user.Summary()}, nil
}

// Me returns the summary of an authenticated user.
func (s *AccountService) Me(ctx context.Context, userID int) (types.UserSummary, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return types.UserSummary{}, err
	}
	return user.Summary(), nil
}

// burnVerify spends the same work as a real password check so unknown
// emails are not distinguishable by response time.
func (s *AccountService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("nexcharge-dummy-password")
	})
	if s.dummyHash != "" {
		_ = s.hasher.Verify(password, s.dummyHash)
	}
}
