package services

import (
	"context"
	"errors"

	"todo-api/backend/internal/logging"
	"todo-api/backend/internal/models"
	"todo-api/backend/internal/repositories"

	"github.com/sirupsen/logrus"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	User    models.PublicUser
	Session *Session
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	Logout(ctx context.Context, token string) error
}

type AuthServiceImpl struct {
	users    repositories.UserRepository
	hasher   PasswordHasher
	sessions *SessionManager
	logger   *logrus.Logger

	// dummyDigest is compared against for unknown emails so that every
	// failed login costs one bcrypt compare.
	dummyDigest string
}

func NewAuthService(users repositories.UserRepository, hasher PasswordHasher, sessions *SessionManager, logger *logrus.Logger) *AuthServiceImpl {
	s := &AuthServiceImpl{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		logger:   logging.OrDiscard(logger),
	}
	digest, err := hasher.Hash("not-a-real-password")
	if err != nil {
		s.logger.WithError(err).Warn("login: dummy digest unavailable")
	}
	s.dummyDigest = digest
	return s
}

func (s *AuthServiceImpl) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := validateInput(input, MsgCredentialsRequired); err != nil {
		return nil, err
	}

	_, err := s.users.FindByEmail(ctx, input.Email)
	switch {
	case err == nil:
		return nil, NewError(KindDuplicateAccount, MsgDuplicateAccount)
	case !errors.Is(err, repositories.ErrNotFound):
		s.logger.WithError(err).Error("register: user lookup failed")
		return nil, internalError(err)
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		if KindOf(err) == KindInternal {
			s.logger.WithError(err).Error("register: password hashing failed")
		}
		return nil, err
	}

	user := &models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: digest,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, NewError(KindDuplicateAccount, MsgDuplicateAccount)
		}
		s.logger.WithError(err).Error("register: user insert failed")
		return nil, internalError(err)
	}

	session, err := s.sessions.Issue(user.ID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("register: session issue failed")
		return nil, internalError(err)
	}

	s.logger.WithField("user_id", user.ID).Info("user registered")
	return &AuthResult{User: user.Public(), Session: session}, nil
}

// Login reports unknown emails and wrong passwords with the same error and
// spends one bcrypt comparison on both paths.
func (s *AuthServiceImpl) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if err := validateInput(input, MsgCredentialsRequired); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.hasher.Verify(input.Password, s.dummyDigest)
			return nil, NewError(KindInvalidCredentials, MsgInvalidCredentials)
		}
		s.logger.WithError(err).Error("login: user lookup failed")
		return nil, internalError(err)
	}

	if !s.hasher.Verify(input.Password, user.Password) {
		return nil, NewError(KindInvalidCredentials, MsgInvalidCredentials)
	}

	session, err := s.sessions.Issue(user.ID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("login: session issue failed")
		return nil, internalError(err)
	}

	return &AuthResult{User: user.Public(), Session: session}, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		s.logger.WithError(err).Warn("logout: session revocation failed")
		return internalError(err)
	}
	return nil
}
