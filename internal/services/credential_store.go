package services

import (
	"context"
	"errors"
	"fmt"

	"timetracker/internal/common"
	"timetracker/internal/models"
	"timetracker/internal/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CredentialStore verifies passwords against stored identities.
type CredentialStore interface {
	Verify(ctx context.Context, username, password string) (*models.User, error)
	Lookup(ctx context.Context, id uuid.UUID) (*models.User, error)
	HashPassword(password string) (string, error)
}

type credentialStore struct {
	users     repositories.UserRepository
	cost      int
	dummyHash []byte
}

// NewCredentialStore returns a bcrypt-backed store. cost is the bcrypt work
// factor; bcrypt.DefaultCost is used when it is out of range.
func NewCredentialStore(users repositories.UserRepository, cost int) (CredentialStore, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("timetracker-unknown-user"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &credentialStore{users: users, cost: cost, dummyHash: dummy}, nil
}

// Verify returns the identity for a matching username and password. Unknown
// usernames still pay for a bcrypt comparison so both failures look the same.
func (s *credentialStore) Verify(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, common.ErrUnauthenticated
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrUnauthenticated
	}
	return user, nil
}

// Lookup re-reads an identity by id. A missing identity is repositories.ErrNotFound.
func (s *credentialStore) Lookup(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *credentialStore) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
