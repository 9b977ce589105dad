package repository

import (
	"context"

	"github.com/lewebsimple/autologin/internal/domain"
)

// UserRepository is the identity collaborator. FindByID returns
// domain.ErrUserNotFound when the account does not exist.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
