package repository

import (
	"context"

	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	// FindIdentity returns the user only if it has the given role and, when
	// requireActive is set, is active. Otherwise it returns nil, nil.
	FindIdentity(ctx context.Context, id uuid.UUID, role entity.Role, requireActive bool) (*entity.User, error)
	FindActiveDoctors(ctx context.Context) ([]entity.User, error)
}
