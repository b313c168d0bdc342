package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"
	domainRepo "github.com/prog-nayeem/appointment-scheduler/internal/domain/repository"
	"github.com/prog-nayeem/appointment-scheduler/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) domainRepo.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	err := database.Conn(ctx, r.db).Create(user).Error
	if err != nil {
		if database.IsUniqueViolation(err, "email") {
			return fmt.Errorf("%w: %v", domainRepo.ErrDuplicateEmail, err)
		}
		return err
	}
	return nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := database.Conn(ctx, r.db).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindIdentity(ctx context.Context, id uuid.UUID, role entity.Role, requireActive bool) (*entity.User, error) {
	var user entity.User
	query := database.Conn(ctx, r.db).Where("id = ? AND role = ?", id, role)
	if requireActive {
		query = query.Where("is_active = ?", true)
	}

	err := query.First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindActiveDoctors(ctx context.Context) ([]entity.User, error) {
	var doctors []entity.User
	err := database.Conn(ctx, r.db).
		Where("role = ? AND is_active = ?", entity.RoleDoctor, true).
		Order("full_name ASC").
		Find(&doctors).Error
	if err != nil {
		return nil, err
	}
	return doctors, nil
}
