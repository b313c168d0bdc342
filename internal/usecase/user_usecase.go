package usecase

import (
	"context"

	"github.com/prog-nayeem/appointment-scheduler/internal/converter"
	"github.com/prog-nayeem/appointment-scheduler/internal/delivery/dto"
	"github.com/prog-nayeem/appointment-scheduler/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type UserUsecase interface {
	GetDoctors(ctx context.Context) (*dto.UserListResponse, error)
	GetUser(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error)
}

type userUsecase struct {
	log      *logrus.Logger
	userRepo repository.UserRepository
}

func NewUserUsecase(log *logrus.Logger, userRepo repository.UserRepository) UserUsecase {
	return &userUsecase{
		log:      log,
		userRepo: userRepo,
	}
}

// GetDoctors lists active doctors ordered by name.
func (u *userUsecase) GetDoctors(ctx context.Context) (*dto.UserListResponse, error) {
	doctors, err := u.userRepo.FindActiveDoctors(ctx)
	if err != nil {
		u.log.Warnf("Failed to find doctors: %+v", err)
		return nil, err
	}

	return &dto.UserListResponse{
		Users: converter.UsersToResponses(doctors),
		Total: len(doctors),
	}, nil
}

func (u *userUsecase) GetUser(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error) {
	user, err := u.userRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find user %s: %+v", id, err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return converter.UserToResponse(user), nil
}
